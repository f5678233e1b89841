// Package plate describes positions on a 96-well microplate (rows A-H,
// columns 1-12) plus the synthetic Average position carried by wells that were
// derived from several measured wells.
package plate

import (
	"strconv"
	"strings"
)

const (
	Rows    = 8
	Columns = 12
	Wells   = Rows * Columns
)

// Position is one well of a 96-well plate, or Average. Positions are numbered
// column-major (A1, B1, ... H1, A2, ...), which is the order the reader scans
// them in.
type Position int

const (
	// Invalid is returned alongside false from Parse and New.
	Invalid Position = -1

	// Average marks a well that was computed rather than measured.
	Average Position = Wells
)

// AverageLabel is the label used for derived wells in place of a plate
// coordinate.
const AverageLabel = "Average"

var (
	labels   [Wells + 1]string
	byLabel  = make(map[string]Position, Wells+1)
	rowNames = "ABCDEFGH"
)

func init() {
	for p := Position(0); p < Wells; p++ {
		labels[p] = string(p.Row()) + strconv.Itoa(p.Column())
		byLabel[labels[p]] = p
	}
	labels[Average] = AverageLabel
	byLabel[AverageLabel] = Average
}

// New returns the position at the given row letter (A-H) and 1-based column.
func New(row byte, column int) (Position, bool) {
	r := strings.IndexByte(rowNames, row)
	if r < 0 || column < 1 || column > Columns {
		return Invalid, false
	}

	return Position((column-1)*Rows + r), true
}

// Parse looks up a label such as "A1", "H12" or "Average". Matching is exact:
// no trimming or case folding is applied.
func Parse(label string) (Position, bool) {
	p, ok := byLabel[label]
	if !ok {
		return Invalid, false
	}

	return p, true
}

// IsValid reports whether label is one of the 96 positions or Average.
func IsValid(label string) bool {
	_, ok := byLabel[label]
	return ok
}

// All returns the 96 measured positions in scan order.
func All() []Position {
	out := make([]Position, Wells)
	for i := range out {
		out[i] = Position(i)
	}

	return out
}

// Row returns the row letter, or 0 for Average and invalid positions.
func (p Position) Row() byte {
	if p < 0 || p >= Wells {
		return 0
	}

	return rowNames[int(p)%Rows]
}

// Column returns the 1-based column, or 0 for Average and invalid positions.
func (p Position) Column() int {
	if p < 0 || p >= Wells {
		return 0
	}

	return int(p)/Rows + 1
}

func (p Position) IsAverage() bool {
	return p == Average
}

func (p Position) Valid() bool {
	return p >= 0 && p <= Average
}

func (p Position) String() string {
	if !p.Valid() {
		return "Invalid"
	}

	return labels[p]
}
