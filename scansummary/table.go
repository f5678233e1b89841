package scansummary

import (
	"log"
	"strconv"
	"strings"
)

// Row is one line of the measurement table, restricted to the three columns we
// read. Missing cells are empty strings.
type Row struct {
	Line int // 0-based line number in the source file
	WL   string
	CD   string
	ABS  string
}

// splitFields splits a line of the export into its tab-delimited fields.
func splitFields(line string) []string {
	return strings.Split(line, "\t")
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// ReadTable extracts the measurement table from the lines of a scan file. The
// column-name row is at HeaderLines; measurement rows follow. Empty lines are
// skipped, rows with more fields than the column-name row are skipped with a
// warning, and the last FooterRows rows are dropped.
func ReadTable(lines []string, file string, logger *log.Logger) ([]Row, error) {
	if logger == nil {
		logger = log.Default()
	}

	if len(lines) <= HeaderLines {
		return nil, &FormatError{File: file, Value: strconv.Itoa(len(lines)), Msg: "file ends before the measurement table"}
	}

	header := splitFields(lines[HeaderLines])
	cols := map[string]int{ColumnWavelength: -1, ColumnCD: -1, ColumnAbsorbance: -1}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if idx, wanted := cols[name]; wanted && idx < 0 {
			cols[name] = i
		}
	}
	for _, name := range []string{ColumnWavelength, ColumnCD, ColumnAbsorbance} {
		if cols[name] < 0 {
			return nil, &FormatError{File: file, Value: name, Msg: "measurement table is missing column"}
		}
	}

	rows := make([]Row, 0, len(lines)-HeaderLines)
	for i := HeaderLines + 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}

		fields := splitFields(lines[i])
		if len(fields) > len(header) {
			logger.Printf("%s: skipping line %d: expected %d fields, saw %d\n", file, i+1, len(header), len(fields))
			continue
		}

		rows = append(rows, Row{
			Line: i,
			WL:   strings.TrimSpace(field(fields, cols[ColumnWavelength])),
			CD:   strings.TrimSpace(field(fields, cols[ColumnCD])),
			ABS:  strings.TrimSpace(field(fields, cols[ColumnAbsorbance])),
		})
	}

	if len(rows) < FooterRows {
		return nil, &FormatError{File: file, Value: strconv.Itoa(len(rows)), Msg: "measurement table is shorter than the instrument footer"}
	}

	return rows[:len(rows)-FooterRows], nil
}

// SplitBlocks cuts the measurement table into consecutive blocks of blockSize
// rows, one per well. The table must divide evenly.
func SplitBlocks(rows []Row, blockSize int, file string) ([][]Row, error) {
	if blockSize < 2 {
		return nil, &FormatError{File: file, Value: strconv.Itoa(blockSize), Msg: "block size must cover a label row and at least one wavelength"}
	}
	if len(rows) == 0 {
		return nil, &FormatError{File: file, Value: "0", Msg: "no measurement rows"}
	}
	if len(rows)%blockSize != 0 {
		return nil, &FormatError{
			File:  file,
			Value: strconv.Itoa(len(rows)),
			Msg:   "measurement row count is not a multiple of the block size " + strconv.Itoa(blockSize),
		}
	}

	blocks := make([][]Row, 0, len(rows)/blockSize)
	for start := 0; start < len(rows); start += blockSize {
		blocks = append(blocks, rows[start:start+blockSize:start+blockSize])
	}

	return blocks, nil
}
