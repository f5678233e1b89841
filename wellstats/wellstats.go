// Package wellstats compares and aggregates wells across scan-summary files:
// averaging and differencing wells, per-wavelength statistics, and choosing
// the most consistent replicates of an analyte.
package wellstats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cdreader/cdxs/plate"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/spectrum"
)

var (
	ErrNoWells       = errors.New("no wells given")
	ErrMixedAnalytes = errors.New("all wells must have the same analyte")
)

// Kind selects one of the three spectra a well carries.
type Kind int

const (
	CD Kind = iota
	ABS
	CDPerABS
)

func (k Kind) String() string {
	switch k {
	case CD:
		return "cd"
	case ABS:
		return "abs"
	case CDPerABS:
		return "cd_per_abs"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "cd", "abs" or "cd_per_abs", in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cd":
		return CD, nil
	case "abs":
		return ABS, nil
	case "cd_per_abs", "cdperabs", "gfactor":
		return CDPerABS, nil
	}
	return CD, fmt.Errorf("unknown spectrum kind %q: expected cd, abs or cd_per_abs", s)
}

// Of returns the spectrum of this kind from w.
func (k Kind) Of(w *scansummary.Well) *spectrum.Spectrum {
	switch k {
	case ABS:
		return w.Absorbance()
	case CDPerABS:
		return w.CDPerAbsorbance()
	}
	return w.CD()
}

func sameAnalyte(wells []*scansummary.Well) error {
	if len(wells) == 0 {
		return ErrNoWells
	}
	for _, w := range wells[1:] {
		if w.Analyte != wells[0].Analyte {
			return fmt.Errorf("%w: %q and %q", ErrMixedAnalytes, wells[0].Analyte, w.Analyte)
		}
	}
	return nil
}

// Spectra collects the spectrum of the given kind from each well. When
// requireSameAnalyte is set, wells carrying different analytes are an error.
func Spectra(wells []*scansummary.Well, kind Kind, requireSameAnalyte bool) ([]*spectrum.Spectrum, error) {
	if requireSameAnalyte {
		if err := sameAnalyte(wells); err != nil {
			return nil, err
		}
	}

	out := make([]*spectrum.Spectrum, 0, len(wells))
	for _, w := range wells {
		out = append(out, kind.Of(w))
	}
	return out, nil
}

// Difference returns a well holding w1 - w2 for all three spectra. It keeps
// w1's position and source and is labelled "<w1> - <w2>".
func Difference(w1, w2 *scansummary.Well) (*scansummary.Well, error) {
	cd, err := spectrum.Sub(w1.CD(), w2.CD())
	if err != nil {
		return nil, err
	}
	abs, err := spectrum.Sub(w1.Absorbance(), w2.Absorbance())
	if err != nil {
		return nil, err
	}
	ratio, err := spectrum.Sub(w1.CDPerAbsorbance(), w2.CDPerAbsorbance())
	if err != nil {
		return nil, err
	}

	return scansummary.NewDerivedWell(w1.Position, w1.Source, w1.Analyte+" - "+w2.Analyte, cd, abs, ratio)
}

// Average returns a synthetic well whose CD and absorbance are the
// per-wavelength means of the inputs and whose ratio is recomputed from those
// means. All wells must carry the same analyte; the result is labelled
// "<analyte>_avg" at the Average position.
func Average(wells []*scansummary.Well) (*scansummary.Well, error) {
	if err := sameAnalyte(wells); err != nil {
		return nil, err
	}

	cds, _ := Spectra(wells, CD, false)
	cd, err := spectrum.Mean(cds...)
	if err != nil {
		return nil, err
	}
	absorbances, _ := Spectra(wells, ABS, false)
	abs, err := spectrum.Mean(absorbances...)
	if err != nil {
		return nil, err
	}

	avg, err := scansummary.NewWell(plate.Average, nil, cd, abs)
	if err != nil {
		return nil, err
	}
	avg.Analyte = wells[0].Analyte + "_avg"

	return avg, nil
}

func lookup(w *scansummary.Well, s *spectrum.Spectrum, nm float64) (string, float64, error) {
	key, ok := s.Key(nm)
	if !ok {
		return "", math.NaN(), &scansummary.NotFoundError{File: w.SourceName(), Kind: "wavelength", Value: fmt.Sprint(nm)}
	}
	v, _ := s.At(key)
	return key, v, nil
}

// SignalRatio is the value of the chosen spectrum at wl1 divided by its value
// at wl2.
func SignalRatio(w *scansummary.Well, wl1, wl2 float64, kind Kind) (float64, error) {
	s := kind.Of(w)

	_, num, err := lookup(w, s, wl1)
	if err != nil {
		return math.NaN(), err
	}
	key, den, err := lookup(w, s, wl2)
	if err != nil {
		return math.NaN(), err
	}
	if den == 0 {
		return math.NaN(), &scansummary.DivisionError{Position: w.Name(), Wavelength: key}
	}

	return num / den, nil
}

// Peak returns the wavelength key within [lo, hi] where |s| is largest. NaN
// readings are ignored; on ties the first wavelength in scan order wins. ok is
// false when the range holds no finite reading.
func Peak(s *spectrum.Spectrum, lo, hi float64) (key string, ok bool) {
	window := s.Window(lo, hi)

	bestValue := math.Inf(-1)
	for _, wl := range window.Wavelengths() {
		v, _ := window.At(wl)
		if math.IsNaN(v) {
			continue
		}
		if math.Abs(v) > bestValue {
			key, bestValue = wl, math.Abs(v)
		}
	}

	return key, key != ""
}

// LambdaMax returns the wavelength key within [lo, hi] where |CD| is largest.
// NaN values are ignored; on ties the first wavelength in scan order wins.
func LambdaMax(w *scansummary.Well, lo, hi float64) (string, error) {
	best, ok := Peak(w.CD(), lo, hi)
	if !ok {
		return "", &scansummary.NotFoundError{File: w.SourceName(), Kind: "wavelength", Value: fmt.Sprintf("%g-%g", lo, hi)}
	}

	return best, nil
}

// WellsWithAnalyte gathers the wells labelled analyte from every document, in
// document order.
func WellsWithAnalyte(docs []*scansummary.Document, analyte string) []*scansummary.Well {
	out := make([]*scansummary.Well, 0)
	for _, doc := range docs {
		out = append(out, doc.WellsWithAnalyte(analyte)...)
	}
	return out
}

// Analytes lists every non-empty analyte label found in docs, sorted.
func Analytes(docs []*scansummary.Document) []string {
	seen := make(map[string]struct{})
	for _, doc := range docs {
		for _, a := range doc.Analytes() {
			seen[a] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)

	return out
}
