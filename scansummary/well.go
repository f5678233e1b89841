package scansummary

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cdreader/cdxs/plate"
	"github.com/cdreader/cdxs/spectrum"
)

// Well is one well's spectra. The CD per absorbance ratio is computed once,
// when the well is built, so bad absorbance data shows up at parse time.
//
// Analyte is a plain field. The analyte assigner writes it once while the
// document is being built; callers may overwrite it later (last write wins,
// there is no concurrency guard).
type Well struct {
	Position plate.Position

	// Source is the document the well was read from. It is nil for wells
	// computed from other wells.
	Source *Document

	Analyte string

	cd        *spectrum.Spectrum
	abs       *spectrum.Spectrum
	cdPerAbs  *spectrum.Spectrum
	undefined []string
}

// NewWell builds a well from its CD and absorbance spectra and computes the CD
// per absorbance ratio. Where absorbance is zero the ratio is NaN.
func NewWell(position plate.Position, source *Document, cd, abs *spectrum.Spectrum) (*Well, error) {
	ratio, undefined, err := spectrum.Divide(cd, abs)
	if err != nil {
		return nil, err
	}

	return &Well{
		Position:  position,
		Source:    source,
		cd:        cd,
		abs:       abs,
		cdPerAbs:  ratio,
		undefined: undefined,
	}, nil
}

// NewDerivedWell builds a well whose three spectra were computed elsewhere
// (differences, smoothing). All three must share a wavelength axis.
func NewDerivedWell(position plate.Position, source *Document, analyte string, cd, abs, cdPerAbs *spectrum.Spectrum) (*Well, error) {
	if !cd.SameWavelengths(abs) || !cd.SameWavelengths(cdPerAbs) {
		return nil, spectrum.ErrWavelengthMismatch
	}

	w := &Well{
		Position: position,
		Source:   source,
		Analyte:  analyte,
		cd:       cd,
		abs:      abs,
		cdPerAbs: cdPerAbs,
	}
	for _, wl := range cdPerAbs.Wavelengths() {
		if v, _ := cdPerAbs.At(wl); math.IsNaN(v) {
			if a, _ := abs.At(wl); a == 0 {
				w.undefined = append(w.undefined, wl)
			}
		}
	}

	return w, nil
}

// BuildWell turns one block of the measurement table into a Well. The first
// row carries the well label in its wavelength column; the remaining rows are
// the measurements. Empty cells become NaN.
func BuildWell(block []Row, source *Document) (*Well, error) {
	file := source.fileName()

	if len(block) == 0 {
		return nil, &FormatError{File: file, Value: "", Msg: "empty well block"}
	}

	position, ok := plate.Parse(block[0].WL)
	if !ok {
		return nil, &FormatError{File: file, Value: block[0].WL, Msg: "well format not understood"}
	}

	wavelengths := make([]string, 0, len(block)-1)
	cd := make([]float64, 0, len(block)-1)
	abs := make([]float64, 0, len(block)-1)
	for _, row := range block[1:] {
		c, err := parseCell(row.CD)
		if err != nil {
			return nil, &FormatError{File: file, Value: row.CD, Msg: fmt.Sprintf("well %s line %d: CD is not a number", position, row.Line+1)}
		}
		a, err := parseCell(row.ABS)
		if err != nil {
			return nil, &FormatError{File: file, Value: row.ABS, Msg: fmt.Sprintf("well %s line %d: absorbance is not a number", position, row.Line+1)}
		}

		wavelengths = append(wavelengths, row.WL)
		cd = append(cd, c)
		abs = append(abs, a)
	}

	cdSpec, err := spectrum.New(wavelengths, cd)
	if err != nil {
		return nil, &FormatError{File: file, Value: position.String(), Msg: err.Error()}
	}
	absSpec, err := spectrum.New(wavelengths, abs)
	if err != nil {
		return nil, &FormatError{File: file, Value: position.String(), Msg: err.Error()}
	}

	return NewWell(position, source, cdSpec, absSpec)
}

func parseCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Name is the well's plate label, e.g. "B3" or "Average".
func (w *Well) Name() string {
	return w.Position.String()
}

// SourceName is the base name of the file the well came from, or "" for
// derived wells.
func (w *Well) SourceName() string {
	return w.Source.fileName()
}

// CD is the circular dichroism signal in millidegrees.
func (w *Well) CD() *spectrum.Spectrum {
	return w.cd
}

// Absorbance is the absorbance in absorbance units.
func (w *Well) Absorbance() *spectrum.Spectrum {
	return w.abs
}

// CDPerAbsorbance is the CD signal divided by absorbance (g-factor). It is NaN
// at wavelengths where absorbance is zero.
func (w *Well) CDPerAbsorbance() *spectrum.Spectrum {
	return w.cdPerAbs
}

// RatioUndefined lists the wavelengths where absorbance was zero.
func (w *Well) RatioUndefined() []string {
	out := make([]string, len(w.undefined))
	copy(out, w.undefined)
	return out
}

// CDPerAbsorbanceAt returns the ratio at one wavelength, or a DivisionError if
// absorbance was zero there.
func (w *Well) CDPerAbsorbanceAt(wavelength string) (float64, error) {
	for _, wl := range w.undefined {
		if wl == wavelength {
			return math.NaN(), &DivisionError{Position: w.Name(), Wavelength: wavelength}
		}
	}

	v, ok := w.cdPerAbs.At(wavelength)
	if !ok {
		return math.NaN(), &NotFoundError{File: w.SourceName(), Kind: "wavelength", Value: wavelength}
	}

	return v, nil
}

func (w *Well) String() string {
	if w.Analyte == "" {
		return w.Name()
	}
	return fmt.Sprintf("%s (%s)", w.Name(), w.Analyte)
}
