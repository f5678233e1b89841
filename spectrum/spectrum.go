// Package spectrum holds wavelength-indexed series such as a well's CD or
// absorbance trace. Wavelength keys are kept as the strings that appeared in
// the source file so that their precision is preserved, and the order in which
// they were added is the order they are reported in.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/carbocation/runningvariance"
)

// ErrWavelengthMismatch is returned when two spectra combined element-wise do
// not share exactly the same wavelengths.
var ErrWavelengthMismatch = errors.New("spectra must be measured at the same wavelengths")

// WavelengthTolerance is the tolerance used when matching a numeric wavelength
// against the string keys of a spectrum.
const WavelengthTolerance = 1e-9

// Spectrum is an ordered, immutable mapping from wavelength to intensity.
type Spectrum struct {
	wavelengths []string
	values      map[string]float64
}

// New builds a spectrum from parallel slices.
func New(wavelengths []string, values []float64) (*Spectrum, error) {
	if len(wavelengths) != len(values) {
		return nil, fmt.Errorf("got %d wavelengths but %d values", len(wavelengths), len(values))
	}

	s := &Spectrum{
		wavelengths: make([]string, 0, len(wavelengths)),
		values:      make(map[string]float64, len(wavelengths)),
	}
	for i, wl := range wavelengths {
		if _, exists := s.values[wl]; exists {
			return nil, fmt.Errorf("wavelength %q appears more than once", wl)
		}
		s.wavelengths = append(s.wavelengths, wl)
		s.values[wl] = values[i]
	}

	return s, nil
}

// Len is the number of wavelengths in the spectrum.
func (s *Spectrum) Len() int {
	if s == nil {
		return 0
	}
	return len(s.wavelengths)
}

// Wavelengths returns a copy of the wavelength keys in order.
func (s *Spectrum) Wavelengths() []string {
	out := make([]string, s.Len())
	if s != nil {
		copy(out, s.wavelengths)
	}
	return out
}

// Values returns the intensities in wavelength order.
func (s *Spectrum) Values() []float64 {
	out := make([]float64, 0, s.Len())
	if s == nil {
		return out
	}
	for _, wl := range s.wavelengths {
		out = append(out, s.values[wl])
	}
	return out
}

// At returns the intensity at an exact wavelength key.
func (s *Spectrum) At(wavelength string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.values[wavelength]
	return v, ok
}

// AtWavelength returns the intensity at the key whose numeric value equals nm,
// so that 520, "520" and "520.0" all find the same point.
func (s *Spectrum) AtWavelength(nm float64) (float64, bool) {
	key, ok := s.Key(nm)
	if !ok {
		return 0, false
	}
	return s.values[key], true
}

// Key returns the wavelength key whose numeric value equals nm.
func (s *Spectrum) Key(nm float64) (string, bool) {
	if s == nil {
		return "", false
	}

	// Fast path for keys written the way strconv would write them
	if _, ok := s.values[strconv.FormatFloat(nm, 'f', -1, 64)]; ok {
		return strconv.FormatFloat(nm, 'f', -1, 64), true
	}

	for _, wl := range s.wavelengths {
		f, err := strconv.ParseFloat(wl, 64)
		if err != nil {
			continue
		}
		if math.Abs(f-nm) <= WavelengthTolerance {
			return wl, true
		}
	}

	return "", false
}

// Floats returns the wavelengths as numbers alongside their values, for
// plotting and numeric work.
func (s *Spectrum) Floats() (x, y []float64, err error) {
	x = make([]float64, 0, s.Len())
	y = make([]float64, 0, s.Len())
	if s == nil {
		return x, y, nil
	}
	for _, wl := range s.wavelengths {
		f, err := strconv.ParseFloat(wl, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("wavelength %q is not numeric", wl)
		}
		x = append(x, f)
		y = append(y, s.values[wl])
	}
	return x, y, nil
}

// SameWavelengths reports whether both spectra have exactly the same key set.
func (s *Spectrum) SameWavelengths(o *Spectrum) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, wl := range s.Wavelengths() {
		if _, ok := o.At(wl); !ok {
			return false
		}
	}
	return true
}

// WithValues returns a spectrum on the same wavelength axis with new values.
func (s *Spectrum) WithValues(values []float64) (*Spectrum, error) {
	return New(s.Wavelengths(), values)
}

// Window returns the points whose numeric wavelength lies within [lo, hi].
// Keys that are not numeric are skipped.
func (s *Spectrum) Window(lo, hi float64) *Spectrum {
	out := &Spectrum{values: make(map[string]float64)}
	if s == nil {
		return out
	}
	for _, wl := range s.wavelengths {
		f, err := strconv.ParseFloat(wl, 64)
		if err != nil || math.IsNaN(f) || f < lo || f > hi {
			continue
		}
		out.wavelengths = append(out.wavelengths, wl)
		out.values[wl] = s.values[wl]
	}
	return out
}

// PruneNaN returns a copy without the points whose value is NaN or whose key
// is not a number.
func (s *Spectrum) PruneNaN() *Spectrum {
	out := &Spectrum{values: make(map[string]float64)}
	if s == nil {
		return out
	}
	for _, wl := range s.wavelengths {
		v := s.values[wl]
		if math.IsNaN(v) {
			continue
		}
		if f, err := strconv.ParseFloat(wl, 64); err != nil || math.IsNaN(f) {
			continue
		}
		out.wavelengths = append(out.wavelengths, wl)
		out.values[wl] = v
	}
	return out
}

func combine(a, b *Spectrum, op func(x, y float64) float64) (*Spectrum, error) {
	if !a.SameWavelengths(b) {
		return nil, ErrWavelengthMismatch
	}

	out := &Spectrum{
		wavelengths: a.Wavelengths(),
		values:      make(map[string]float64, a.Len()),
	}
	for _, wl := range out.wavelengths {
		out.values[wl] = op(a.values[wl], b.values[wl])
	}

	return out, nil
}

// Sub returns a - b at every wavelength.
func Sub(a, b *Spectrum) (*Spectrum, error) {
	return combine(a, b, func(x, y float64) float64 { return x - y })
}

// Add returns a + b at every wavelength.
func Add(a, b *Spectrum) (*Spectrum, error) {
	return combine(a, b, func(x, y float64) float64 { return x + y })
}

// Divide returns num / den at every wavelength. Where den is zero the result is
// NaN and the wavelength is listed in undefined.
func Divide(num, den *Spectrum) (out *Spectrum, undefined []string, err error) {
	out, err = combine(num, den, func(x, y float64) float64 {
		if y == 0 {
			return math.NaN()
		}
		return x / y
	})
	if err != nil {
		return nil, nil, err
	}

	for _, wl := range out.wavelengths {
		if v, _ := den.At(wl); v == 0 {
			undefined = append(undefined, wl)
		}
	}

	return out, undefined, nil
}

// Mean returns the per-wavelength arithmetic mean of the spectra, which must
// all share the first spectrum's wavelengths.
func Mean(spectra ...*Spectrum) (*Spectrum, error) {
	if len(spectra) == 0 {
		return nil, errors.New("cannot average zero spectra")
	}

	first := spectra[0]
	for _, s := range spectra[1:] {
		if !first.SameWavelengths(s) {
			return nil, ErrWavelengthMismatch
		}
	}

	out := &Spectrum{
		wavelengths: first.Wavelengths(),
		values:      make(map[string]float64, first.Len()),
	}
	for _, wl := range out.wavelengths {
		rs := runningvariance.NewRunningStat()
		for _, s := range spectra {
			rs.Push(s.values[wl])
		}
		out.values[wl] = rs.Mean()
	}

	return out, nil
}
