// Package smooth removes high-frequency noise from spectra.
package smooth

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/carbocation/pfx"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/spectrum"
	"github.com/jfcg/butter"
	"gonum.org/v1/gonum/mat"
)

// ErrNonFinite is returned when a spectrum to be smoothed holds a NaN or
// infinite reading, e.g. a CD/ABS ratio at a wavelength with zero absorbance.
var ErrNonFinite = errors.New("spectrum has non-finite readings")

// fitter holds the least-squares solution operator for fitting a polynomial
// of a given order to a window of equally spaced points centred on zero.
type fitter struct {
	window int
	order  int
	half   int
	pinv   *mat.Dense // (order+1) x window
}

func newFitter(window, order int) (*fitter, error) {
	half := window / 2

	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		for k := 0; k <= order; k++ {
			a.Set(i, k, math.Pow(x, float64(k)))
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var pinv mat.Dense
	if err := pinv.Solve(&ata, a.T()); err != nil {
		return nil, pfx.Err(fmt.Errorf("window %d, order %d: %w", window, order, err))
	}

	return &fitter{window: window, order: order, half: half, pinv: &pinv}, nil
}

// at fits the polynomial to ys (len == window) and evaluates it at offset x
// from the window centre.
func (f *fitter) at(ys []float64, x float64) float64 {
	var coef mat.VecDense
	coef.MulVec(f.pinv, mat.NewVecDense(len(ys), ys))

	out := 0.0
	for k := f.order; k >= 0; k-- {
		out = out*x + coef.AtVec(k)
	}
	return out
}

// SavitzkyGolay smooths s by fitting a polynomial of the given order to each
// odd-length window of points and keeping its value at the centre. Points
// closer than half a window to either end take their value from the
// polynomial fitted to the first or last full window. Wavelengths are assumed
// to be equally spaced.
func SavitzkyGolay(s *spectrum.Spectrum, window, order int) (*spectrum.Spectrum, error) {
	n := s.Len()
	switch {
	case window < 1 || window%2 == 0:
		return nil, fmt.Errorf("window length must be a positive odd number, got %d", window)
	case order < 0 || order >= window:
		return nil, fmt.Errorf("polynomial order must be at least 0 and less than the window length %d, got %d", window, order)
	case window > n:
		return nil, fmt.Errorf("window length %d is longer than the spectrum (%d points)", window, n)
	}

	y := s.Values()
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %v at %s", ErrNonFinite, v, s.Wavelengths()[i])
		}
	}

	f, err := newFitter(window, order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for centre := f.half; centre < n-f.half; centre++ {
		out[centre] = f.at(y[centre-f.half:centre+f.half+1], 0)
	}

	head, tail := y[:window], y[n-window:]
	for i := 0; i < f.half; i++ {
		out[i] = f.at(head, float64(i-f.half))
		out[n-1-i] = f.at(tail, float64(f.half-i))
	}

	return s.WithValues(out)
}

// LowPass runs s through a first-order Butterworth low-pass filter with
// normalised cutoff wc, in scan order. wc must lie in (0.0001, π).
func LowPass(s *spectrum.Spectrum, wc float64) (*spectrum.Spectrum, error) {
	filt := butter.NewLowPass1(wc)
	if filt == nil {
		return nil, fmt.Errorf("invalid low-pass filter (attempted wc=%f, but expect .0001 < wc && wc < 3.1415)", wc)
	}

	in := s.Values()
	out := make([]float64, 0, len(in))
	for _, v := range in {
		out = append(out, filt.Next(v))
	}

	return s.WithValues(out)
}

// Well returns a copy of w with all three spectra Savitzky-Golay smoothed. The
// CD spectrum must smooth; if the absorbance or ratio cannot (typically a NaN
// ratio where the absorbance is zero), a warning is logged and that spectrum
// is kept as measured.
func Well(w *scansummary.Well, window, order int, logger *log.Logger) (*scansummary.Well, error) {
	if logger == nil {
		logger = log.Default()
	}

	cd, err := SavitzkyGolay(w.CD(), window, order)
	if err != nil {
		return nil, err
	}

	abs, err := SavitzkyGolay(w.Absorbance(), window, order)
	if err != nil {
		logger.Printf("Could not smooth absorbance for %s well %s: %v\n", w.SourceName(), w.Name(), err)
		abs = w.Absorbance()
	}

	ratio, err := SavitzkyGolay(w.CDPerAbsorbance(), window, order)
	if err != nil {
		logger.Printf("Could not smooth CD/ABS for %s well %s: %v\n", w.SourceName(), w.Name(), err)
		ratio = w.CDPerAbsorbance()
	}

	return scansummary.NewDerivedWell(w.Position, w.Source, w.Analyte, cd, abs, ratio)
}
