package smooth

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/cdreader/cdxs/plate"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/spectrum"
)

func series(t *testing.T, n int, f func(x float64) float64) *spectrum.Spectrum {
	t.Helper()

	wl := make([]string, 0, n)
	vals := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		wl = append(wl, fmt.Sprint(400-i))
		vals = append(vals, f(float64(i)))
	}

	s, err := spectrum.New(wl, vals)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSavitzkyGolayPreservesPolynomials(t *testing.T) {
	for _, v := range []struct {
		Window, Order int
		F             func(x float64) float64
	}{
		{5, 1, func(x float64) float64 { return 3 - 2*x }},
		{7, 2, func(x float64) float64 { return 1 + 2*x + 0.5*x*x }},
		{9, 3, func(x float64) float64 { return 0.01*x*x*x - 0.2*x*x + x - 7 }},
	} {
		s := series(t, 21, v.F)

		got, err := SavitzkyGolay(s, v.Window, v.Order)
		if err != nil {
			t.Fatal(err)
		}

		if got.Len() != s.Len() {
			t.Fatalf("expected %d points, got %d", s.Len(), got.Len())
		}
		for i, wl := range s.Wavelengths() {
			want, _ := s.At(wl)
			have, _ := got.At(wl)
			if math.Abs(want-have) > 1e-6 {
				t.Errorf("window %d order %d: point %d: expected %f, got %f", v.Window, v.Order, i, want, have)
			}
		}
	}
}

func TestSavitzkyGolaySmooths(t *testing.T) {
	// A single spike is spread out and attenuated
	s := series(t, 11, func(x float64) float64 {
		if x == 5 {
			return 10
		}
		return 0
	})

	got, err := SavitzkyGolay(s, 5, 2)
	if err != nil {
		t.Fatal(err)
	}

	peak, _ := got.At("395")
	if peak >= 10 || peak <= 0 {
		t.Errorf("expected an attenuated peak, got %f", peak)
	}

	// Standard 5-point quadratic weights: -3, 12, 17, 12, -3 over 35
	if expected := 10 * 17.0 / 35.0; math.Abs(peak-expected) > 1e-9 {
		t.Errorf("expected %f at the spike, got %f", expected, peak)
	}
	neighbour, _ := got.At("396")
	if expected := 10 * 12.0 / 35.0; math.Abs(neighbour-expected) > 1e-9 {
		t.Errorf("expected %f next to the spike, got %f", expected, neighbour)
	}
}

func TestSavitzkyGolayRejects(t *testing.T) {
	s := series(t, 7, func(x float64) float64 { return x })

	for _, v := range []struct{ Window, Order int }{
		{4, 1},
		{0, 0},
		{5, 5},
		{5, -1},
		{9, 2},
	} {
		if _, err := SavitzkyGolay(s, v.Window, v.Order); err == nil {
			t.Errorf("window %d order %d: expected an error", v.Window, v.Order)
		}
	}
}

func TestLowPass(t *testing.T) {
	s := series(t, 300, func(x float64) float64 { return 4 })

	got, err := LowPass(s, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != s.Len() {
		t.Fatalf("expected %d points, got %d", s.Len(), got.Len())
	}

	vals := got.Values()
	if last := vals[len(vals)-1]; math.Abs(last-4) > 1e-3 {
		t.Errorf("expected a constant signal to pass through, got %f", last)
	}

	for _, wc := range []float64{0, 4} {
		if _, err := LowPass(s, wc); err == nil {
			t.Errorf("wc=%f: expected an invalid filter", wc)
		}
	}
}

func TestWell(t *testing.T) {
	cd := series(t, 15, func(x float64) float64 { return x * x })
	abs := series(t, 15, func(x float64) float64 { return 1 + x })

	w, err := scansummary.NewWell(plate.Average, nil, cd, abs)
	if err != nil {
		t.Fatal(err)
	}
	w.Analyte = "ProteinX"

	smoothed, err := Well(w, 5, 2, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if smoothed.Analyte != "ProteinX" || smoothed.Position != plate.Average {
		t.Errorf("smoothing should keep the well's identity, got %v", smoothed)
	}

	// Quadratics survive a quadratic filter
	for _, wl := range cd.Wavelengths() {
		want, _ := cd.At(wl)
		have, _ := smoothed.CD().At(wl)
		if math.Abs(want-have) > 1e-6 {
			t.Errorf("%s: expected %f, got %f", wl, want, have)
		}
	}

	if _, err := Well(w, 31, 2, nil); err == nil {
		t.Error("expected an error when the window exceeds the spectrum")
	}
}

func TestWellKeepsNonFiniteRatio(t *testing.T) {
	cd := series(t, 15, func(x float64) float64 { return 2 * x })
	abs := series(t, 15, func(x float64) float64 { return x - 3 }) // zero at the fourth wavelength

	w, err := scansummary.NewWell(plate.Average, nil, cd, abs)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := SavitzkyGolay(w.CDPerAbsorbance(), 5, 2); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}

	var logged bytes.Buffer
	smoothed, err := Well(w, 5, 2, log.New(&logged, "", 0))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(logged.String(), "Could not smooth CD/ABS") {
		t.Errorf("expected a warning about the ratio, got %q", logged.String())
	}
	if strings.Contains(logged.String(), "absorbance") {
		t.Errorf("absorbance is finite and should have been smoothed, got %q", logged.String())
	}
	if smoothed.CDPerAbsorbance() != w.CDPerAbsorbance() {
		t.Error("expected the unsmoothable ratio to be kept as measured")
	}
	if v, _ := smoothed.CDPerAbsorbance().At("397"); !math.IsNaN(v) {
		t.Errorf("expected the ratio to stay NaN at 397, got %f", v)
	}

	// Lines survive a quadratic filter
	for _, wl := range cd.Wavelengths() {
		want, _ := cd.At(wl)
		have, _ := smoothed.CD().At(wl)
		if math.Abs(want-have) > 1e-6 {
			t.Errorf("%s: expected %f, got %f", wl, want, have)
		}
	}

	nanCD := series(t, 15, func(x float64) float64 { return math.Log(x - 1) }) // NaN at x == 0
	bad, err := scansummary.NewWell(plate.Average, nil, nanCD, series(t, 15, func(float64) float64 { return 1 }))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Well(bad, 5, 2, log.New(io.Discard, "", 0)); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected a non-finite CD to fail, got %v", err)
	}
}
