package wellstats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/spectrum"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/combin"
)

// valuesAt reads every spectrum at the numeric wavelength nm.
func valuesAt(spectra []*spectrum.Spectrum, nm float64) ([]float64, error) {
	if len(spectra) == 0 {
		return nil, ErrNoWells
	}

	out := make([]float64, 0, len(spectra))
	for i, s := range spectra {
		v, ok := s.AtWavelength(nm)
		if !ok {
			return nil, &scansummary.NotFoundError{Kind: "wavelength", Value: fmt.Sprintf("%g (spectrum %d)", nm, i)}
		}
		out = append(out, v)
	}
	return out, nil
}

// MeanAt is the mean of the spectra at wavelength nm.
func MeanAt(spectra []*spectrum.Spectrum, nm float64) (float64, error) {
	x, err := valuesAt(spectra, nm)
	if err != nil {
		return math.NaN(), err
	}
	return stat.Mean(x, nil), nil
}

// StdDevAt is the sample standard deviation (n-1 denominator) of the spectra
// at wavelength nm. It is NaN for a single spectrum.
func StdDevAt(spectra []*spectrum.Spectrum, nm float64) (float64, error) {
	x, err := valuesAt(spectra, nm)
	if err != nil {
		return math.NaN(), err
	}
	return stat.StdDev(x, nil), nil
}

// Summary describes the spread of several spectra at one wavelength.
type Summary struct {
	Wavelength float64
	N          int
	Mean       float64
	StdDev     float64 // sample
	Median     float64
	Min        float64
	Max        float64
}

// Describe summarises the spectra at wavelength nm. NaN readings are left out.
func Describe(spectra []*spectrum.Spectrum, nm float64) (Summary, error) {
	x, err := valuesAt(spectra, nm)
	if err != nil {
		return Summary{}, err
	}

	data := make(stats.Float64Data, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}

	out := Summary{Wavelength: nm, N: data.Len(), StdDev: math.NaN()}
	if out.N == 0 {
		out.Mean, out.Median, out.Min, out.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return out, nil
	}

	if out.Mean, err = stats.Mean(data); err != nil {
		return out, err
	}
	if out.Median, err = stats.Median(data); err != nil {
		return out, err
	}
	if out.Min, err = stats.Min(data); err != nil {
		return out, err
	}
	if out.Max, err = stats.Max(data); err != nil {
		return out, err
	}
	if out.N > 1 {
		if out.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return out, err
		}
	}

	return out, nil
}

// Pick is the outcome of PickN.
type Pick struct {
	Wells      []*scansummary.Well
	Kind       Kind
	Wavelength float64
	Mean       float64
	StdDev     float64
}

// RelStdDev is the standard deviation as a percentage of the mean's magnitude.
func (p Pick) RelStdDev() float64 {
	return math.Abs(p.StdDev) / math.Abs(p.Mean) * 100
}

// Analyte is the label shared by the picked wells.
func (p Pick) Analyte() string {
	if len(p.Wells) == 0 {
		return ""
	}
	return p.Wells[0].Analyte
}

// PickN tries every combination of n wells and keeps the one whose spectra
// agree best, i.e. have the lowest sample standard deviation at wavelength nm.
// Combinations are visited in lexicographic order and a later combination
// must be strictly better to replace an earlier one. All wells must carry the
// same analyte.
func PickN(wells []*scansummary.Well, n int, nm float64, kind Kind) (Pick, error) {
	if n < 1 {
		return Pick{}, fmt.Errorf("cannot pick %d wells", n)
	}
	if n > len(wells) {
		return Pick{}, fmt.Errorf("asked for %d wells but only %d were given", n, len(wells))
	}

	all, err := Spectra(wells, kind, true)
	if err != nil {
		return Pick{}, err
	}

	best := Pick{Kind: kind, Wavelength: nm, StdDev: math.NaN()}
	combo := make([]int, n)
	subset := make([]*spectrum.Spectrum, n)
	gen := combin.NewCombinationGenerator(len(wells), n)
	for gen.Next() {
		gen.Combination(combo)
		for j, i := range combo {
			subset[j] = all[i]
		}

		sd, err := StdDevAt(subset, nm)
		if err != nil {
			return Pick{}, err
		}

		if best.Wells != nil && !(sd < best.StdDev || (math.IsNaN(best.StdDev) && !math.IsNaN(sd))) {
			continue
		}

		mean, err := MeanAt(subset, nm)
		if err != nil {
			return Pick{}, err
		}

		best.Wells = make([]*scansummary.Well, 0, n)
		for _, i := range combo {
			best.Wells = append(best.Wells, wells[i])
		}
		best.Mean, best.StdDev = mean, sd
	}

	return best, nil
}

const (
	ansiWarning = "\033[93m"
	ansiFail    = "\033[91m"
	ansiEnd     = "\033[0m"
)

// Thresholds used by Report to flag a pick.
const (
	LowSignal         = 15.0 // |mean| below this is flagged
	RelStdDevWarning  = 8.0  // percent
	RelStdDevFailure  = 15.0 // percent
	reportSourceWidth = 9
)

func highlight(s, code string, color bool) string {
	if !color || code == "" {
		return s
	}
	return code + s + ansiEnd
}

// Report writes one tab-separated line describing p. With color set, a weak
// mean and a large relative spread are highlighted with ANSI escapes.
func Report(w io.Writer, p Pick, color bool) error {
	avgCode := ""
	if math.Abs(p.Mean) < LowSignal {
		avgCode = ansiWarning
	}

	rel := p.RelStdDev()
	relCode := ""
	switch {
	case rel > RelStdDevFailure:
		relCode = ansiFail
	case rel > RelStdDevWarning:
		relCode = ansiWarning
	}

	labels := make([]string, 0, len(p.Wells))
	for _, well := range p.Wells {
		source := well.SourceName()
		if len(source) > reportSourceWidth {
			source = source[:reportSourceWidth]
		}
		labels = append(labels, strings.TrimSpace(source+" "+well.Name()))
	}

	_, err := fmt.Fprintf(w, "%-4s:\tstddev: %7.3f\t\tavg: %s\trel_stddev: %s\tnSpectra: %d\tBest Wells: %s\n",
		p.Analyte(),
		p.StdDev,
		highlight(fmt.Sprintf("%7.2f", p.Mean), avgCode, color),
		highlight(fmt.Sprintf("%7.2f%%", rel), relCode, color),
		len(p.Wells),
		strings.Join(labels, " "),
	)

	return err
}
