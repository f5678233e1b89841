// Package plot renders spectra as PNG line charts.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/spectrum"
	"github.com/cdreader/cdxs/wellstats"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

var ErrNothingToPlot = errors.New("no finite points to plot")

// Options controls the axes of a chart. A limit pair is only applied when its
// Min and Max differ.
type Options struct {
	Title  string
	XLabel string
	YLabel string

	XMin, XMax float64
	YMin, YMax float64

	Width, Height int

	// MarkMax puts a labelled dot on each line's peak, the reading with the
	// largest magnitude. MarkWavelength, when non-zero, does the same at that
	// wavelength; lines without a reading there are left unmarked.
	MarkMax        bool
	MarkWavelength float64
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Series is one named line on a chart.
type Series struct {
	Name     string
	Spectrum *spectrum.Spectrum
}

var baselineStyle = chart.Style{
	StrokeColor: drawing.ColorFromHex("D1D1D1"),
	StrokeWidth: 1,
}

const markDotWidth = 4

// xPad widens the x axis around a line with a single wavelength.
const xPad = 1.0

// marks returns the x,y points of points that opts asks to be marked.
func marks(points *spectrum.Spectrum, opts Options) (xs, ys []float64) {
	if opts.MarkMax {
		if key, ok := wellstats.Peak(points, math.Inf(-1), math.Inf(1)); ok {
			x, err := strconv.ParseFloat(key, 64)
			if err == nil {
				y, _ := points.At(key)
				xs, ys = append(xs, x), append(ys, y)
			}
		}
	}
	if opts.MarkWavelength != 0 {
		if y, ok := points.AtWavelength(opts.MarkWavelength); ok {
			xs, ys = append(xs, opts.MarkWavelength), append(ys, y)
		}
	}
	return xs, ys
}

// Spectrum draws a single spectrum.
func Spectrum(w io.Writer, s *spectrum.Spectrum, opts Options) error {
	return Spectra(w, []Series{{Spectrum: s}}, opts)
}

// Spectra draws several spectra on shared axes with a grey line at zero.
// NaN points are dropped, and when an x range is set only points inside it
// are drawn. A legend is added when any series is named.
func Spectra(w io.Writer, series []Series, opts Options) error {
	width, height := opts.size()

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name: opts.XLabel,
		},
		YAxis: chart.YAxis{
			Name: opts.YLabel,
		},
	}
	if opts.XMin != opts.XMax {
		graph.XAxis.Range = &chart.ContinuousRange{Min: math.Min(opts.XMin, opts.XMax), Max: math.Max(opts.XMin, opts.XMax)}
	}
	if opts.YMin != opts.YMax {
		graph.YAxis.Range = &chart.ContinuousRange{Min: math.Min(opts.YMin, opts.YMax), Max: math.Max(opts.YMin, opts.YMax)}
	}

	xMin, xMax := math.Inf(1), math.Inf(-1)
	named := false
	var markers []chart.Series
	var labels []chart.Value2
	for _, s := range series {
		points := s.Spectrum.PruneNaN()
		if opts.XMin != opts.XMax {
			points = points.Window(math.Min(opts.XMin, opts.XMax), math.Max(opts.XMin, opts.XMax))
		}

		x, y, err := points.Floats()
		if err != nil {
			return err
		}
		if len(x) == 0 {
			continue
		}
		for _, v := range x {
			xMin, xMax = math.Min(xMin, v), math.Max(xMax, v)
		}

		color := chart.GetDefaultColor(len(graph.Series))
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    s.Name,
			Style:   chart.Style{StrokeColor: color},
			XValues: x,
			YValues: y,
		})
		named = named || s.Name != ""

		if mx, my := marks(points, opts); len(mx) > 0 {
			markers = append(markers, chart.ContinuousSeries{
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    markDotWidth,
					DotColor:    color,
				},
				XValues: mx,
				YValues: my,
			})
			for i := range mx {
				labels = append(labels, chart.Value2{
					XValue: mx[i],
					YValue: my[i],
					Label:  fmt.Sprintf("%.1f,%.1f", mx[i], my[i]),
				})
			}
		}
	}

	if len(graph.Series) == 0 {
		return ErrNothingToPlot
	}

	if xMin == xMax {
		xMin, xMax = xMin-xPad, xMax+xPad
	}
	graph.Series = append(graph.Series, chart.ContinuousSeries{
		Name:    "0",
		Style:   baselineStyle,
		XValues: []float64{xMin, xMax},
		YValues: []float64{0, 0},
	})

	// The legend only lists the lines, not their marks
	lines := graph
	if named {
		graph.Elements = []chart.Renderable{chart.Legend(&lines)}
	}

	graph.Series = append(graph.Series, markers...)
	if len(labels) > 0 {
		graph.Series = append(graph.Series, chart.AnnotationSeries{Annotations: labels})
	}

	// Render to a byte buffer so a failed render leaves w untouched
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return pfx.Err(err)
	}
	if _, err := buffer.WriteTo(w); err != nil {
		return pfx.Err(err)
	}

	return nil
}

var wellCharts = []struct {
	Suffix string
	Kind   wellstats.Kind
	Title  string
	YLabel string
}{
	{"_cd.png", wellstats.CD, "CD", "CD (mdeg)"},
	{"_abs.png", wellstats.ABS, "Absorbance", "Absorbance"},
	{"_gfactor.png", wellstats.CDPerABS, "G-factor", "CD (mdeg / abs)"},
}

// Wells writes three charts of the wells (CD, absorbance and CD per
// absorbance) to <prefix>_cd.png, <prefix>_abs.png and <prefix>_gfactor.png,
// one line per well labelled with its analyte. It returns the paths written.
// Title and axis labels in opts are replaced per chart; the limits and marks
// are kept, so each chart marks the peak of its own spectrum.
func Wells(prefix string, wells []*scansummary.Well, opts Options) ([]string, error) {
	if len(wells) == 0 {
		return nil, wellstats.ErrNoWells
	}

	paths := make([]string, 0, len(wellCharts))
	for _, c := range wellCharts {
		series := make([]Series, 0, len(wells))
		for _, w := range wells {
			name := w.Analyte
			if name == "" {
				name = w.Name()
			}
			series = append(series, Series{Name: name, Spectrum: c.Kind.Of(w)})
		}

		chartOpts := opts
		chartOpts.Title = c.Title
		if opts.Title != "" {
			chartOpts.Title = opts.Title + ": " + c.Title
		}
		chartOpts.XLabel = "Wavelength (nm)"
		chartOpts.YLabel = c.YLabel

		path := prefix + c.Suffix
		if err := writeFile(path, series, chartOpts); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(path string, series []Series, opts Options) error {
	var buf bytes.Buffer
	if err := Spectra(&buf, series, opts); err != nil {
		return err
	}

	outFile, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	if _, err := buf.WriteTo(outFile); err != nil {
		outFile.Close()
		return pfx.Err(err)
	}

	if err := outFile.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
