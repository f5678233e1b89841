// cdxsplot draws the CD, absorbance and CD/absorbance spectra of scan-summary
// wells as PNG charts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cdreader/cdxs"
	_ "github.com/cdreader/cdxs/compileinfoprint"
	"github.com/cdreader/cdxs/plot"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/smooth"
	"github.com/cdreader/cdxs/wellstats"
)

func main() {
	env, err := cdxs.LoadEnv()
	if err != nil {
		log.Fatalln(err)
	}

	var keyFile, encoding, prefix, analyte, subtract string
	var workers, window, order int
	var average, perFile bool
	var opts plot.Options

	flag.StringVar(&keyFile, "key", "", "(Optional) scan key to use instead of the one next to each file")
	flag.StringVar(&encoding, "encoding", env.Encoding, "(Optional) character set of the files if not UTF-8, e.g. windows-1252")
	flag.IntVar(&workers, "workers", env.Workers, "Number of files to parse at once")
	flag.StringVar(&prefix, "prefix", "cdxs", "Output path prefix. Charts are written to <prefix>_cd.png, <prefix>_abs.png and <prefix>_gfactor.png")
	flag.BoolVar(&perFile, "per-file", false, "Write one set of charts per file, named <prefix>_<file>_*.png")
	flag.StringVar(&analyte, "analyte", "", "(Optional) only plot wells with this analyte")
	flag.StringVar(&subtract, "subtract", "", "(Optional) analyte (e.g. a buffer blank) whose average is subtracted from every plotted well")
	flag.BoolVar(&average, "average", false, "Plot one averaged line per analyte instead of every well")
	flag.IntVar(&window, "smooth-window", 0, "(Optional) Savitzky-Golay window length (odd). 0 disables smoothing")
	flag.IntVar(&order, "smooth-order", 3, "Savitzky-Golay polynomial order")
	flag.Float64Var(&opts.XMin, "xmin", 0, "(Optional) lower wavelength limit")
	flag.Float64Var(&opts.XMax, "xmax", 0, "(Optional) upper wavelength limit")
	flag.Float64Var(&opts.YMin, "ymin", 0, "(Optional) lower y-axis limit")
	flag.Float64Var(&opts.YMax, "ymax", 0, "(Optional) upper y-axis limit")
	flag.BoolVar(&opts.MarkMax, "mark-max", false, "Mark the largest reading of each line (lambda max on CD charts)")
	flag.Float64Var(&opts.MarkWavelength, "mark-wl", 0, "(Optional) mark each line's reading at this wavelength (nm)")
	flag.IntVar(&opts.Width, "width", plot.DefaultWidth, "Chart width in pixels")
	flag.IntVar(&opts.Height, "height", plot.DefaultHeight, "Chart height in pixels")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file-or-directory ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	paths := make([]string, 0, flag.NArg())
	for _, p := range flag.Args() {
		expanded, err := cdxs.ExpandHome(p)
		if err != nil {
			log.Fatalln(err)
		}
		paths = append(paths, expanded)
	}
	prefix, err = cdxs.ExpandHome(prefix)
	if err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()
	client, err := cdxs.StorageClientFor(ctx, append(paths, keyFile)...)
	if err != nil {
		log.Fatalln(err)
	}

	docs, err := scansummary.Load(ctx, paths, workers, scansummary.Options{
		Encoding: encoding,
		KeyFile:  keyFile,
		Storage:  client,
	})
	if err != nil {
		log.Fatalln(err)
	}

	groups := map[string][]*scansummary.Document{prefix: docs}
	if perFile {
		groups = make(map[string][]*scansummary.Document, len(docs))
		for _, doc := range docs {
			groups[prefix+"_"+doc.Name] = []*scansummary.Document{doc}
		}
	}

	for groupPrefix, groupDocs := range groups {
		wells, err := wellsToPlot(groupDocs, analyte, subtract, average, window, order)
		if err != nil {
			log.Fatalln(err)
		}
		if len(wells) == 0 {
			log.Printf("%s: no wells matched, skipping\n", groupPrefix)
			continue
		}

		chartOpts := opts
		chartOpts.Title = filepath.Base(groupPrefix)
		written, err := plot.Wells(groupPrefix, wells, chartOpts)
		if err != nil {
			log.Fatalln(err)
		}
		for _, path := range written {
			log.Println("Wrote", path)
		}
	}
}

func wellsToPlot(docs []*scansummary.Document, analyte, subtract string, average bool, window, order int) ([]*scansummary.Well, error) {
	var wells []*scansummary.Well

	switch {
	case average:
		analytes := wellstats.Analytes(docs)
		if analyte != "" {
			analytes = []string{analyte}
		}
		for _, a := range analytes {
			if a == subtract {
				continue
			}
			group := wellstats.WellsWithAnalyte(docs, a)
			if len(group) == 0 {
				continue
			}
			avg, err := wellstats.Average(group)
			if err != nil {
				return nil, fmt.Errorf("averaging %s: %w", a, err)
			}
			wells = append(wells, avg)
		}
	case analyte != "":
		wells = wellstats.WellsWithAnalyte(docs, analyte)
	default:
		for _, doc := range docs {
			for _, w := range doc.Wells {
				if subtract != "" && w.Analyte == subtract {
					continue
				}
				wells = append(wells, w)
			}
		}
	}

	if subtract != "" && len(wells) > 0 {
		blanks := wellstats.WellsWithAnalyte(docs, subtract)
		if len(blanks) == 0 {
			return nil, fmt.Errorf("no wells with analyte %q to subtract", subtract)
		}
		blank, err := wellstats.Average(blanks)
		if err != nil {
			return nil, err
		}

		for i, w := range wells {
			if wells[i], err = wellstats.Difference(w, blank); err != nil {
				return nil, fmt.Errorf("subtracting %s from %s: %w", subtract, w, err)
			}
		}
	}

	if window <= 0 {
		return wells, nil
	}

	for i, w := range wells {
		s, err := smooth.Well(w, window, order, nil)
		if err != nil {
			return nil, fmt.Errorf("smoothing %s: %w", w, err)
		}
		wells[i] = s
	}

	return wells, nil
}
