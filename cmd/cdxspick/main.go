// cdxspick chooses, for each analyte, the n replicate wells whose spectra agree
// best at one wavelength, and reports how well they agree.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cdreader/cdxs"
	_ "github.com/cdreader/cdxs/compileinfoprint"
	"github.com/cdreader/cdxs/plot"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/wellstats"
)

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")

func main() {
	env, err := cdxs.LoadEnv()
	if err != nil {
		log.Fatalln(err)
	}

	var keyFile, encoding, analyte, kindName, plotPrefix string
	var workers, n int
	var nm float64
	var describe bool

	flag.StringVar(&keyFile, "key", "", "(Optional) scan key to use instead of the one next to each file")
	flag.StringVar(&encoding, "encoding", env.Encoding, "(Optional) character set of the files if not UTF-8, e.g. windows-1252")
	flag.IntVar(&workers, "workers", env.Workers, "Number of files to parse at once")
	flag.IntVar(&n, "n", 3, "Number of wells to pick per analyte")
	flag.Float64Var(&nm, "wl", 222, "Wavelength (nm) at which the spectra are compared")
	flag.StringVar(&kindName, "kind", "cd", "Spectrum to compare: cd, abs or cd_per_abs")
	flag.StringVar(&analyte, "analyte", "", "(Optional) only pick wells for this analyte. Defaults to every analyte")
	flag.BoolVar(&describe, "describe", false, "Also log the spread of all of each analyte's wells at -wl")
	flag.StringVar(&plotPrefix, "plot", "", "(Optional) draw the picked wells to <plot>_<analyte>_*.png")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file-or-directory ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	kind, err := wellstats.ParseKind(kindName)
	if err != nil {
		log.Fatalln(err)
	}

	paths := make([]string, 0, flag.NArg())
	for _, p := range flag.Args() {
		expanded, err := cdxs.ExpandHome(p)
		if err != nil {
			log.Fatalln(err)
		}
		paths = append(paths, expanded)
	}
	if plotPrefix != "" {
		if plotPrefix, err = cdxs.ExpandHome(plotPrefix); err != nil {
			log.Fatalln(err)
		}
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

	analytes := wellstats.Analytes(docs)
	if analyte != "" {
		analytes = []string{analyte}
	}
	if len(analytes) == 0 {
		log.Fatalln("No labelled wells were found. Is there a scan key?")
	}

	color := env.UseColor(os.Stdout)
	picked := 0
	for _, a := range analytes {
		wells := wellstats.WellsWithAnalyte(docs, a)
		if len(wells) < n {
			log.Printf("%s: only %d wells, need %d. Skipping\n", a, len(wells), n)
			continue
		}

		if describe {
			if err := logSpread(a, wells, kind, nm); err != nil {
				log.Fatalln(err)
			}
		}

		pick, err := wellstats.PickN(wells, n, nm, kind)
		if err != nil {
			log.Fatalf("%s: %v\n", a, err)
		}
		if err := wellstats.Report(os.Stdout, pick, color); err != nil {
			log.Fatalln(err)
		}
		picked++

		if plotPrefix == "" {
			continue
		}
		written, err := plot.Wells(plotPrefix+"_"+fileNameReplacer.Replace(a), pick.Wells, plot.Options{Title: a, MarkWavelength: nm})
		if err != nil {
			log.Fatalln(err)
		}
		for _, path := range written {
			log.Println("Wrote", path)
		}
	}

	log.Printf("Picked wells for %d of %d analytes\n", picked, len(analytes))
}

func logSpread(analyte string, wells []*scansummary.Well, kind wellstats.Kind, nm float64) error {
	spectra, err := wellstats.Spectra(wells, kind, true)
	if err != nil {
		return err
	}
	s, err := wellstats.Describe(spectra, nm)
	if err != nil {
		return err
	}

	log.Printf("%s %s at %gnm: n=%d mean=%.3f sd=%.3f median=%.3f min=%.3f max=%.3f\n",
		analyte, kind, s.Wavelength, s.N, s.Mean, s.StdDev, s.Median, s.Min, s.Max)

	return nil
}
