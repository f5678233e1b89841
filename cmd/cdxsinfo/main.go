// cdxsinfo summarises CD plate-reader scan-summary files: one line per file,
// or one line per well with -wells.
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
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/wellstats"
)

func main() {
	env, err := cdxs.LoadEnv()
	if err != nil {
		log.Fatalln(err)
	}

	var keyFile, encoding string
	var workers int
	var wells bool
	var lambdaMin, lambdaMax float64

	flag.StringVar(&keyFile, "key", "", "(Optional) scan key to use instead of the one next to each file")
	flag.StringVar(&encoding, "encoding", env.Encoding, "(Optional) character set of the files if not UTF-8, e.g. windows-1252")
	flag.IntVar(&workers, "workers", env.Workers, "Number of files to parse at once")
	flag.BoolVar(&wells, "wells", false, "Print one line per well instead of one per file")
	flag.Float64Var(&lambdaMin, "lambda-min", 0, "(Optional, with -wells) lower bound of the range searched for the CD maximum")
	flag.Float64Var(&lambdaMax, "lambda-max", 0, "(Optional, with -wells) upper bound of the range searched for the CD maximum")
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

	if wells {
		printWells(docs, lambdaMin, lambdaMax)
		return
	}

	fmt.Println(strings.Join([]string{"file", "scan_date", "plate_type", "block_size", "wells", "wavelengths", "analyte_source", "analytes"}, "\t"))
	for _, doc := range docs {
		wl := doc.Wavelengths()
		span := ""
		if len(wl) > 0 {
			span = wl[0] + "-" + wl[len(wl)-1]
		}

		fmt.Printf("%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			doc.Name,
			doc.ScanDate,
			doc.PlateType,
			doc.BlockSize,
			len(doc.Wells),
			span,
			doc.AnalyteSource,
			strings.Join(doc.Analytes(), ","),
		)
	}

	log.Printf("Summarised %d files containing %d analytes\n", len(docs), len(wellstats.Analytes(docs)))
}

func printWells(docs []*scansummary.Document, lambdaMin, lambdaMax float64) {
	fmt.Println(strings.Join([]string{"file", "well", "analyte", "lambda_max", "ratio_undefined"}, "\t"))
	for _, doc := range docs {
		for _, w := range doc.Wells {
			lo, hi := lambdaMin, lambdaMax
			if lo == hi {
				lo, hi = 0, 1e9
			}

			peak, err := wellstats.LambdaMax(w, lo, hi)
			if err != nil {
				peak = "NA"
			}

			fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
				doc.Name,
				w.Name(),
				w.Analyte,
				peak,
				strings.Join(w.RatioUndefined(), ","),
			)
		}
	}
}
