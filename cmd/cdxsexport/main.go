// cdxsexport writes the wells of one or more scan-summary files to an xlsx
// workbook (one column per well) or a long-format CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cdreader/cdxs"
	_ "github.com/cdreader/cdxs/compileinfoprint"
	"github.com/cdreader/cdxs/export"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/smooth"
	"github.com/cdreader/cdxs/wellstats"
)

func main() {
	env, err := cdxs.LoadEnv()
	if err != nil {
		log.Fatalln(err)
	}

	var keyFile, encoding, output, format, analyte string
	var workers, window, order int
	var average bool

	flag.StringVar(&keyFile, "key", "", "(Optional) scan key to use instead of the one next to each file")
	flag.StringVar(&encoding, "encoding", env.Encoding, "(Optional) character set of the files if not UTF-8, e.g. windows-1252")
	flag.IntVar(&workers, "workers", env.Workers, "Number of files to parse at once")
	flag.StringVar(&output, "out", "", "Output file. Required for xlsx; CSV goes to stdout when omitted")
	flag.StringVar(&format, "format", "", "xlsx or csv. Defaults to the extension of -out, or csv")
	flag.StringVar(&analyte, "analyte", "", "(Optional) only export wells with this analyte")
	flag.BoolVar(&average, "average", false, "Export one averaged well per analyte instead of every well")
	flag.IntVar(&window, "smooth-window", 0, "(Optional) Savitzky-Golay window length (odd). 0 disables smoothing")
	flag.IntVar(&order, "smooth-order", 3, "Savitzky-Golay polynomial order")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file-or-directory ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if format == "" {
		format = "csv"
		if strings.EqualFold(filepath.Ext(output), ".xlsx") {
			format = "xlsx"
		}
	}
	format = strings.ToLower(format)
	if format != "csv" && format != "xlsx" {
		log.Fatalf("Unknown -format %q: expected xlsx or csv\n", format)
	}
	if format == "xlsx" && output == "" {
		log.Fatalln("-out is required for xlsx output")
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

	wells, err := selectWells(docs, analyte, average, window, order)
	if err != nil {
		log.Fatalln(err)
	}
	if len(wells) == 0 {
		log.Fatalln("No wells matched")
	}

	switch format {
	case "xlsx":
		if err := export.WriteXLSX(output, wells); err != nil {
			log.Fatalln(err)
		}
	case "csv":
		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			w = f
		}
		if err := export.WriteCSV(w, wells); err != nil {
			log.Fatalln(err)
		}
	}

	log.Printf("Exported %d wells from %d files\n", len(wells), len(docs))
}

func selectWells(docs []*scansummary.Document, analyte string, average bool, window, order int) ([]*scansummary.Well, error) {
	var wells []*scansummary.Well

	switch {
	case average:
		analytes := wellstats.Analytes(docs)
		if analyte != "" {
			analytes = []string{analyte}
		}
		for _, a := range analytes {
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
			wells = append(wells, doc.Wells...)
		}
	}

	if window <= 0 {
		return wells, nil
	}

	smoothed := make([]*scansummary.Well, 0, len(wells))
	for _, w := range wells {
		s, err := smooth.Well(w, window, order, nil)
		if err != nil {
			return nil, fmt.Errorf("smoothing %s: %w", w, err)
		}
		smoothed = append(smoothed, s)
	}

	return smoothed, nil
}
