// Package export writes wells to spreadsheets: a wide xlsx layout with one
// column per well, and a long CSV layout with one row per well and wavelength.
package export

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/cdreader/cdxs/scansummary"
	"github.com/cdreader/cdxs/spectrum"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const WavelengthColumn = "WAVELENGTHS"

// WriteXLSX writes the wells to a new workbook at path. The first column holds
// the wavelengths, followed by a CD_<well> column per well and then an
// ABS_<well> column per well. Wells sharing a position are told apart by file
// or analyte. NaN readings are left blank. All wells must be measured on the
// same wavelengths, and path must end in .xlsx.
func WriteXLSX(path string, wells []*scansummary.Well) error {
	if filepath.Ext(path) != ".xlsx" {
		return fmt.Errorf("%s: xlsx export requires a .xlsx file name", path)
	}
	if len(wells) == 0 {
		return fmt.Errorf("%s: no wells to export", path)
	}

	wavelengths := wells[0].CD().Wavelengths()
	for _, w := range wells {
		if !wells[0].CD().SameWavelengths(w.CD()) || !wells[0].CD().SameWavelengths(w.Absorbance()) {
			return fmt.Errorf("%s: well %s: %w", path, w.Name(), spectrum.ErrWavelengthMismatch)
		}
	}

	names := columnNames(wells)
	header := []interface{}{WavelengthColumn}
	for _, name := range names {
		header = append(header, "CD_"+name)
	}
	for _, name := range names {
		header = append(header, "ABS_"+name)
	}

	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)

	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return pfx.Err(err)
	}

	for i, wl := range wavelengths {
		row := make([]interface{}, 0, len(header))
		if f, err := strconv.ParseFloat(wl, 64); err == nil {
			row = append(row, f)
		} else {
			row = append(row, wl)
		}
		for _, w := range wells {
			row = append(row, cellValue(w.CD(), wl))
		}
		for _, w := range wells {
			row = append(row, cellValue(w.Absorbance(), wl))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return pfx.Err(err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return pfx.Err(err)
		}
	}

	if err := book.SaveAs(path); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// sourceStem is the experiment name of the file w came from, or "" for
// derived wells.
func sourceStem(w *scansummary.Well) string {
	if w.Source != nil && w.Source.Name != "" {
		return w.Source.Name
	}
	return strings.TrimSuffix(w.SourceName(), filepath.Ext(w.SourceName()))
}

// columnNames labels each well by its position. When positions repeat, as
// with wells from several files or several averages, wells are labelled
// <file>_<position> or, lacking a file, by their analyte. Any label still
// repeated gets a _2, _3 ... suffix.
func columnNames(wells []*scansummary.Well) []string {
	names := make([]string, len(wells))
	count := make(map[string]int, len(wells))
	for i, w := range wells {
		names[i] = w.Name()
		count[names[i]]++
	}
	if len(count) == len(names) {
		return names
	}

	for i, w := range wells {
		switch {
		case sourceStem(w) != "":
			names[i] = sourceStem(w) + "_" + w.Name()
		case w.Analyte != "":
			names[i] = w.Analyte
		}
	}

	seen := make(map[string]int, len(names))
	for i, name := range names {
		seen[name]++
		if seen[name] > 1 {
			names[i] = fmt.Sprintf("%s_%d", name, seen[name])
		}
	}

	return names
}

func cellValue(s *spectrum.Spectrum, wl string) interface{} {
	v, ok := s.At(wl)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Record is one row of the long CSV layout.
type Record struct {
	Source     string  `csv:"source"`
	Well       string  `csv:"well"`
	Analyte    string  `csv:"analyte"`
	Wavelength string  `csv:"wavelength"`
	CD         float64 `csv:"cd"`
	ABS        float64 `csv:"abs"`
	CDPerABS   float64 `csv:"cd_per_abs"`
}

// Records flattens wells into one record per well and wavelength, in well
// order and then scan order.
func Records(wells []*scansummary.Well) []*Record {
	var out []*Record
	for _, w := range wells {
		for _, wl := range w.CD().Wavelengths() {
			cd, _ := w.CD().At(wl)
			abs, _ := w.Absorbance().At(wl)
			ratio, _ := w.CDPerAbsorbance().At(wl)
			out = append(out, &Record{
				Source:     sourceStem(w),
				Well:       w.Name(),
				Analyte:    w.Analyte,
				Wavelength: wl,
				CD:         cd,
				ABS:        abs,
				CDPerABS:   ratio,
			})
		}
	}
	return out
}

// WriteCSV writes the wells to w in the long layout, with a header row.
func WriteCSV(w io.Writer, wells []*scansummary.Well) error {
	records := Records(wells)
	if records == nil {
		records = []*Record{}
	}

	if err := gocsv.Marshal(&records, w); err != nil {
		return pfx.Err(err)
	}

	return nil
}
