package scansummary

import (
	"bytes"
	"encoding/csv"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/cdreader/cdxs"
	"github.com/cdreader/cdxs/plate"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// AnalyteSourceEmbedded is recorded in Document.AnalyteSource when labels came
// from the annotation table inside the scan file.
const AnalyteSourceEmbedded = "embedded"

// FindKeyFile returns the first scan key that exists next to the scan file at
// path, trying KeyFileSuffixes in order. It returns "" if there is none.
func FindKeyFile(path string, opts Options) (string, error) {
	dir, file := cdxs.SplitPath(path)
	stem := strings.TrimSuffix(file, filepath.Ext(file))

	for _, suffix := range KeyFileSuffixes {
		candidate := cdxs.JoinPath(dir, stem+suffix)
		exists, err := cdxs.Exists(candidate, opts.Storage)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}

	return "", nil
}

// ReadKeyFile reads a two-column scan key (position, analyte) with no header
// row. The format is chosen by extension.
func ReadKeyFile(path string, opts Options) (map[string]string, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readKeyCSV(path, opts)
	case ".xlsx":
		rows, err = readKeyXLSX(path, opts)
	case ".xls":
		rows, err = readKeyXLS(path, opts)
	default:
		return nil, &UnsupportedKeyFileError{Path: path}
	}
	if err != nil {
		return nil, err
	}

	return keyRowsToMap(rows, path, opts.logger()), nil
}

func readKeyCSV(path string, opts Options) ([][]string, error) {
	f, err := cdxs.OpenText(path, opts.Storage, opts.Encoding)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The key is small; hold it in memory so we can sniff the delimiter and
	// then parse from the start.
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, pfx.Err(err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = cdxs.DetermineDelimiter(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	return rows, nil
}

func readKeyXLSX(path string, opts Options) ([][]string, error) {
	f, _, err := cdxs.MaybeOpenSeekerFromGoogleStorage(path, opts.Storage)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	book, err := excelize.OpenReader(f)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, pfx.Err(err)
	}

	return rows, nil
}

func readKeyXLS(path string, opts Options) ([][]string, error) {
	f, _, err := cdxs.MaybeOpenSeekerFromGoogleStorage(path, opts.Storage)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	book, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, pfx.Err(err)
	}

	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := xlsRow(sheet, rowID)
		if row == nil {
			continue
		}
		rows = append(rows, []string{row.Col(0), row.Col(1)})
	}

	return rows, nil
}

// xlsRow returns nil for a row with no cells. The xls package panics on
// those instead.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()

	return sheet.Row(i)
}

// keyRowsToMap turns (position, label) rows into a lookup. Rows missing either
// cell are skipped; a repeated position keeps its last label.
func keyRowsToMap(rows [][]string, path string, logger *log.Logger) map[string]string {
	out := make(map[string]string, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		position, label := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if position == "" || label == "" {
			continue
		}
		if !plate.IsValid(position) {
			logger.Printf("%s: row %d: %q is not a plate position, ignoring\n", path, i+1, position)
			continue
		}
		out[position] = label
	}

	return out
}

// EmbeddedAnnotations reads the annotation table that the reader writes into
// the scan file between the "Well Info" and "End Annotation" lines. The line
// after "Well Info" holds the column numbers and is skipped; each following
// line starts with a row letter and carries one label per plate column, where
// the field index is the column number. "MT" and blank cells are unused wells.
//
// It returns nil if the markers are absent.
func EmbeddedAnnotations(lines []string, file string, logger *log.Logger) map[string]string {
	if logger == nil {
		logger = log.Default()
	}

	start, end := -1, -1
	for i, line := range lines {
		first := field(splitFields(line), 0)
		if start < 0 && strings.Contains(first, AnnotationStart) {
			start = i
			continue
		}
		if start >= 0 && strings.Contains(first, AnnotationEnd) {
			end = i
			break
		}
	}
	if start < 0 || end < 0 {
		return nil
	}

	out := make(map[string]string)
	for i := start + 2; i < end; i++ {
		fields := splitFields(lines[i])
		rowLetter := strings.TrimSpace(field(fields, 0))

		for col := 1; col < len(fields); col++ {
			label := strings.TrimSpace(fields[col])
			if label == "" || label == EmptyWell {
				continue
			}

			position, ok := plate.Parse(rowLetter + strconv.Itoa(col))
			if !ok || position.IsAverage() {
				logger.Printf("%s: line %d: annotation %q at row %q column %d is outside the plate, ignoring\n", file, i+1, label, rowLetter, col)
				continue
			}
			out[position.String()] = label
		}
	}

	return out
}

// AssignAnalytes labels the document's wells. A scan key next to the file
// takes precedence; only when there is none is the embedded annotation table
// consulted. Finding no labels at all is not an error.
func AssignAnalytes(doc *Document, lines []string, opts Options) error {
	keyFile := opts.KeyFile
	if keyFile == "" {
		var err error
		if keyFile, err = FindKeyFile(doc.Path, opts); err != nil {
			return err
		}
	}

	var labels map[string]string
	if keyFile != "" {
		var err error
		if labels, err = ReadKeyFile(keyFile, opts); err != nil {
			return err
		}
		doc.AnalyteSource = keyFile
	} else {
		labels = EmbeddedAnnotations(lines, doc.fileName(), opts.logger())
		if len(labels) > 0 {
			doc.AnalyteSource = AnalyteSourceEmbedded
		}
	}

	for _, w := range doc.Wells {
		if label, ok := labels[w.Name()]; ok {
			w.Analyte = label
		}
	}

	return nil
}
