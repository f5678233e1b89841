package scansummary

import (
	"bufio"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/araddon/dateparse"
	"github.com/carbocation/pfx"
	"github.com/cdreader/cdxs"
	"github.com/cdreader/cdxs/plate"
	"github.com/cdreader/cdxs/spectrum"
)

// Options adjusts how scan files are located and read. The zero value reads
// local, UTF-8 (or compressed UTF-8) files and looks for a scan key next to
// each one.
type Options struct {
	// Encoding names the character set of the scan file when it is not
	// UTF-8, e.g. "windows-1252".
	Encoding string

	// KeyFile, if set, is used as the scan key instead of searching for one
	// next to the scan file.
	KeyFile string

	// Storage enables gs:// paths.
	Storage *storage.Client

	// Logger receives warnings about skipped rows and cells. Defaults to
	// log.Default().
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// State is a step of document construction. Steps run strictly in order and a
// failure in any of them abandons the document.
type State int

const (
	Unparsed State = iota
	HeaderValidated
	TableExtracted
	WellsBuilt
	AnalytesAssigned
)

func (s State) String() string {
	switch s {
	case Unparsed:
		return "Unparsed"
	case HeaderValidated:
		return "HeaderValidated"
	case TableExtracted:
		return "TableExtracted"
	case WellsBuilt:
		return "WellsBuilt"
	case AnalytesAssigned:
		return "AnalytesAssigned"
	}
	return "Unknown"
}

// Document is one parsed scan-summary file.
type Document struct {
	Path string

	// Name is the experiment name, taken from the file name without its
	// extension.
	Name string

	// ScanDate is the date token from the header; ScanTime is the full header
	// timestamp when it could be parsed, and the zero time otherwise.
	ScanDate string
	ScanTime time.Time

	// ScanProcess is the raw scan-process descriptor the block size was
	// inferred from.
	ScanProcess string
	BlockSize   int
	PlateType   string

	Wells []*Well

	// AnalyteSource is the scan key path, AnalyteSourceEmbedded, or "" when no
	// labels were found.
	AnalyteSource string
}

// Open parses the scan-summary file at path with default options.
func Open(path string) (*Document, error) {
	return OpenWithOptions(path, Options{})
}

// OpenWithOptions parses the scan-summary file at path, which may be
// compressed, and may be a gs:// path when opts.Storage is set.
func OpenWithOptions(path string, opts Options) (*Document, error) {
	f, err := cdxs.OpenText(path, opts.Storage, opts.Encoding)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, path, opts)
}

// Parse reads a scan-summary export from r. path names the file for error
// messages, the experiment name and the scan key search; it is not opened.
// Encoding in opts is not applied here since r is already a text stream.
func Parse(r io.Reader, path string, opts Options) (*Document, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	p := &parser{
		doc:   &Document{Path: path},
		lines: lines,
		opts:  opts,
	}
	_, file := cdxs.SplitPath(path)
	p.doc.Name = strings.TrimSuffix(file, filepath.Ext(file))

	for _, step := range []struct {
		to  State
		run func() error
	}{
		{HeaderValidated, p.validateHeader},
		{TableExtracted, p.extractTable},
		{WellsBuilt, p.buildWells},
		{AnalytesAssigned, p.assignAnalytes},
	} {
		if err := p.advance(step.to, step.run); err != nil {
			return nil, err
		}
	}

	return p.doc, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(lines) > 0 {
		lines[0] = strings.TrimPrefix(lines[0], "\ufeff")
	}

	return lines, nil
}

type parser struct {
	doc   *Document
	lines []string
	rows  []Row
	state State
	opts  Options
}

func (p *parser) advance(to State, run func() error) error {
	if to != p.state+1 {
		// Only reachable through a programming error in Parse
		panic("scansummary: cannot move from " + p.state.String() + " to " + to.String())
	}

	if err := run(); err != nil {
		return withFile(err, p.doc.fileName())
	}
	p.state = to

	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

func (p *parser) validateHeader() error {
	file := p.doc.fileName()

	if len(p.lines) == 0 || field(splitFields(p.lines[0]), 0) != Signature {
		first := ""
		if len(p.lines) > 0 {
			first = field(splitFields(p.lines[0]), 0)
		}
		return &FormatError{File: file, Value: first, Msg: "not formatted like a CD wellplate reader scan summary"}
	}
	if len(p.lines) <= HeaderLines {
		return &FormatError{File: file, Value: p.lines[len(p.lines)-1], Msg: "file ends inside the header"}
	}

	dateField := strings.TrimSpace(whitespace.ReplaceAllString(field(splitFields(p.lines[DateLine]), 0), " "))
	p.doc.ScanDate = strings.Split(dateField, " ")[0]
	p.doc.ScanTime = parseScanTime(dateField, p.doc.ScanDate)

	p.doc.ScanProcess = field(splitFields(p.lines[ScanProcessLine]), 0)
	p.doc.PlateType = strings.TrimSpace(field(splitFields(p.lines[PlateTypeLine]), PlateTypeField))

	return nil
}

// parseScanTime tries the whole header timestamp, then just its date.
func parseScanTime(full, date string) time.Time {
	for _, candidate := range []string{full, date} {
		if candidate == "" {
			continue
		}
		if t, err := dateparse.ParseAny(candidate); err == nil {
			return t
		}
	}

	return time.Time{}
}

func (p *parser) extractTable() error {
	blockSize, err := BlockSize(p.doc.ScanProcess)
	if err != nil {
		return err
	}
	p.doc.BlockSize = blockSize

	p.rows, err = ReadTable(p.lines, p.doc.fileName(), p.opts.logger())

	return err
}

func (p *parser) buildWells() error {
	blocks, err := SplitBlocks(p.rows, p.doc.BlockSize, p.doc.fileName())
	if err != nil {
		return err
	}

	wells := make([]*Well, 0, len(blocks))
	for _, block := range blocks {
		w, err := BuildWell(block, p.doc)
		if err != nil {
			return err
		}
		wells = append(wells, w)
	}
	p.doc.Wells = wells

	return nil
}

func (p *parser) assignAnalytes() error {
	return AssignAnalytes(p.doc, p.lines, p.opts)
}

func (d *Document) fileName() string {
	if d == nil {
		return ""
	}
	_, file := cdxs.SplitPath(d.Path)
	return file
}

// Well returns the first well with the given plate label.
func (d *Document) Well(label string) (*Well, error) {
	position, ok := plate.Parse(label)
	if ok {
		for _, w := range d.Wells {
			if w.Position == position {
				return w, nil
			}
		}
	}

	return nil, &NotFoundError{File: d.fileName(), Kind: "well", Value: label}
}

// WellsWithAnalyte returns every well labelled with analyte, in plate order.
// The result is empty, not nil, when there are none.
func (d *Document) WellsWithAnalyte(analyte string) []*Well {
	out := make([]*Well, 0)
	for _, w := range d.Wells {
		if w.Analyte == analyte {
			out = append(out, w)
		}
	}
	return out
}

// FindAnalyte is WellsWithAnalyte, but reports a NotFoundError when no well
// carries the label.
func (d *Document) FindAnalyte(analyte string) ([]*Well, error) {
	out := d.WellsWithAnalyte(analyte)
	if len(out) == 0 {
		return nil, &NotFoundError{File: d.fileName(), Kind: "analyte", Value: analyte}
	}
	return out, nil
}

// CD returns the CD spectrum of the well with the given label.
func (d *Document) CD(label string) (*spectrum.Spectrum, error) {
	w, err := d.Well(label)
	if err != nil {
		return nil, err
	}
	return w.CD(), nil
}

// CDPerAbsorbance returns the CD per absorbance spectrum of the well with the
// given label.
func (d *Document) CDPerAbsorbance(label string) (*spectrum.Spectrum, error) {
	w, err := d.Well(label)
	if err != nil {
		return nil, err
	}
	return w.CDPerAbsorbance(), nil
}

// Positions lists the labels of the wells in the file, in file order.
func (d *Document) Positions() []string {
	out := make([]string, 0, len(d.Wells))
	for _, w := range d.Wells {
		out = append(out, w.Name())
	}
	return out
}

// Wavelengths returns the wavelengths of the first well. All wells of a scan
// are measured on the same axis.
func (d *Document) Wavelengths() []string {
	if len(d.Wells) == 0 {
		return nil
	}
	return d.Wells[0].CD().Wavelengths()
}

// Analytes returns the distinct non-empty analyte labels, sorted.
func (d *Document) Analytes() []string {
	seen := make(map[string]struct{})
	for _, w := range d.Wells {
		if w.Analyte != "" {
			seen[w.Analyte] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)

	return out
}
