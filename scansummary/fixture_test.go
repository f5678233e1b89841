package scansummary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// tableHeader mirrors the reader's measurement table: 13 columns, of which we
// read three.
var tableHeader = []string{"WL", "CD-mDeg", "ABS", "CD-SD", "ABS-SD", "HT", "PMT", "Temp", "Time", "Lamp", "Gain", "Offset", "Flags"}

type fixtureWell struct {
	Label string
	CD    []string
	ABS   []string
}

// fixture renders a synthetic scan-summary export. Zero fields get the values
// a typical export would have.
type fixture struct {
	Signature  string
	Date       string
	Descriptor string
	PlateType  string

	// Start, End and Step describe the sweep; Descriptor is derived from
	// them unless set.
	Start, End, Step int

	Wells []fixtureWell

	// Annotations are written into the embedded Well Info table, keyed by
	// position. Unlisted positions are written as "MT".
	Annotations map[string]string

	// NoAnnotationTable replaces the annotation block with filler lines of
	// the same length.
	NoAnnotationTable bool

	// ExtraRows are appended to the measurement table before the footer.
	ExtraRows []string

	LineEnding string
}

func (f fixture) wavelengths() []string {
	var out []string
	if f.Start >= f.End {
		for wl := f.Start; wl >= f.End; wl -= f.Step {
			out = append(out, fmt.Sprint(wl))
		}
	} else {
		for wl := f.Start; wl <= f.End; wl += f.Step {
			out = append(out, fmt.Sprint(wl))
		}
	}
	return out
}

// defaultFixture is a two-well 400 -> 300 nm scan in 10 nm steps.
func defaultFixture(labels ...string) fixture {
	if len(labels) == 0 {
		labels = []string{"A1", "A2"}
	}
	f := fixture{Start: 400, End: 300, Step: 10}
	for i, label := range labels {
		f.Wells = append(f.Wells, syntheticWell(label, len(f.wavelengths()), float64(i)))
	}
	return f
}

// syntheticWell has CD = offset + 2*i and ABS = 0.5 + 0.01*i at the i-th
// wavelength.
func syntheticWell(label string, n int, offset float64) fixtureWell {
	w := fixtureWell{Label: label}
	for i := 0; i < n; i++ {
		w.CD = append(w.CD, fmt.Sprint(offset+2*float64(i)))
		w.ABS = append(w.ABS, fmt.Sprint(0.5+0.01*float64(i)))
	}
	return w
}

func (f fixture) render() string {
	signature := f.Signature
	if signature == "" {
		signature = Signature
	}
	date := f.Date
	if date == "" {
		date = "3/14/2023   10:32:11 AM"
	}
	descriptor := f.Descriptor
	if descriptor == "" {
		descriptor = fmt.Sprintf("Scan Process: %d nm to %d nm, step %d nm", f.Start, f.End, f.Step)
	}
	plateType := f.PlateType
	if plateType == "" {
		plateType = "96 Well Quartz"
	}

	lines := []string{
		signature + "\tv2.4",
		date,
		"Experiment\tsynthetic",
		"Method\tStandard Sweep",
		descriptor,
		"Averaging\t1",
		"Temperature\t25.0",
		"Gain\tAuto",
		"Lamp\tXe",
		"Plate\t" + plateType,
		"Data",
		strings.Join(tableHeader, "\t"),
	}

	wavelengths := f.wavelengths()
	for _, w := range f.Wells {
		lines = append(lines, w.Label)
		for i, wl := range wavelengths {
			lines = append(lines, strings.Join([]string{wl, w.CD[i], w.ABS[i], "0.01", "0.001", "400", "0.5", "25.0", "12:00", "on", "1", "0", "ok"}, "\t"))
		}
	}
	lines = append(lines, f.ExtraRows...)

	// Footer: 17 rows
	lines = append(lines, "End Data")
	if f.NoAnnotationTable {
		for i := 0; i < 11; i++ {
			lines = append(lines, fmt.Sprintf("Note %d\tnone", i))
		}
	} else {
		header := []string{""}
		for col := 1; col <= 12; col++ {
			header = append(header, fmt.Sprint(col))
		}
		lines = append(lines, "Well Info", strings.Join(header, "\t"))
		for _, row := range "ABCDEFGH" {
			cells := []string{string(row)}
			for col := 1; col <= 12; col++ {
				label, ok := f.Annotations[fmt.Sprintf("%c%d", row, col)]
				if !ok {
					label = EmptyWell
				}
				cells = append(cells, label)
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
		lines = append(lines, "End Annotation")
	}
	lines = append(lines,
		"Settings",
		"Operator\tlab",
		"Instrument\tCD-96",
		"Firmware\t1.0",
		"End File",
	)

	eol := f.LineEnding
	if eol == "" {
		eol = "\n"
	}

	return strings.Join(lines, eol) + eol
}

// write renders the fixture into dir/name and returns the path.
func (f fixture) write(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(f.render()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
