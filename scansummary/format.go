// Package scansummary parses the tab-delimited scan-summary export (.cdxs) of
// the Hinds Instruments CD wellplate reader into per-well CD, absorbance and
// CD-per-absorbance spectra, and attaches analyte labels to the wells.
package scansummary

// Layout of the reader's scan-summary export. These offsets were fixed by the
// instrument's export format and verified against sample files; they are not
// derived from anything in the file itself.
const (
	// Signature is the first field of the first line of every export.
	Signature = "Hinds Instruments CD Reader"

	// Extension of scan-summary files.
	Extension = ".cdxs"

	// DateLine holds the scan date and time in its first field.
	DateLine = 1

	// ScanProcessLine holds the scan-process descriptor (start wavelength,
	// end wavelength, step) in its first field.
	ScanProcessLine = 4

	// PlateTypeLine holds the plate type in its second field.
	PlateTypeLine  = 9
	PlateTypeField = 1

	// HeaderLines is the number of metadata lines before the measurement
	// table. The line at this index names the table's columns.
	HeaderLines = 11

	// FooterRows is the number of trailing table rows the instrument appends
	// after the measurements (annotation table and settings summary).
	FooterRows = 17
)

// Column names of the measurement table.
const (
	ColumnWavelength = "WL"
	ColumnCD         = "CD-mDeg"
	ColumnAbsorbance = "ABS"
)

// Markers bounding the embedded annotation table.
const (
	AnnotationStart = "Well Info"
	AnnotationEnd   = "End Annotation"

	// EmptyWell is the annotation placeholder for an unused well.
	EmptyWell = "MT"
)

// KeyFileSuffixes are tried in order next to the scan file, as
// <stem><suffix>. The first that exists is used.
var KeyFileSuffixes = []string{
	"_scan_key.csv",
	"_scan_key.xlsx",
	"_scankey.csv",
	"_scankey.xlsx",
	"_scan_key.xls",
	"_scankey.xls",
}
