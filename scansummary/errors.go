package scansummary

import "fmt"

// FormatError reports input that does not follow the scan-summary layout. It
// is always fatal to the parse that produced it.
type FormatError struct {
	File  string // base name of the scan file, if known
	Value string // the offending value
	Msg   string
}

func (e *FormatError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %q", e.Msg, e.Value)
	}
	return fmt.Sprintf("%s: %s: %q", e.File, e.Msg, e.Value)
}

// NotFoundError is returned when a requested well or analyte is absent.
type NotFoundError struct {
	File  string
	Kind  string // "well" or "analyte"
	Value string
}

func (e *NotFoundError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Value)
	}
	return fmt.Sprintf("%s %q not found in %s", e.Kind, e.Value, e.File)
}

// DivisionError marks a wavelength where CD per absorbance is undefined
// because the absorbance is zero. The well still parses; the ratio is NaN at
// that wavelength.
type DivisionError struct {
	Position   string
	Wavelength string
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("CD/ABS undefined for well %s at wavelength %s: absorbance is zero", e.Position, e.Wavelength)
}

// UnsupportedKeyFileError is returned when a scan key exists but its extension
// is not one we can read.
type UnsupportedKeyFileError struct {
	Path string
}

func (e *UnsupportedKeyFileError) Error() string {
	return fmt.Sprintf("scan key %s: file format not recognized (expected .csv, .xlsx or .xls)", e.Path)
}

// withFile fills in the file name on a FormatError produced by a helper that
// did not know it.
func withFile(err error, file string) error {
	if fe, ok := err.(*FormatError); ok && fe.File == "" {
		fe.File = file
	}
	return err
}
