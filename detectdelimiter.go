package cdxs

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// keyDelimiters are the delimiters a scan key may plausibly use, most
// preferred first. The detector also proposes characters like '-' when labels
// happen to contain them on every line, which would split analyte names
// apart, and it reports its candidates in no particular order.
var keyDelimiters = []rune{',', '\t', ';'}

// DetermineDelimiter returns the most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. When the detector proposes
// several plausible delimiters, ',' beats '\t' beats ';', so a comma-separated
// key whose labels contain a tab still splits on the comma. Falls back to ','
// when no plausible delimiter is found.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()

	proposed := make(map[rune]struct{})
	for _, candidate := range d.DetectDelimiter(r, '"') {
		if len(candidate) == 1 {
			proposed[rune(candidate[0])] = struct{}{}
		}
	}

	for _, delim := range keyDelimiters {
		if _, ok := proposed[delim]; ok {
			return delim
		}
	}

	return ','
}
