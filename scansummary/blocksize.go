package scansummary

import (
	"regexp"
	"strconv"
)

var descriptorInts = regexp.MustCompile(`\b\d+\b`)

// BlockSize derives the number of table rows per well from the scan-process
// descriptor, which embeds the start wavelength, end wavelength and step as
// its first three integers. Each block holds one row per wavelength plus the
// well-label row, hence the +2 over the number of steps.
//
// Scans may run from high to low wavelength, so only the magnitude of the
// range counts. A step that does not evenly divide the range is rejected
// rather than truncated.
func BlockSize(descriptor string) (int, error) {
	digits := descriptorInts.FindAllString(descriptor, -1)
	if len(digits) < 3 {
		return 0, &FormatError{Value: descriptor, Msg: "scan process descriptor should contain start wavelength, end wavelength and step"}
	}

	var ints [3]int
	for i := range ints {
		v, err := strconv.Atoi(digits[i])
		if err != nil {
			return 0, &FormatError{Value: digits[i], Msg: "scan process descriptor integer out of range"}
		}
		ints[i] = v
	}

	start, end, step := ints[0], ints[1], ints[2]
	if step == 0 {
		return 0, &FormatError{Value: descriptor, Msg: "scan process descriptor has a zero wavelength step"}
	}

	span := end - start
	if span < 0 {
		span = -span
	}
	if span%step != 0 {
		return 0, &FormatError{Value: descriptor, Msg: "wavelength step does not evenly divide the scan range"}
	}

	return span/step + 2, nil
}
