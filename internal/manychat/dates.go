package manychat

import (
	"strconv"
	"strings"
	"time"
)

// excelEpoch is Dec 30, 1899. Excel serial day 0 maps here rather than
// Jan 1, 1900 to compensate for Excel's 1900 leap-year bug.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// excelDateToISO converts an Excel serial date (e.g. "46057,56185" with a
// PT-BR decimal comma) to an ISO 8601 string. Returns "" for empty or
// unparseable input.
func excelDateToISO(s string) string {
	if s == "" {
		return ""
	}

	serial, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return ""
	}

	d := time.Duration(serial * float64(24*time.Hour))
	return excelEpoch.Add(d).Format(time.RFC3339)
}
