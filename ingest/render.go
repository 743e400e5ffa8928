package ingest

import (
	"math"
	"strconv"
	"time"
	"unicode"
)

// renderInt64 renders an integer the canonical way: decimal, optional
// leading '-', no leading zeros. strconv.FormatInt already guarantees
// this for base 10.
func renderInt64(n int64) string {
	return strconv.FormatInt(n, 10)
}

// renderFloat64 renders x using the shortest decimal that round-trips
// through a float64 (Go's strconv shortest-form algorithm is the same
// family as Ryu/Grisu), switching to scientific notation outside
// [1e-4, 1e16) as spec §4.4.1 requires.
func renderFloat64(x float64) string {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		// Never produced by a well-formed input; fall back to Go's own
		// rendering rather than inventing a notation the spec doesn't
		// define.
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	abs := math.Abs(x)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return formatScientific(x)
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// formatScientific renders x as d.dddeSdd: one leading digit, a
// fractional part with no trailing zeros, and a signed exponent.
func formatScientific(x float64) string {
	s := strconv.FormatFloat(x, 'e', -1, 64)
	// strconv renders e.g. "1.152921504606847e+18" or "1e-05": the
	// exponent always has at least two digits, which is kept; only the
	// '+' sign of a positive exponent is dropped.
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' && i+1 < len(s) && s[i+1] == '+' {
			out = append(out, 'e')
			i++
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// strconvFormatFixed renders f with exactly digits decimal places, the
// way a spreadsheet number format like "#.00" would.
func strconvFormatFixed(f float64, digits int) string {
	return strconv.FormatFloat(f, 'f', digits, 64)
}

// renderTimestamp renders nanoseconds-since-epoch as an ISO-8601 value:
// "YYYY-MM-DD" for a date-only timestamp, "YYYY-MM-DDTHH:MM:SS[.ffffff]Z"
// otherwise, truncated to microseconds per spec §4.4 (trimming trailing
// zero fractional digits, and the fractional part entirely once it is
// exactly zero at microsecond precision).
func renderTimestamp(ns int64, dateOnly bool) string {
	t := time.Unix(0, ns).UTC()
	if dateOnly {
		return t.Format("2006-01-02")
	}
	s := t.Format("2006-01-02T15:04:05")
	frac := ns % int64(time.Second)
	if frac < 0 {
		frac += int64(time.Second)
	}
	micros := frac / int64(time.Microsecond)
	if micros == 0 {
		return s + "Z"
	}
	fracStr := strconv.FormatInt(micros+1_000_000, 10)[1:]
	for len(fracStr) > 0 && fracStr[len(fracStr)-1] == '0' {
		fracStr = fracStr[:len(fracStr)-1]
	}
	return s + "." + fracStr + "Z"
}

// isAllWhitespace reports whether s consists only of whitespace
// (ASCII tab/newline/CR/space, or any Unicode space) per spec §4.4's
// whitespace-exemption rule.
func isAllWhitespace(s []byte) bool {
	for _, r := range string(s) {
		switch r {
		case '\t', '\n', '\r', ' ':
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
