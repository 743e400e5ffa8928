package ingest

import "testing"

func TestRenderFloat64(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{1.5, "1.5"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1e16, "1e16"},
		{9999999999999998, "9999999999999998"},
	}
	for _, c := range cases {
		if got := renderFloat64(c.in); got != c.want {
			t.Errorf("renderFloat64(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsAllWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n\r ", true},
		{"  x", false},
		{"x", false},
	}
	for _, c := range cases {
		if got := isAllWhitespace([]byte(c.in)); got != c.want {
			t.Errorf("isAllWhitespace(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRenderTimestamp(t *testing.T) {
	// 2021-01-02T03:04:05Z, exactly on the second.
	ns := int64(1609556645) * 1_000_000_000
	if got := renderTimestamp(ns, false); got != "2021-01-02T03:04:05Z" {
		t.Errorf("renderTimestamp = %q", got)
	}
	if got := renderTimestamp(ns, true); got != "2021-01-02" {
		t.Errorf("renderTimestamp(dateOnly) = %q", got)
	}
}

func TestRenderTimestampTruncatesToMicroseconds(t *testing.T) {
	// 2021-01-02T03:04:05.123456789Z: the nanosecond remainder must be
	// truncated to 6 fractional digits, not rendered in full.
	ns := int64(1609556645)*1_000_000_000 + 123456789
	if got := renderTimestamp(ns, false); got != "2021-01-02T03:04:05.123456Z" {
		t.Errorf("renderTimestamp = %q, want truncation to microseconds", got)
	}
}
