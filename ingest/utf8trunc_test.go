package ingest

import "testing"

func TestTruncateUTF8(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		maxLen    int
		want      string
		truncated bool
	}{
		{"exact fit keeps trailing multibyte rune", "AA¢", 4, "AA¢", false},
		{"over length drops partial trailing rune", "AAA¢", 3, "AAA", true},
		{"ascii no truncation needed", "hello", 10, "hello", false},
		{"ascii truncation", "hello world", 5, "hello", true},
		{"zero max", "abc", 0, "", true},
		{"cut lands exactly on a rune boundary keeps the complete rune", "éé", 2, "é", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, truncated := truncateUTF8([]byte(c.in), c.maxLen)
			if string(got) != c.want || truncated != c.truncated {
				t.Fatalf("truncateUTF8(%q, %d) = (%q, %v), want (%q, %v)",
					c.in, c.maxLen, got, truncated, c.want, c.truncated)
			}
		})
	}
}
