package ingest

// truncateUTF8 returns a prefix of b of length at most maxLen that is
// valid UTF-8 whenever b is valid UTF-8, plus whether it cut anything
// off. It never splits a multi-byte rune.
//
// Algorithm (spec §4.2): shrink to maxLen; if the byte immediately
// after the cut point is a UTF-8 continuation byte, the cut landed
// inside a multi-byte sequence, so back up to that sequence's lead
// byte and drop the whole incomplete rune. If the byte after the cut
// point is not a continuation byte, the cut already lands on a rune
// boundary and nothing further needs trimming.
func truncateUTF8(b []byte, maxLen int) ([]byte, bool) {
	n := len(b)
	if maxLen < 0 {
		maxLen = 0
	}
	if n <= maxLen {
		// Already fits; nothing was cut, so no boundary to repair.
		return b, false
	}
	length := maxLen
	for length > 0 && isContinuationByte(b[length]) {
		length--
	}
	return b[:length], length < n
}

func isContinuationByte(c byte) bool {
	return c&0xC0 == 0x80
}

// TruncateUTF8 is the exported form of truncateUTF8, for source
// adapters outside this package that need to bound the size of text
// (e.g. an event log excerpt) without splitting a multi-byte rune.
func TruncateUTF8(b []byte, maxLen int) ([]byte, bool) {
	return truncateUTF8(b, maxLen)
}
