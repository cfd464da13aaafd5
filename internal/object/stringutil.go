package object

import "unicode/utf8"

// NewString constructs a String object from content and its precomputed
// hash without interning it. Interning (content -> canonical *String) is
// done by StringTable.Intern in intern.go.
func NewString(s string, hash uint64) *String {
	return &String{Value: s, Hash: hash}
}

// DecodeRuneAt decodes the rune starting at byte offset i in s, returning
// the rune and its width in bytes (0 if i is out of range).
func DecodeRuneAt(s string, i int) (rune, int) {
	if i < 0 || i >= len(s) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s[i:])
}

// EncodeRune appends the UTF-8 encoding of r to buf's end, returning the
// extended slice.
func EncodeRune(buf []byte, r rune) []byte {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	return append(buf, tmp[:n]...)
}

// RuneCount returns the number of Unicode code points in s, the same count
// the builtin `String.length` method reports.
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}
