package filterpath

import (
	"path"
	"strings"
)

// NoEscapeChars safe chars value that disables escaping
const NoEscapeChars = "--"

// DefaultShouldEscape reports whether c is escaped by Normalize.
// Alphanumerics, slash and the unreserved marks - _ . ~ are kept
func DefaultShouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	return !strings.ContainsRune("/-_.~", rune(c))
}

// NewShouldEscape returns DefaultShouldEscape with safeChars kept unescaped.
// NoEscapeChars keeps every char
func NewShouldEscape(safeChars string) func(c byte) bool {
	if safeChars == NoEscapeChars {
		return func(byte) bool { return false }
	}
	var safe [256]bool
	for i := range len(safeChars) {
		safe[safeChars[i]] = true
	}
	return func(c byte) bool {
		return !safe[c] && DefaultShouldEscape(c)
	}
}

// Normalize cleans image into a file path friendly key.
// Escape sets are applied in turn, DefaultShouldEscape if none given
func Normalize(image string, shouldEscape ...func(c byte) bool) string {
	image = strings.Trim(path.Clean(image), "/")
	if len(shouldEscape) == 0 {
		return escape(image, DefaultShouldEscape)
	}
	for _, fn := range shouldEscape {
		image = escape(image, fn)
	}
	return image
}

// escape percent-encodes chars matched by shouldEscape, with space as plus,
// the way url.QueryEscape does
func escape(s string, shouldEscape func(c byte) bool) string {
	first := -1
	for i := range len(s) {
		if shouldEscape(s[i]) {
			first = i
			break
		}
	}
	if first < 0 {
		return s
	}
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:first])
	for i := first; i < len(s); i++ {
		c := s[i]
		switch {
		case !shouldEscape(c):
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}
