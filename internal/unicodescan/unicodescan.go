// Package unicodescan provides UTF-8 decoding, codepoint display width and
// boundary navigation shared by the text buffer and the cursor math. It is
// pure and allocation-free on its hot paths, leaning on
// github.com/mattn/go-runewidth for East Asian width tables rather than
// hand-rolling them.
package unicodescan

import (
	"errors"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// ErrInvalidUTF8 is returned by DecodeAt when the byte at i does not begin a
// well-formed UTF-8 sequence. Callers must not store invalid UTF-8; the error
// exists so a caller can treat the byte as a single-byte codepoint of width 1
// without corrupting the boundary invariant.
var ErrInvalidUTF8 = errors.New("unicodescan: invalid utf8 at offset")

// DecodeAt decodes one UTF-8 codepoint starting at byte i. On success it
// returns the codepoint and the number of bytes it occupies. On invalid
// input it returns (utf8.RuneError, 1, ErrInvalidUTF8) — the caller's
// contract is to treat this as a single byte of width 1 and never persist it.
func DecodeAt(b []byte, i int) (rune, int, error) {
	if i < 0 || i >= len(b) {
		return utf8.RuneError, 0, ErrInvalidUTF8
	}
	r, size := utf8.DecodeRune(b[i:])
	if r == utf8.RuneError && size <= 1 {
		return utf8.RuneError, 1, ErrInvalidUTF8
	}
	return r, size, nil
}

// PrevBoundary returns the start offset of the codepoint immediately
// preceding byte i. If i is 0 it returns 0.
func PrevBoundary(b []byte, i int) int {
	if i <= 0 {
		return 0
	}
	if i > len(b) {
		i = len(b)
	}
	j := i - 1
	for j > 0 && isUTF8Continuation(b[j]) {
		j--
	}
	return j
}

// NextBoundary returns the start offset of the codepoint immediately
// following byte i. If i is at or beyond len(b) it returns len(b).
func NextBoundary(b []byte, i int) int {
	if i >= len(b) {
		return len(b)
	}
	_, size, _ := DecodeAt(b, i)
	if size < 1 {
		size = 1
	}
	next := i + size
	if next > len(b) {
		next = len(b)
	}
	return next
}

func isUTF8Continuation(c byte) bool {
	return c&0xC0 == 0x80
}

// DisplayWidth returns the number of terminal columns a codepoint occupies:
// 0 for combining marks and other zero-width codepoints, 1 for most
// printable codepoints, 2 for wide codepoints (CJK ideographs, Hangul
// syllables, wide emoji blocks). Tab and other control characters are
// reported as width 0; callers expand tab themselves per CursorMath's rule.
func DisplayWidth(r rune) int {
	if r == '\t' || r < 0x20 || r == 0x7f {
		return 0
	}
	return runewidth.RuneWidth(r)
}

// IsZeroWidth reports whether r is a combining mark or other codepoint that
// occupies no terminal cell of its own — used by the text buffer's
// left/right cursor movement to treat a zero-width codepoint as part of the
// codepoint immediately before it.
func IsZeroWidth(r rune) bool {
	return DisplayWidth(r) == 0 && r >= 0x20
}

// IsControl reports whether r is a C0 or C1 control codepoint that a text
// buffer must never accept from a normal keystroke (ESC-driven CSI
// sequences, NUL, BEL, and the like). Tab is carved out: callers expand it
// as padding rather than treating it as decoration to block.
func IsControl(r rune) bool {
	if r == '\t' {
		return false
	}
	if r < 0x20 || r == 0x7f {
		return true
	}
	return r >= 0x80 && r <= 0x9f
}

// DisplayWidthOfSlice sums the display width of every codepoint in b,
// treating ANSI CSI sequences (ESC '[' ... final byte in '@'..'~') as
// width 0 so prompt/content byte streams that embed color codes measure
// correctly.
func DisplayWidthOfSlice(b []byte) int {
	total := 0
	i := 0
	for i < len(b) {
		if b[i] == 0x1b && i+1 < len(b) && b[i+1] == '[' {
			j := i + 2
			for j < len(b) && !isCSIFinal(b[j]) {
				j++
			}
			if j < len(b) {
				j++ // consume the final byte
			}
			i = j
			continue
		}
		r, size, err := DecodeAt(b, i)
		if err != nil {
			total++
			i++
			continue
		}
		total += DisplayWidth(r)
		i += size
	}
	return total
}

func isCSIFinal(b byte) bool {
	return b >= '@' && b <= '~'
}

// CountCodepoints returns the number of UTF-8 codepoints in b.
func CountCodepoints(b []byte) int {
	return utf8.RuneCount(b)
}

// Validate reports whether b is well-formed UTF-8.
func Validate(b []byte) bool {
	return utf8.Valid(b)
}

// GraphemeIsCombining reports whether r would be folded into the preceding
// grapheme cluster by a terminal's rendering, that is, whether a codepoint
// immediately following prev renders as trailing it rather than as its own
// cell. Uses
// rivo/uniseg's grapheme cluster properties, already pulled in transitively
// by the charmbracelet rendering stack.
func GraphemeIsCombining(prev, r rune) bool {
	pair := string(prev) + string(r)
	cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(pair, -1)
	return rest == "" && utf8.RuneCountInString(cluster) == 2
}
