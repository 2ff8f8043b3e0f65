// Package cursormath maps between buffer byte offsets and terminal
// (row, col) positions relative to a prompt. Pure functions only — no I/O,
// no mutation of inputs — so they can be property-tested directly.
package cursormath

import (
	"github.com/kungfusheep/lineedit/internal/unicodescan"
)

// Geometry describes the terminal's usable width for wrapping math. It
// carries no height: the position functions wrap against the width only.
type Geometry struct {
	Width int
}

// PromptGeometry describes the prompt's footprint, an external, validated
// input. Height is the number of terminal rows the prompt occupies (>= 1).
// LastLineWidth is <= Width unless the prompt itself wrapped, in which case
// Width is the longest wrapped line and LastLineWidth is the final column.
type PromptGeometry struct {
	Width         int
	Height        int
	LastLineWidth int
}

// Validate reports whether the geometry is well-formed.
func (p PromptGeometry) Validate() bool {
	if p.Width < 0 || p.Height < 1 || p.LastLineWidth < 0 {
		return false
	}
	return true
}

// Position is a computed (row, col) pair, both absolute (from the terminal
// origin) and relative (from the prompt's last-line start), plus whether
// this position sits exactly at a wrap boundary.
type Position struct {
	AbsRow, AbsCol int
	RelRow, RelCol int
	AtWrapBoundary bool
	Valid          bool
}

const defaultTabWidth = 8

// TabWidth is the configurable soft rule for tab expansion: min(TabWidth,
// width - currentCol). Exported as a var (not const) so EditorConfig can
// override it; default is 8.
var TabWidth = defaultTabWidth

// PositionForOffset computes the CursorPosition for byteOffset within
// content, given the terminal width and the prompt's last-line width
// (promptTop is the terminal row the prompt's last line starts on).
func PositionForOffset(content []byte, g Geometry, promptLastLineWidth, promptTop, byteOffset int) Position {
	if byteOffset < 0 || byteOffset > len(content) {
		return Position{Valid: false}
	}
	if g.Width <= 0 {
		return Position{Valid: false}
	}
	total := promptLastLineWidth + displayWidthWithTabs(content[:byteOffset], g.Width, promptLastLineWidth)

	var relRow, relCol int
	atWrap := false
	if total > 0 && total%g.Width == 0 {
		relRow = total / g.Width
		relCol = 0
		atWrap = true
	} else {
		relRow = total / g.Width
		relCol = total % g.Width
	}

	return Position{
		AbsRow:         promptTop + relRow,
		AbsCol:         relCol,
		RelRow:         relRow,
		RelCol:         relCol,
		AtWrapBoundary: atWrap,
		Valid:          true,
	}
}

// displayWidthWithTabs sums display width of content, expanding tab to
// min(TabWidth, width-currentCol) as it goes — clamp-to-end: a tab never
// forces a wrap.
func displayWidthWithTabs(content []byte, width, startCol int) int {
	col := startCol % width
	total := 0
	i := 0
	for i < len(content) {
		if content[i] == '\t' {
			pad := TabWidth
			if width-col < pad {
				pad = width - col
			}
			if pad < 1 {
				pad = 1
			}
			total += pad
			col = (col + pad) % width
			i++
			continue
		}
		r, size, err := unicodescan.DecodeAt(content, i)
		if err != nil {
			total++
			col = (col + 1) % width
			i++
			continue
		}
		w := unicodescan.DisplayWidth(r)
		if w == 2 && col+2 > width {
			// A double-wide codepoint that would straddle the right edge is
			// pushed entirely to the next row; the skipped cell is blank.
			pad := width - col
			total += pad
			col = 0
		}
		total += w
		col = (col + w) % width
		i += size
	}
	return total
}

// OffsetForPosition is the inverse of PositionForOffset: given a target
// (row, col) relative to the prompt, it scans forward through content
// summing display widths until reaching the target column, returning the
// byte offset. When AtWrapBoundary && RelCol == 0, the target is
// interpreted as the end of the previous row. Returns false if content
// does not contain such a position (never happens for valid geometry;
// out-of-range targets clamp to len(content)).
func OffsetForPosition(content []byte, g Geometry, promptLastLineWidth int, pos Position) (int, bool) {
	if g.Width <= 0 {
		return 0, false
	}
	var target int
	if pos.AtWrapBoundary && pos.RelCol == 0 {
		target = pos.RelRow * g.Width
	} else {
		target = pos.RelRow*g.Width + pos.RelCol
	}
	target -= promptLastLineWidth
	if target < 0 {
		target = 0
	}

	col := promptLastLineWidth % g.Width
	walked := 0
	i := 0
	for i < len(content) {
		if walked >= target {
			break
		}
		r, size, err := unicodescan.DecodeAt(content, i)
		w := 1
		if err == nil {
			w = unicodescan.DisplayWidth(r)
			if r == '\t' {
				pad := TabWidth
				if g.Width-col < pad {
					pad = g.Width - col
				}
				if pad < 1 {
					pad = 1
				}
				w = pad
			}
		}
		if w == 2 && col+2 > g.Width {
			walked += g.Width - col
			col = 0
			if walked >= target {
				break
			}
		}
		walked += w
		col = (col + w) % g.Width
		if size < 1 {
			size = 1
		}
		i += size
	}
	if i > len(content) {
		i = len(content)
	}
	return i, true
}

// LinesOccupied returns how many terminal rows content needs, given the
// prompt's last-line width as the starting column. Minimum 1.
func LinesOccupied(content []byte, g Geometry, promptLastLineWidth int) int {
	if g.Width <= 0 {
		return 1
	}
	total := promptLastLineWidth + displayWidthWithTabs(content, g.Width, promptLastLineWidth)
	lines := (total + g.Width - 1) / g.Width
	if lines < 1 {
		lines = 1
	}
	return lines
}
