// Package termgrid mirrors what a VT100-family terminal would display given
// a stream of bytes: a cell grid plus cursor, updated incrementally by
// Write. It is a back-buffer of cells reconciled against the real terminal,
// driven by the output itself: it interprets the very bytes
// about to be sent to the terminal so DisplaySync can detect divergence
// afterwards.
package termgrid

import (
	"github.com/kungfusheep/lineedit/internal/unicodescan"
)

// WidthClass classifies a DisplayCell for double-wide-rune bookkeeping.
type WidthClass uint8

const (
	Single WidthClass = iota
	DoubleLead
	DoubleTrail
	ZeroWidth
)

// DisplayCell is one terminal character cell.
type DisplayCell struct {
	Ch         rune // 0 means cleared/empty
	WidthClass WidthClass
	Dirty      bool
}

// Cursor is a 0-based (row, col) pair. Col may equal Width transiently,
// representing "hanging at end of line" before a wrap.
type Cursor struct {
	Row, Col int
}

// Grid is the terminal mirror: dimensions, cell contents, and cursor.
type Grid struct {
	width, height int
	cells         []DisplayCell
	cursor        Cursor
	generation    uint64
}

// New creates a grid of the given dimensions, all cells empty.
func New(width, height int) *Grid {
	g := &Grid{width: width, height: height}
	g.cells = make([]DisplayCell, width*height)
	return g
}

func (g *Grid) index(row, col int) int { return row*g.width + col }

// Width, Height return the grid dimensions.
func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Cursor returns the current mirrored cursor position.
func (g *Grid) Cursor() Cursor { return g.cursor }

// Generation returns the write-plan generation counter.
func (g *Grid) Generation() uint64 { return g.generation }

// CellAt returns the cell at (row, col), or a zero DisplayCell if out of
// bounds.
func (g *Grid) CellAt(row, col int) DisplayCell {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return DisplayCell{}
	}
	return g.cells[g.index(row, col)]
}

func (g *Grid) setCell(row, col int, c DisplayCell) {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return
	}
	c.Dirty = true
	g.cells[g.index(row, col)] = c
}

// Resize preserves surviving cells (by row/col intersection) and clamps the
// cursor into the new bounds, reallocating rather than losing unrelated
// state.
func (g *Grid) Resize(width, height int) {
	if width == g.width && height == g.height {
		return
	}
	next := make([]DisplayCell, width*height)
	minW, minH := width, height
	if g.width < minW {
		minW = g.width
	}
	if g.height < minH {
		minH = g.height
	}
	for row := 0; row < minH; row++ {
		for col := 0; col < minW; col++ {
			next[row*width+col] = g.cells[row*g.width+col]
		}
	}
	g.cells = next
	g.width = width
	g.height = height
	if g.cursor.Row >= height {
		g.cursor.Row = height - 1
	}
	if g.cursor.Row < 0 {
		g.cursor.Row = 0
	}
	if g.cursor.Col > width {
		g.cursor.Col = width
	}
}

// Write scans bytes and mutates the grid to match what a VT100-compliant
// terminal fed the same bytes would display. Unknown CSI sequences are
// consumed but do not mutate cells. Every successful write increments
// Generation.
func (g *Grid) Write(b []byte) {
	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c == 0x1b && i+1 < len(b) && b[i+1] == '[':
			consumed := g.handleCSI(b[i+2:])
			i += 2 + consumed
		case c == '\n':
			g.cursor.Row++
			g.clampCursorRow()
			i++
		case c == '\r':
			g.cursor.Col = 0
			i++
		case c == '\b':
			if g.cursor.Col > 0 {
				g.cursor.Col--
			}
			i++
		default:
			r, size, err := unicodescan.DecodeAt(b, i)
			if err != nil {
				size = 1
			}
			g.putRune(r)
			i += size
		}
	}
	g.generation++
}

func (g *Grid) clampCursorRow() {
	if g.cursor.Row >= g.height {
		g.cursor.Row = g.height - 1
	}
	if g.cursor.Row < 0 {
		g.cursor.Row = 0
	}
}

// putRune places r at the cursor, advancing the cursor by its display
// width and wrapping at the right edge. Width-2 runes that would straddle
// the edge are pushed whole to the next row, leaving a blank cell behind.
func (g *Grid) putRune(r rune) {
	w := unicodescan.DisplayWidth(r)
	if w == 0 {
		// Zero-width: attach to the cell before the cursor without advancing.
		if g.cursor.Col > 0 {
			g.setCell(g.cursor.Row, g.cursor.Col-1, DisplayCell{Ch: r, WidthClass: ZeroWidth})
		}
		return
	}
	if w == 2 && g.cursor.Col+1 >= g.width {
		// Straddles the edge: blank the remaining cell, wrap whole.
		if g.cursor.Col < g.width {
			g.setCell(g.cursor.Row, g.cursor.Col, DisplayCell{})
		}
		g.cursor.Row++
		g.cursor.Col = 0
		g.clampCursorRow()
	}
	if g.cursor.Col >= g.width {
		g.cursor.Row++
		g.cursor.Col = 0
		g.clampCursorRow()
	}
	g.setCell(g.cursor.Row, g.cursor.Col, DisplayCell{Ch: r, WidthClass: Single})
	if w == 2 {
		g.setCell(g.cursor.Row, g.cursor.Col+1, DisplayCell{Ch: 0, WidthClass: DoubleTrail})
		g.cells[g.index(g.cursor.Row, g.cursor.Col)].WidthClass = DoubleLead
		g.cursor.Col += 2
	} else {
		g.cursor.Col++
	}
}

// handleCSI parses a CSI sequence (the bytes after ESC '[') and applies it.
// Returns the number of bytes consumed, including the final byte.
func (g *Grid) handleCSI(rest []byte) int {
	j := 0
	for j < len(rest) && !isCSIFinal(rest[j]) {
		j++
	}
	if j >= len(rest) {
		return j // truncated sequence; consume what's there
	}
	params := rest[:j]
	final := rest[j]
	consumed := j + 1

	nums := parseParams(params)
	switch final {
	case 'A':
		g.cursor.Row -= orDefault(nums, 0, 1)
		g.clampCursorRow()
	case 'B':
		g.cursor.Row += orDefault(nums, 0, 1)
		g.clampCursorRow()
	case 'C':
		g.cursor.Col += orDefault(nums, 0, 1)
		g.clampCursorCol()
	case 'D':
		g.cursor.Col -= orDefault(nums, 0, 1)
		g.clampCursorCol()
	case 'G':
		g.cursor.Col = orDefault(nums, 0, 1) - 1
		g.clampCursorCol()
	case 'H', 'f':
		row := orDefault(nums, 0, 1)
		col := orDefault(nums, 1, 1)
		g.cursor.Row = row - 1
		g.cursor.Col = col - 1
		g.clampCursorRow()
		g.clampCursorCol()
	case 'K':
		g.eraseLine(orDefault(nums, 0, 0))
	case 'J':
		g.eraseScreen(orDefault(nums, 0, 0))
	default:
		// Unknown/unsupported sequence: consumed, no mutation.
	}
	return consumed
}

func (g *Grid) clampCursorCol() {
	if g.cursor.Col < 0 {
		g.cursor.Col = 0
	}
	if g.cursor.Col > g.width {
		g.cursor.Col = g.width
	}
}

// eraseLine implements CSI K: 0 = cursor..end, 1 = start..cursor, 2 = whole line.
func (g *Grid) eraseLine(mode int) {
	row := g.cursor.Row
	switch mode {
	case 1:
		for col := 0; col <= g.cursor.Col && col < g.width; col++ {
			g.setCell(row, col, DisplayCell{})
		}
	case 2:
		for col := 0; col < g.width; col++ {
			g.setCell(row, col, DisplayCell{})
		}
	default:
		for col := g.cursor.Col; col < g.width; col++ {
			g.setCell(row, col, DisplayCell{})
		}
	}
}

// eraseScreen implements CSI J: 0 = cursor..end of screen, 2 = whole screen.
func (g *Grid) eraseScreen(mode int) {
	switch mode {
	case 2:
		for row := 0; row < g.height; row++ {
			for col := 0; col < g.width; col++ {
				g.setCell(row, col, DisplayCell{})
			}
		}
	default:
		g.eraseLine(0)
		for row := g.cursor.Row + 1; row < g.height; row++ {
			for col := 0; col < g.width; col++ {
				g.setCell(row, col, DisplayCell{})
			}
		}
	}
}

func isCSIFinal(b byte) bool { return b >= '@' && b <= '~' }

func parseParams(b []byte) []int {
	if len(b) == 0 {
		return nil
	}
	var nums []int
	cur := 0
	has := false
	for _, c := range b {
		if c == ';' {
			if has {
				nums = append(nums, cur)
			} else {
				nums = append(nums, 0)
			}
			cur = 0
			has = false
			continue
		}
		if c >= '0' && c <= '9' {
			cur = cur*10 + int(c-'0')
			has = true
		}
	}
	if has {
		nums = append(nums, cur)
	} else if len(nums) == 0 {
		return nil
	} else {
		nums = append(nums, 0)
	}
	return nums
}

func orDefault(nums []int, idx, def int) int {
	if idx < 0 || idx >= len(nums) {
		return def
	}
	if nums[idx] == 0 {
		return def
	}
	return nums[idx]
}
