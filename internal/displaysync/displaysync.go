// Package displaysync reconciles a TextBuffer snapshot and PromptGeometry
// against a TerminalGrid mirror, producing the minimal ANSI byte sequence
// that brings the grid (and, by extension, the real terminal) into the
// desired state. It generalizes forme.Screen's double-buffered diff/flush
// from a fixed UI tree to an arbitrary edited line.
package displaysync

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/kungfusheep/lineedit/internal/cursormath"
	"github.com/kungfusheep/lineedit/internal/termgrid"
	"github.com/kungfusheep/lineedit/internal/unicodescan"
)

// ErrUnrecoverable is returned once the divergence counter exceeds the
// configured retry budget; the embedder must redraw the prompt too before
// calling Reset.
var ErrUnrecoverable = errors.New("displaysync: unrecoverable, redraw required")

// DefaultMaxDivergence is the default retry budget before surfacing
// ErrUnrecoverable.
const DefaultMaxDivergence = 5

// Intent is the reconciliation hint a command gives DisplaySync, so the
// dispatcher expresses WHAT happened and DisplaySync chooses HOW to render
// it.
type Intent struct {
	Kind     IntentKind
	Pos      int    // byte offset, for InsertAt/DeleteAt
	N        int    // byte count removed, for DeleteAt
	NewBytes []byte // inserted bytes, for InsertAt
}

// IntentKind enumerates the reconciliation strategies.
type IntentKind int

const (
	InsertAt IntentKind = iota
	DeleteAt
	ReplaceAll
	CursorOnly
)

// Sync is the DisplaySync component. It borrows PromptGeometry immutably and
// mutably borrows a termgrid.Grid during Reconcile.
type Sync struct {
	grid       *termgrid.Grid
	prompt     cursormath.PromptGeometry
	promptTop  int
	geom       cursormath.Geometry
	maxDiverge int

	divergeCount  int
	unrecoverable bool
}

// New creates a DisplaySync bound to grid and prompt. promptTop is the
// terminal row the prompt begins on.
func New(grid *termgrid.Grid, prompt cursormath.PromptGeometry, promptTop int) *Sync {
	return &Sync{
		grid:       grid,
		prompt:     prompt,
		promptTop:  promptTop,
		geom:       cursormath.Geometry{Width: grid.Width()},
		maxDiverge: DefaultMaxDivergence,
	}
}

// SetMaxDivergence overrides the default retry budget (for tests/tuning).
func (s *Sync) SetMaxDivergence(n int) { s.maxDiverge = n }

// Unrecoverable reports whether the divergence budget has been exhausted.
func (s *Sync) Unrecoverable() bool { return s.unrecoverable }

// Reset re-arms the sync after the embedder has redrawn the prompt.
func (s *Sync) Reset() {
	s.unrecoverable = false
	s.divergeCount = 0
}

func (s *Sync) contentOrigin() (row, col int) {
	return s.promptTop + s.prompt.Height - 1, s.prompt.LastLineWidth
}

// Reconcile computes and emits the write plan for the given buffer content
// and cursor byte offset, applies it to the mirrored grid, and runs the
// post-write divergence check.
func (s *Sync) Reconcile(content []byte, cursorByte int, intent Intent) ([]byte, error) {
	if s.unrecoverable {
		return nil, ErrUnrecoverable
	}

	var plan []byte
	switch intent.Kind {
	case InsertAt:
		plan = s.planInsert(content, cursorByte, intent)
	case DeleteAt:
		plan = s.planDelete(content, cursorByte, intent)
	case CursorOnly:
		plan = s.planCursorOnly(content, cursorByte)
	default:
		plan = s.planFullRedraw(content, cursorByte)
	}

	s.grid.Write(plan)

	if !s.verify(content) {
		s.divergeCount++
		if s.divergeCount > s.maxDiverge {
			s.unrecoverable = true
			return plan, ErrUnrecoverable
		}
		full := s.planFullRedraw(content, cursorByte)
		s.grid.Write(full)
		if !s.verify(content) {
			// still diverged after a full redraw; count it but don't spin
			// forever within one call.
			return append(plan, full...), nil
		}
		return append(plan, full...), nil
	}
	s.divergeCount = 0
	return plan, nil
}

// planInsert implements the InsertAt strategy: if the insertion and
// everything to its right fits in the current row without wrapping, emit a
// targeted cursor-to-col, the new bytes, then the remaining tail, then
// reposition the cursor. Otherwise escalate to a full redraw.
func (s *Sync) planInsert(content []byte, cursorByte int, intent Intent) []byte {
	row, _ := s.contentOrigin()
	before := content[:intent.Pos]
	pos := cursormath.PositionForOffset(before, s.geom, s.prompt.LastLineWidth, row, len(before))
	if !pos.Valid || pos.AtWrapBoundary {
		return s.planFullRedraw(content, cursorByte)
	}

	tail := content[intent.Pos:]
	tailWidth := unicodescan.DisplayWidthOfSlice(tail)
	if pos.RelCol+tailWidth > s.geom.Width {
		return s.planFullRedraw(content, cursorByte)
	}

	var plan []byte
	plan = append(plan, cup(pos.AbsRow, pos.AbsCol)...)
	plan = append(plan, tail...)
	plan = append(plan, el(0)...)
	plan = append(plan, s.cursorTo(content, cursorByte)...)
	return plan
}

// planDelete mirrors planInsert: targeted rewrite of the tail with a
// trailing clear-to-eol, escalating to a full redraw if the delete crossed
// a row boundary.
func (s *Sync) planDelete(content []byte, cursorByte int, intent Intent) []byte {
	row, _ := s.contentOrigin()
	before := content[:intent.Pos]
	pos := cursormath.PositionForOffset(before, s.geom, s.prompt.LastLineWidth, row, len(before))
	if !pos.Valid || pos.AtWrapBoundary {
		return s.planFullRedraw(content, cursorByte)
	}

	var plan []byte
	plan = append(plan, cup(pos.AbsRow, pos.AbsCol)...)
	plan = append(plan, content[intent.Pos:]...)
	plan = append(plan, el(0)...)
	plan = append(plan, s.cursorTo(content, cursorByte)...)
	return plan
}

// planCursorOnly emits absolute cursor positioning only.
func (s *Sync) planCursorOnly(content []byte, cursorByte int) []byte {
	return s.cursorTo(content, cursorByte)
}

// planFullRedraw is the safe escalation: position to content start, clear
// to end of screen, emit content, reposition cursor.
func (s *Sync) planFullRedraw(content []byte, cursorByte int) []byte {
	row, col := s.contentOrigin()
	var plan []byte
	plan = append(plan, cup(row, col)...)
	plan = append(plan, ed(0)...)
	plan = append(plan, content...)
	plan = append(plan, s.cursorTo(content, cursorByte)...)
	return plan
}

func (s *Sync) cursorTo(content []byte, cursorByte int) []byte {
	row, _ := s.contentOrigin()
	pos := cursormath.PositionForOffset(content, s.geom, s.prompt.LastLineWidth, row, cursorByte)
	if !pos.Valid {
		return nil
	}
	return cup(pos.AbsRow, pos.AbsCol)
}

// verify re-derives the desired grid state by replaying content through a
// scratch grid from the same content origin, then compares a hash of the
// content region cell-for-cell against the mirrored grid. Using termgrid's
// own interpreter to build the desired side means both hashes walk
// identical rows (same wrapping, same wide-rune trail cells, same trailing
// blanks), so a converged grid always hashes equal.
func (s *Sync) verify(content []byte) bool {
	row, col := s.contentOrigin()
	lines := cursormath.LinesOccupied(content, s.geom, s.prompt.LastLineWidth)

	scratch := termgrid.New(s.grid.Width(), s.grid.Height())
	scratch.Write(cup(row, col))
	scratch.Write(content)

	return hashRegion(s.grid, row, col, lines) == hashRegion(scratch, row, col, lines)
}

func hashRegion(g *termgrid.Grid, row, col, lines int) uint64 {
	h := fnv.New64a()
	for r := 0; r < lines && row+r < g.Height(); r++ {
		startCol := 0
		if r == 0 {
			startCol = col
		}
		for c := startCol; c < g.Width(); c++ {
			cell := g.CellAt(row+r, c)
			if cell.WidthClass == termgrid.DoubleTrail {
				continue
			}
			fmt.Fprintf(h, "%c|", cell.Ch)
		}
	}
	return h.Sum64()
}

// ANSI vocabulary — the only sequences this component ever emits. row/col
// are 0-based; the wire protocol is 1-based.
func cup(row, col int) []byte { return []byte(fmt.Sprintf("\x1b[%d;%dH", row+1, col+1)) }
func el(mode int) []byte      { return []byte(fmt.Sprintf("\x1b[%dK", mode)) }
func ed(mode int) []byte      { return []byte(fmt.Sprintf("\x1b[%dJ", mode)) }
