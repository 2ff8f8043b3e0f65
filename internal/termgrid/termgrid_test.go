package termgrid

import "testing"

func TestWritePrintable(t *testing.T) {
	g := New(10, 5)
	g.Write([]byte("hi"))
	if g.Cursor() != (Cursor{0, 2}) {
		t.Fatalf("cursor=%+v, want (0,2)", g.Cursor())
	}
	if g.CellAt(0, 0).Ch != 'h' || g.CellAt(0, 1).Ch != 'i' {
		t.Fatalf("cells not written correctly")
	}
}

func TestWriteWideRune(t *testing.T) {
	g := New(10, 5)
	g.Write([]byte("世"))
	if g.CellAt(0, 0).WidthClass != DoubleLead {
		t.Fatalf("expected DoubleLead")
	}
	if g.CellAt(0, 1).WidthClass != DoubleTrail {
		t.Fatalf("expected DoubleTrail")
	}
	if g.Cursor().Col != 2 {
		t.Fatalf("cursor col=%d, want 2", g.Cursor().Col)
	}
}

func TestWideRuneEdgeWrap(t *testing.T) {
	g := New(5, 5)
	g.Write([]byte("abcd"))
	g.Write([]byte("世")) // would straddle col 4/5
	if g.Cursor().Row != 1 {
		t.Fatalf("expected wrap to row 1, got %+v", g.Cursor())
	}
	if g.CellAt(0, 4).Ch != 0 {
		t.Fatalf("expected blank cell at straddle point")
	}
}

func TestCRLFBackspace(t *testing.T) {
	g := New(10, 5)
	g.Write([]byte("ab\rcd"))
	if g.CellAt(0, 0).Ch != 'c' || g.CellAt(0, 1).Ch != 'd' {
		t.Fatalf("CR should reset column to 0")
	}
	g.Write([]byte("\n"))
	if g.Cursor().Row != 1 {
		t.Fatalf("LF should advance row without CR")
	}
	g.Write([]byte("x\b"))
	if g.Cursor().Col != 2 {
		t.Fatalf("backspace should move col left without clearing, got col=%d", g.Cursor().Col)
	}
	if g.CellAt(1, 2).Ch != 'x' {
		t.Fatalf("backspace must not clear the cell")
	}
}

func TestCSICursorMove(t *testing.T) {
	g := New(10, 10)
	g.Write([]byte("\x1b[5;3H"))
	if g.Cursor() != (Cursor{4, 2}) {
		t.Fatalf("cursor=%+v, want (4,2) (1-based -> 0-based)", g.Cursor())
	}
	g.Write([]byte("\x1b[2A"))
	if g.Cursor().Row != 2 {
		t.Fatalf("expected row 2 after moving up 2, got %d", g.Cursor().Row)
	}
}

func TestEraseLine(t *testing.T) {
	g := New(10, 5)
	g.Write([]byte("abcdefgh"))
	g.Write([]byte("\x1b[3G")) // move to col 3 (1-based)
	g.Write([]byte("\x1b[0K")) // erase to end of line
	if g.CellAt(0, 1).Ch != 'b' {
		t.Fatalf("cell before cursor must survive erase-to-end")
	}
	if g.CellAt(0, 2).Ch != 0 {
		t.Fatalf("cell at/after cursor must be cleared")
	}
}

func TestEraseScreen(t *testing.T) {
	g := New(5, 3)
	g.Write([]byte("abcde\r\nfghij\r\nklmno"))
	g.Write([]byte("\x1b[2J"))
	for row := 0; row < 3; row++ {
		for col := 0; col < 5; col++ {
			if g.CellAt(row, col).Ch != 0 {
				t.Fatalf("expected full screen clear, found %q at (%d,%d)", g.CellAt(row, col).Ch, row, col)
			}
		}
	}
}

func TestUnknownSequenceConsumedNotMutating(t *testing.T) {
	g := New(10, 5)
	g.Write([]byte("a"))
	before := g.CellAt(0, 1)
	g.Write([]byte("\x1b[?25l")) // not in our handled set -> default case
	after := g.CellAt(0, 1)
	if before != after {
		t.Fatalf("unknown sequence must not mutate cells")
	}
}

func TestResizePreservesCells(t *testing.T) {
	g := New(10, 5)
	g.Write([]byte("hello"))
	g.Resize(20, 10)
	if g.CellAt(0, 0).Ch != 'h' {
		t.Fatalf("resize must preserve surviving cells")
	}
	if g.Width() != 20 || g.Height() != 10 {
		t.Fatalf("resize didn't update dimensions")
	}
}

func TestGenerationIncrements(t *testing.T) {
	g := New(10, 5)
	g0 := g.Generation()
	g.Write([]byte("x"))
	if g.Generation() != g0+1 {
		t.Fatalf("generation didn't increment")
	}
}
