package lineedit

import (
	"errors"
	"io"
	"testing"

	"github.com/kungfusheep/lineedit/internal/history"
)

type scriptedTerm struct {
	events []KeyEvent
	i      int
	writes [][]byte
	width  int
	height int
}

func (s *scriptedTerm) ReadEvent() (KeyEvent, error) {
	if s.i >= len(s.events) {
		return KeyEvent{}, io.EOF
	}
	ev := s.events[s.i]
	s.i++
	return ev, nil
}

func (s *scriptedTerm) Write(p []byte) error {
	cp := append([]byte{}, p...)
	s.writes = append(s.writes, cp)
	return nil
}

func (s *scriptedTerm) Geometry() (int, int, error) { return s.width, s.height, nil }
func (s *scriptedTerm) QueryCursor() (int, int, bool) { return 0, 0, false }

func runeEvents(s string) []KeyEvent {
	var evs []KeyEvent
	for _, r := range s {
		evs = append(evs, KeyEvent{Rune: r})
	}
	return evs
}

func newTestCore(t *testing.T, term *scriptedTerm, opts ...Option) *Core {
	t.Helper()
	prompt := PromptGeometry{Width: 2, Height: 1, LastLineWidth: 2}
	c, err := New(term, prompt, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestReadLineAcceptsTypedLine(t *testing.T) {
	events := append(runeEvents("hi"), KeyEvent{Name: "Enter"})
	term := &scriptedTerm{events: events, width: 40, height: 5}
	c := newTestCore(t, term)

	res := c.ReadLine()
	if res.Kind != LineAccepted || res.Line != "hi" {
		t.Fatalf("got %+v", res)
	}
	if len(term.writes) == 0 {
		t.Fatal("expected at least one write to the terminal")
	}
}

func TestReadLineCancelled(t *testing.T) {
	events := append(runeEvents("abc"), KeyEvent{Name: "Esc"})
	term := &scriptedTerm{events: events, width: 40, height: 5}
	c := newTestCore(t, term)

	res := c.ReadLine()
	if res.Kind != LineCancelled {
		t.Fatalf("got %+v", res)
	}
}

func TestReadLineEof(t *testing.T) {
	term := &scriptedTerm{width: 40, height: 5}
	c := newTestCore(t, term)

	res := c.ReadLine()
	if res.Kind != LineEof {
		t.Fatalf("got %+v", res)
	}
}

func TestReadLineRecordsHistory(t *testing.T) {
	events := append(runeEvents("ls"), KeyEvent{Name: "Enter"})
	term := &scriptedTerm{events: events, width: 40, height: 5}
	c := newTestCore(t, term, WithHistory(history.DefaultConfig()))

	res := c.ReadLine()
	if res.Kind != LineAccepted {
		t.Fatalf("got %+v", res)
	}
	e, ok := c.History().Get(0)
	if !ok || e.Line != "ls" {
		t.Fatalf("expected accepted line recorded in history, got %+v, %v", e, ok)
	}
}

func TestReadLineIgnoresUnboundKey(t *testing.T) {
	// Alt+x has no binding and should be skipped rather than treated as
	// an error or inserted as text.
	events := append([]KeyEvent{{Rune: 'x', Alt: true}}, append(runeEvents("y"), KeyEvent{Name: "Enter"})...)
	term := &scriptedTerm{events: events, width: 40, height: 5}
	c := newTestCore(t, term)

	res := c.ReadLine()
	if res.Kind != LineAccepted || res.Line != "y" {
		t.Fatalf("got %+v", res)
	}
}

func TestNewRejectsInvalidPromptGeometry(t *testing.T) {
	term := &scriptedTerm{width: 40, height: 5}
	_, err := New(term, PromptGeometry{Width: 2, Height: 0, LastLineWidth: 2})
	if err == nil {
		t.Fatal("expected error for Height < 1")
	}
}

func TestNewSurfacesGeometryError(t *testing.T) {
	term := &failingGeometryTerm{}
	_, err := New(term, PromptGeometry{Width: 2, Height: 1, LastLineWidth: 2})
	if !errors.Is(err, errGeometry) {
		t.Fatalf("got %v", err)
	}
}

var errGeometry = errors.New("geometry unavailable")

type failingGeometryTerm struct{}

func (f *failingGeometryTerm) ReadEvent() (KeyEvent, error)  { return KeyEvent{}, io.EOF }
func (f *failingGeometryTerm) Write(p []byte) error          { return nil }
func (f *failingGeometryTerm) Geometry() (int, int, error)   { return 0, 0, errGeometry }
func (f *failingGeometryTerm) QueryCursor() (int, int, bool) { return 0, 0, false }
