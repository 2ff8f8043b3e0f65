// Package keydecode turns a raw byte stream into editcmd.Command values. It
// wraps riffkey's router-based key decoder in a synchronous, blocking
// Next() call rather than riffkey's own callback-driven Input.Run loop,
// since the core treats key reading as a plain synchronous call.
package keydecode

import (
	"io"

	"github.com/kungfusheep/riffkey"

	"github.com/kungfusheep/lineedit/internal/editcmd"
)

// Event is a decoded key, independent of riffkey's own type so the rest of
// the module never imports riffkey directly.
type Event struct {
	Rune  rune
	Name  string // "" for a plain printable rune; otherwise "Up", "Esc", "Enter", ...
	Ctrl  bool
	Alt   bool
	Shift bool
}

// Decoder reads from an io.Reader (typically the raw-mode TTY) and produces
// Events one at a time. A single catch-all router routes every key through
// HandleUnmatched, bypassing riffkey's multi-key pattern matching: this
// package wants every individual keystroke, not vim-style bindings.
type Decoder struct {
	input  *riffkey.Input
	reader *riffkey.Reader

	events chan Event
	done   chan struct{}
	errc   chan error
}

// New constructs a Decoder reading from r. Run must be called to start
// pumping events.
func New(r io.Reader) *Decoder {
	router := riffkey.NewRouter().NoCounts()

	d := &Decoder{
		events: make(chan Event, 32),
		done:   make(chan struct{}),
		errc:   make(chan error, 1),
	}

	router.HandleUnmatched(func(k riffkey.Key) bool {
		select {
		case d.events <- translate(k):
		case <-d.done:
		}
		return false
	})

	d.input = riffkey.NewInput(router)
	d.reader = riffkey.NewReader(r)
	return d
}

// Run starts the decode loop in a goroutine. It returns immediately; Next
// delivers events as they arrive.
func (d *Decoder) Run() {
	go func() {
		err := d.input.Run(d.reader, func(handled bool) {})
		d.errc <- err
		close(d.events)
	}()
}

// Next blocks for the next decoded Event. It returns io.EOF once the
// underlying reader is exhausted or closed.
func (d *Decoder) Next() (Event, error) {
	ev, ok := <-d.events
	if ok {
		return ev, nil
	}
	select {
	case err := <-d.errc:
		if err != nil {
			return Event{}, err
		}
	default:
	}
	return Event{}, io.EOF
}

// Stop releases a goroutine blocked delivering an event past done, for a
// caller tearing down mid-read.
func (d *Decoder) Stop() { close(d.done) }

func translate(k riffkey.Key) Event {
	return Event{
		Rune:  k.Rune,
		Name:  k.Name,
		Ctrl:  k.Mod == riffkey.ModCtrl,
		Alt:   k.Mod == riffkey.ModAlt,
		Shift: k.Mod == riffkey.ModShift,
	}
}

// ToCommand maps a decoded Event to an editcmd.Command. ok is false for
// keys this editor has no binding for (the caller should ignore them, not
// treat them as an error).
func ToCommand(ev Event) (editcmd.Command, bool) {
	if ev.Name != "" {
		if cmd, ok := namedCommand(ev); ok {
			return cmd, true
		}
	}
	if ev.Ctrl {
		if cmd, ok := ctrlCommand(ev.Rune); ok {
			return cmd, true
		}
	}
	if ev.Rune == 0 || ev.Ctrl || ev.Alt {
		return editcmd.Command{}, false
	}
	return editcmd.Command{Kind: editcmd.InsertCodepoint, Codepoint: ev.Rune}, true
}

func namedCommand(ev Event) (editcmd.Command, bool) {
	switch ev.Name {
	case "Left":
		if ev.Ctrl {
			return editcmd.Command{Kind: editcmd.MoveWordLeft}, true
		}
		return editcmd.Command{Kind: editcmd.MoveLeft}, true
	case "Right":
		if ev.Ctrl {
			return editcmd.Command{Kind: editcmd.MoveWordRight}, true
		}
		return editcmd.Command{Kind: editcmd.MoveRight}, true
	case "Up":
		return editcmd.Command{Kind: editcmd.HistoryUp}, true
	case "Down":
		return editcmd.Command{Kind: editcmd.HistoryDown}, true
	case "Home":
		return editcmd.Command{Kind: editcmd.MoveHome}, true
	case "End":
		return editcmd.Command{Kind: editcmd.MoveEnd}, true
	case "Delete":
		return editcmd.Command{Kind: editcmd.DeleteForward}, true
	case "Backspace":
		return editcmd.Command{Kind: editcmd.Backspace}, true
	case "Tab":
		return editcmd.Command{Kind: editcmd.CompleteTab}, true
	case "Enter":
		return editcmd.Command{Kind: editcmd.AcceptLine}, true
	case "Esc":
		return editcmd.Command{Kind: editcmd.CancelLine}, true
	}
	return editcmd.Command{}, false
}

// ctrlCommand maps readline-style control chords on a printable rune.
func ctrlCommand(r rune) (editcmd.Command, bool) {
	switch r {
	case 'a', 'A':
		return editcmd.Command{Kind: editcmd.MoveHome}, true
	case 'e', 'E':
		return editcmd.Command{Kind: editcmd.MoveEnd}, true
	case 'b', 'B':
		return editcmd.Command{Kind: editcmd.MoveLeft}, true
	case 'f', 'F':
		return editcmd.Command{Kind: editcmd.MoveRight}, true
	case 'd', 'D':
		return editcmd.Command{Kind: editcmd.DeleteForward}, true
	case 'h', 'H':
		return editcmd.Command{Kind: editcmd.Backspace}, true
	case 'k', 'K':
		return editcmd.Command{Kind: editcmd.KillToEol}, true
	case 'u', 'U':
		return editcmd.Command{Kind: editcmd.KillToBol}, true
	case 'w', 'W':
		return editcmd.Command{Kind: editcmd.BackspaceWord}, true
	case 't', 'T':
		return editcmd.Command{Kind: editcmd.Transpose}, true
	case 'r', 'R':
		return editcmd.Command{Kind: editcmd.HistorySearchStart}, true
	case 'c', 'C':
		return editcmd.Command{Kind: editcmd.CancelLine}, true
	case 'l', 'L':
		return editcmd.Command{Kind: editcmd.ClearLine}, true
	}
	return editcmd.Command{}, false
}
