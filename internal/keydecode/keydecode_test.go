package keydecode

import (
	"testing"

	"github.com/kungfusheep/lineedit/internal/editcmd"
)

func TestToCommandPrintableRune(t *testing.T) {
	cmd, ok := ToCommand(Event{Rune: 'x'})
	if !ok || cmd.Kind != editcmd.InsertCodepoint || cmd.Codepoint != 'x' {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
}

func TestToCommandNamedKeys(t *testing.T) {
	cases := []struct {
		name string
		want editcmd.Kind
	}{
		{"Left", editcmd.MoveLeft},
		{"Right", editcmd.MoveRight},
		{"Up", editcmd.HistoryUp},
		{"Down", editcmd.HistoryDown},
		{"Home", editcmd.MoveHome},
		{"End", editcmd.MoveEnd},
		{"Delete", editcmd.DeleteForward},
		{"Backspace", editcmd.Backspace},
		{"Tab", editcmd.CompleteTab},
		{"Enter", editcmd.AcceptLine},
		{"Esc", editcmd.CancelLine},
	}
	for _, c := range cases {
		cmd, ok := ToCommand(Event{Name: c.name})
		if !ok || cmd.Kind != c.want {
			t.Fatalf("%s: got %+v, %v, want %v", c.name, cmd, ok, c.want)
		}
	}
}

func TestToCommandCtrlWordLeft(t *testing.T) {
	cmd, ok := ToCommand(Event{Name: "Left", Ctrl: true})
	if !ok || cmd.Kind != editcmd.MoveWordLeft {
		t.Fatalf("got %+v, %v", cmd, ok)
	}
}

func TestToCommandCtrlChords(t *testing.T) {
	cases := []struct {
		r    rune
		want editcmd.Kind
	}{
		{'a', editcmd.MoveHome},
		{'e', editcmd.MoveEnd},
		{'k', editcmd.KillToEol},
		{'u', editcmd.KillToBol},
		{'w', editcmd.BackspaceWord},
		{'t', editcmd.Transpose},
		{'r', editcmd.HistorySearchStart},
		{'c', editcmd.CancelLine},
		{'l', editcmd.ClearLine},
	}
	for _, c := range cases {
		cmd, ok := ToCommand(Event{Rune: c.r, Ctrl: true})
		if !ok || cmd.Kind != c.want {
			t.Fatalf("ctrl-%c: got %+v, %v, want %v", c.r, cmd, ok, c.want)
		}
	}
}

func TestToCommandAltRuneIgnored(t *testing.T) {
	if _, ok := ToCommand(Event{Rune: 'x', Alt: true}); ok {
		t.Fatal("expected alt-rune with no binding to be ignored")
	}
}

func TestToCommandUnboundCtrlIgnored(t *testing.T) {
	if _, ok := ToCommand(Event{Rune: 'z', Ctrl: true}); ok {
		t.Fatal("expected unbound ctrl chord to be ignored")
	}
}
