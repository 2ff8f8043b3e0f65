// Package editcmd implements the tagged Command enum and dispatcher: each
// command validates preconditions, mutates the TextBuffer, picks a
// DisplaySync intent, and reconciles. Commands carry intent only;
// DisplaySync decides how to render it.
package editcmd

import (
	"errors"

	"github.com/kungfusheep/lineedit/internal/displaysync"
	"github.com/kungfusheep/lineedit/internal/textbuf"
)

// Kind enumerates the command set.
type Kind int

const (
	InsertCodepoint Kind = iota
	DeleteForward
	Backspace
	MoveLeft
	MoveRight
	MoveWordLeft
	MoveWordRight
	MoveHome
	MoveEnd
	SetCursor
	KillToEol
	KillToBol
	DeleteWord
	BackspaceWord
	Transpose
	ClearLine
	ReplaceLine
	AcceptLine
	CancelLine
	HistoryUp
	HistoryDown
	CompleteTab
	HistorySearchStart
	HistorySearchNext
	HistorySearchPrev
	HistorySearchAccept
	HistorySearchCancel
)

// Command is the tagged command value. Only the field relevant to Kind is
// read; the dispatcher ignores the rest.
type Command struct {
	Kind      Kind
	Codepoint rune
	Pos       int
	Bytes     []byte
	Pattern   string
}

// ResultKind classifies what happened.
type ResultKind int

const (
	NoOp ResultKind = iota
	Handled
	Accepted
	Cancelled
)

// Result is returned by Dispatch.
type Result struct {
	Kind ResultKind
	Line string // valid when Kind == Accepted
	Plan []byte // bytes to write to the terminal
}

// State is the buffer x navigation x completion state machine.
type State int

const (
	Editing State = iota
	NavigatingHistory
	Completing
)

// HistoryNav is the narrow slice of History that the dispatcher needs for
// up/down navigation and incremental search, accepted as an interface so
// editcmd never imports internal/history — Core owns History, not
// EditCommands.
type HistoryNav interface {
	NavigateUp(draft string) (line string, ok bool)
	NavigateDown() (line string, ok bool)
	ResetNav()
	Add(line string)
	SearchStart(pattern string)
	SearchNext() (line string, ok bool)
	SearchPrev() (line string, ok bool)
	SearchEnd()
}

// Completer is the narrow slice of CompletionSession the dispatcher needs.
type Completer interface {
	Tab(buf *textbuf.Buffer) bool
	Clear()
}

// ErrIllegal is returned for a genuinely illegal command (never for the
// legal-but-nothing-to-do cases, which return NoOp instead).
var ErrIllegal = errors.New("editcmd: illegal command for current state")

// Dispatcher routes commands to TextBuffer and DisplaySync, holding the
// buffer x navigation x completion state machine.
type Dispatcher struct {
	buf     *textbuf.Buffer
	sync    *displaysync.Sync
	history HistoryNav
	compl   Completer

	state State
	draft []byte
}

// New creates a Dispatcher over buf and sync, with the given History and
// Completion collaborators (either may be nil if unused).
func New(buf *textbuf.Buffer, sync *displaysync.Sync, history HistoryNav, compl Completer) *Dispatcher {
	return &Dispatcher{buf: buf, sync: sync, history: history, compl: compl, state: Editing}
}

// State returns the current state machine state.
func (d *Dispatcher) State() State { return d.state }

// Dispatch validates, mutates, reconciles, and returns a Result. It never
// panics; illegal-but-harmless inputs (backspace at column 0, etc.) return
// NoOp, not an error.
func (d *Dispatcher) Dispatch(cmd Command) (Result, error) {
	// Any command other than CompleteTab clears an active completion session.
	if cmd.Kind != CompleteTab && d.state == Completing {
		if d.compl != nil {
			d.compl.Clear()
		}
		d.state = Editing
	}
	// Any command other than HistoryUp/Down (edits, AcceptLine, CancelLine)
	// consumes an active history navigation and resets the history cursor.
	if d.state == NavigatingHistory && !isHistoryNav(cmd.Kind) {
		d.state = Editing
		if d.history != nil {
			d.history.ResetNav()
		}
	}

	switch cmd.Kind {
	case InsertCodepoint:
		before := d.buf.CursorByte()
		if err := d.buf.InsertCodepoint(cmd.Codepoint); err != nil {
			return d.fail(err)
		}
		return d.reconcileInsert(before)

	case DeleteForward:
		if d.buf.CursorByte() >= d.buf.Len() {
			return Result{Kind: NoOp}, nil
		}
		pos := d.buf.CursorByte()
		if err := d.buf.DeleteForward(); err != nil {
			return d.fail(err)
		}
		return d.reconcileDelete(pos)

	case Backspace:
		if d.buf.CursorByte() <= 0 {
			return Result{Kind: NoOp}, nil
		}
		if err := d.buf.Backspace(); err != nil {
			return d.fail(err)
		}
		return d.reconcileDelete(d.buf.CursorByte())

	case MoveLeft:
		if d.buf.CursorByte() <= 0 {
			return Result{Kind: NoOp}, nil
		}
		d.buf.MoveLeft()
		return d.reconcileCursorOnly()

	case MoveRight:
		if d.buf.CursorByte() >= d.buf.Len() {
			return Result{Kind: NoOp}, nil
		}
		d.buf.MoveRight()
		return d.reconcileCursorOnly()

	case MoveWordLeft:
		d.buf.MoveWordLeft()
		return d.reconcileCursorOnly()

	case MoveWordRight:
		d.buf.MoveWordRight()
		return d.reconcileCursorOnly()

	case MoveHome:
		d.buf.MoveHome()
		return d.reconcileCursorOnly()

	case MoveEnd:
		d.buf.MoveEnd()
		return d.reconcileCursorOnly()

	case SetCursor:
		if err := d.buf.SetCursorByte(cmd.Pos); err != nil {
			return Result{Kind: NoOp}, nil
		}
		return d.reconcileCursorOnly()

	case KillToEol:
		end := d.buf.Len()
		start := d.buf.CursorByte()
		if start == end {
			return Result{Kind: NoOp}, nil
		}
		if err := d.buf.DeleteRange(start, end); err != nil {
			return d.fail(err)
		}
		return d.reconcileDelete(start)

	case KillToBol:
		start := d.buf.CursorByte()
		if start == 0 {
			return Result{Kind: NoOp}, nil
		}
		if err := d.buf.DeleteRange(0, start); err != nil {
			return d.fail(err)
		}
		return d.reconcileDelete(0)

	case DeleteWord:
		start := d.buf.CursorByte()
		d.buf.MoveWordRight()
		end := d.buf.CursorByte()
		d.buf.SetCursorByte(start)
		if start == end {
			return Result{Kind: NoOp}, nil
		}
		if err := d.buf.DeleteRange(start, end); err != nil {
			return d.fail(err)
		}
		return d.reconcileDelete(start)

	case BackspaceWord:
		end := d.buf.CursorByte()
		d.buf.MoveWordLeft()
		start := d.buf.CursorByte()
		if start == end {
			return Result{Kind: NoOp}, nil
		}
		if err := d.buf.DeleteRange(start, end); err != nil {
			return d.fail(err)
		}
		return d.reconcileDelete(start)

	case Transpose:
		return d.transpose()

	case ClearLine:
		d.buf.Clear()
		return d.reconcileReplaceAll()

	case ReplaceLine:
		d.buf.Clear()
		if err := d.buf.InsertSlice(cmd.Bytes); err != nil {
			return d.fail(err)
		}
		return d.reconcileReplaceAll()

	case AcceptLine:
		line := d.buf.String()
		d.buf.Clear()
		res, err := d.reconcileReplaceAll()
		res.Kind = Accepted
		res.Line = line
		res.Plan = append(res.Plan, '\r', '\n')
		d.state = Editing
		if d.history != nil {
			d.history.Add(line)
		}
		return res, err

	case CancelLine:
		d.buf.Clear()
		res, err := d.reconcileReplaceAll()
		res.Kind = Cancelled
		d.state = Editing
		return res, err

	case HistoryUp:
		return d.historyNavigate(true)

	case HistoryDown:
		return d.historyNavigate(false)

	case CompleteTab:
		if d.compl == nil {
			return Result{Kind: NoOp}, nil
		}
		if !d.compl.Tab(d.buf) {
			return Result{Kind: NoOp}, nil
		}
		d.state = Completing
		return d.reconcileReplaceAll()

	case HistorySearchStart:
		if d.history == nil {
			return Result{Kind: NoOp}, nil
		}
		d.history.SearchStart(cmd.Pattern)
		return Result{Kind: Handled}, nil

	case HistorySearchNext:
		return d.historySearch(true)

	case HistorySearchPrev:
		return d.historySearch(false)

	case HistorySearchAccept:
		if d.history != nil {
			d.history.SearchEnd()
		}
		return Result{Kind: Handled}, nil

	case HistorySearchCancel:
		if d.history != nil {
			d.history.SearchEnd()
		}
		return Result{Kind: Handled}, nil
	}

	return Result{}, ErrIllegal
}

func isHistoryNav(k Kind) bool {
	return k == HistoryUp || k == HistoryDown
}

func (d *Dispatcher) fail(err error) (Result, error) {
	if errors.Is(err, textbuf.ErrOutOfBounds) || errors.Is(err, textbuf.ErrNonBoundary) {
		return Result{Kind: NoOp}, nil
	}
	return Result{}, err
}

func (d *Dispatcher) transpose() (Result, error) {
	cursor := d.buf.CursorByte()
	if cursor == 0 || d.buf.Len() < 2 {
		return Result{Kind: NoOp}, nil
	}
	content := d.buf.Bytes()
	// Identify the two codepoints to swap: the one before the cursor and
	// the one before that (readline's Ctrl-T semantics at end of line), or
	// the one at/after the cursor and the one before it otherwise.
	var a, b int
	if cursor >= d.buf.Len() {
		b = cursor
		a = prevBoundary(content, b)
		p2 := prevBoundary(content, a)
		if p2 == a {
			return Result{Kind: NoOp}, nil
		}
		swapped := append(append([]byte{}, content[a:b]...), content[p2:a]...)
		start := p2
		d.buf.DeleteRange(start, b)
		d.buf.SetCursorByte(start)
		d.buf.InsertSlice(swapped)
		return d.reconcileReplaceAll()
	}
	b = nextBoundary(content, cursor)
	a = prevBoundary(content, cursor)
	if a == cursor {
		return Result{Kind: NoOp}, nil
	}
	swapped := append(append([]byte{}, content[cursor:b]...), content[a:cursor]...)
	d.buf.DeleteRange(a, b)
	d.buf.SetCursorByte(a)
	d.buf.InsertSlice(swapped)
	return d.reconcileReplaceAll()
}

func (d *Dispatcher) historyNavigate(up bool) (Result, error) {
	if d.history == nil {
		return Result{Kind: NoOp}, nil
	}
	if d.state != NavigatingHistory {
		d.draft = append([]byte{}, d.buf.Bytes()...)
	}
	var line string
	var ok bool
	if up {
		line, ok = d.history.NavigateUp(string(d.draft))
	} else {
		line, ok = d.history.NavigateDown()
	}
	if !ok {
		if !up {
			// Past the newest entry: restore the stashed draft.
			d.buf.Clear()
			d.buf.InsertSlice(d.draft)
			d.state = Editing
			d.history.ResetNav()
			return d.reconcileReplaceAll()
		}
		return Result{Kind: NoOp}, nil
	}
	d.state = NavigatingHistory
	d.buf.Clear()
	d.buf.InsertSlice([]byte(line))
	return d.reconcileReplaceAll()
}

func (d *Dispatcher) historySearch(next bool) (Result, error) {
	if d.history == nil {
		return Result{Kind: NoOp}, nil
	}
	var line string
	var ok bool
	if next {
		line, ok = d.history.SearchNext()
	} else {
		line, ok = d.history.SearchPrev()
	}
	if !ok {
		return Result{Kind: NoOp}, nil
	}
	d.buf.Clear()
	d.buf.InsertSlice([]byte(line))
	return d.reconcileReplaceAll()
}

// reconcile* helpers surface displaysync.ErrUnrecoverable to the caller
// rather than swallowing it: the embedder needs it to know a full prompt
// redraw is required.
func (d *Dispatcher) reconcileInsert(before int) (Result, error) {
	plan, err := d.sync.Reconcile(d.buf.Bytes(), d.buf.CursorByte(), displaysync.Intent{
		Kind: displaysync.InsertAt,
		Pos:  before,
	})
	return Result{Kind: Handled, Plan: plan}, err
}

func (d *Dispatcher) reconcileDelete(at int) (Result, error) {
	plan, err := d.sync.Reconcile(d.buf.Bytes(), d.buf.CursorByte(), displaysync.Intent{
		Kind: displaysync.DeleteAt,
		Pos:  at,
	})
	return Result{Kind: Handled, Plan: plan}, err
}

func (d *Dispatcher) reconcileCursorOnly() (Result, error) {
	plan, err := d.sync.Reconcile(d.buf.Bytes(), d.buf.CursorByte(), displaysync.Intent{Kind: displaysync.CursorOnly})
	return Result{Kind: Handled, Plan: plan}, err
}

func (d *Dispatcher) reconcileReplaceAll() (Result, error) {
	plan, err := d.sync.Reconcile(d.buf.Bytes(), d.buf.CursorByte(), displaysync.Intent{Kind: displaysync.ReplaceAll})
	return Result{Kind: Handled, Plan: plan}, err
}

// prevBoundary/nextBoundary duplicate unicodescan's boundary walk locally
// to avoid pulling the whole package in just for transpose's two calls;
// kept tiny and private.
func prevBoundary(b []byte, i int) int {
	if i <= 0 {
		return 0
	}
	j := i - 1
	for j > 0 && b[j]&0xC0 == 0x80 {
		j--
	}
	return j
}

func nextBoundary(b []byte, i int) int {
	if i >= len(b) {
		return len(b)
	}
	j := i + 1
	for j < len(b) && b[j]&0xC0 == 0x80 {
		j++
	}
	return j
}
