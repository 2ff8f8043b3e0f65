// Package lineedit is an embeddable line editor core: text buffer, cursor
// math, terminal grid mirroring, display synchronization, command dispatch,
// and history/completion sessions, wired together as Core. Raw-mode TTY
// acquisition, prompt formatting, syntax highlighting, and completion
// lookups are the embedder's job, not the core's — Core consumes them
// through the TerminalIO, CompletionSource, and PromptGeometry contracts
// below.
package lineedit

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/kungfusheep/lineedit/internal/completion"
	"github.com/kungfusheep/lineedit/internal/cursormath"
	"github.com/kungfusheep/lineedit/internal/displaysync"
	"github.com/kungfusheep/lineedit/internal/editcmd"
	"github.com/kungfusheep/lineedit/internal/history"
	"github.com/kungfusheep/lineedit/internal/keydecode"
	"github.com/kungfusheep/lineedit/internal/termgrid"
	"github.com/kungfusheep/lineedit/internal/textbuf"
)

// KeyEvent is a decoded keystroke, independent of any particular decoder.
type KeyEvent = keydecode.Event

// TerminalIO is the consumed interface for reading decoded keys and writing
// opaque bytes to the real terminal. The core never interprets or retains
// the byte slice passed to Write beyond the call.
type TerminalIO interface {
	ReadEvent() (KeyEvent, error)
	Write(p []byte) error
	Geometry() (width, height int, err error)
	QueryCursor() (row, col int, ok bool)
}

// CompletionSource, Kind, and Item are the consumed completion contract.
type (
	CompletionSource = completion.Source
	CompletionKind   = completion.Kind
	CompletionItem   = completion.Item
)

const (
	CompletionCommand  = completion.Command
	CompletionVariable = completion.Variable
	CompletionPath     = completion.Path
	CompletionFile     = completion.File
)

// PromptGeometry is the external, validated description of the prompt's
// footprint.
type PromptGeometry = cursormath.PromptGeometry

// LineResultKind classifies how a ReadLine call ended.
type LineResultKind int

const (
	LineAccepted LineResultKind = iota
	LineCancelled
	LineEof
	LineError
)

// LineResult is ReadLine's outcome.
type LineResult struct {
	Kind LineResultKind
	Line string // valid when Kind == LineAccepted
	Err  error  // valid when Kind == LineError
}

// Core owns TextBuffer, TerminalGrid, DisplaySync, History, and
// CompletionSession, and drives the single-threaded read-eval loop:
// key event -> EditCommands decode -> buffer mutation -> DisplaySync write
// plan -> TerminalIO.Write -> TerminalGrid mirror update.
type Core struct {
	term   TerminalIO
	buf    *textbuf.Buffer
	grid   *termgrid.Grid
	sync   *displaysync.Sync
	disp   *editcmd.Dispatcher
	hist   *history.Store
	compl  *completion.Session
	logger *slog.Logger

	promptTop     int
	maxDivergence int
}

// Option configures a Core at construction time.
type Option func(*Core)

// WithHistory enables History with the given configuration.
func WithHistory(cfg history.Config) Option {
	return func(c *Core) {
		store, err := history.New(cfg)
		if err != nil {
			// cfg is caller-supplied and validated by history.New; an
			// invalid Capacity falls back to DefaultConfig rather than
			// leaving History nil, since WithHistory signals intent to
			// have one.
			store, _ = history.New(history.DefaultConfig())
		}
		c.hist = store
	}
}

// WithCompletionSource enables CompletionSession backed by source. context
// is passed through to every Fetch call unchanged.
func WithCompletionSource(source CompletionSource, context string) Option {
	return func(c *Core) { c.compl = completion.New(source, context) }
}

// WithLogger sets the debug logger. Default is a handler writing to
// io.Discard, matching a library that has no business writing to stdout
// on its own.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) { c.logger = logger }
}

// WithPromptTop sets the terminal row the prompt begins on. Default 0,
// matching a prompt drawn at the top of the available content area.
func WithPromptTop(row int) Option {
	return func(c *Core) { c.promptTop = row }
}

// WithEditorConfig applies an EditorConfig loaded via LoadEditorConfig,
// enabling History with its ring/dedup policy and recording the divergence
// retry budget for New to apply to the Sync it constructs. Tab expansion
// width is a process-wide cursormath setting, so applying it here affects
// every Core in the process, not just this one.
func WithEditorConfig(cfg EditorConfig) Option {
	return func(c *Core) {
		store, err := history.New(cfg.HistoryConfig())
		if err != nil {
			store, _ = history.New(history.DefaultConfig())
		}
		c.hist = store
		cursormath.TabWidth = cfg.TabWidth
		c.maxDivergence = cfg.MaxDivergenceRetries
	}
}

// New creates a Core bound to term, sized to term's current geometry, with
// the given prompt footprint.
func New(term TerminalIO, prompt PromptGeometry, opts ...Option) (*Core, error) {
	if !prompt.Validate() {
		return nil, errors.New("lineedit: invalid prompt geometry")
	}
	width, height, err := term.Geometry()
	if err != nil {
		return nil, err
	}
	if height < 1 {
		height = 1
	}

	c := &Core{
		term:   term,
		buf:    textbuf.New(),
		grid:   termgrid.New(width, height),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sync = displaysync.New(c.grid, prompt, c.promptTop)
	if c.maxDivergence > 0 {
		c.sync.SetMaxDivergence(c.maxDivergence)
	}

	var hnav editcmd.HistoryNav
	if c.hist != nil {
		hnav = &historyAdapter{store: c.hist, now: func() int64 { return time.Now().UnixNano() }}
	}
	var compl editcmd.Completer
	if c.compl != nil {
		compl = c.compl
	}
	c.disp = editcmd.New(c.buf, c.sync, hnav, compl)

	return c, nil
}

// History exposes the underlying store for save/load/fuzzy-search, or nil
// if WithHistory was never applied.
func (c *Core) History() *history.Store { return c.hist }

// GridCell is one rendered terminal cell, exposed so an embedder can draw
// its own view (e.g. through lipgloss styles) instead of writing the raw
// bytes Core sends to a real TTY.
type GridCell = termgrid.DisplayCell

// Cells returns a row-major snapshot of the mirrored terminal grid.
func (c *Core) Cells() [][]GridCell {
	w, h := c.grid.Width(), c.grid.Height()
	rows := make([][]GridCell, h)
	for r := 0; r < h; r++ {
		row := make([]GridCell, w)
		for col := 0; col < w; col++ {
			row[col] = c.grid.CellAt(r, col)
		}
		rows[r] = row
	}
	return rows
}

// CursorPosition returns the mirrored grid's current 0-based cursor cell.
func (c *Core) CursorPosition() (row, col int) {
	cur := c.grid.Cursor()
	return cur.Row, cur.Col
}

// ReadLine runs the read-eval loop until a line is accepted, cancelled, the
// input stream reaches EOF, or an unrecoverable error occurs. It performs
// only synchronous calls on TerminalIO; no goroutine is spawned and no
// lock is taken.
func (c *Core) ReadLine() LineResult {
	for {
		ev, err := c.term.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return LineResult{Kind: LineEof}
			}
			return LineResult{Kind: LineError, Err: err}
		}

		cmd, ok := keydecode.ToCommand(ev)
		if !ok {
			continue
		}

		res, err := c.disp.Dispatch(cmd)
		if err != nil {
			if errors.Is(err, displaysync.ErrUnrecoverable) {
				c.logger.Debug("display diverged past retry budget, redraw required")
				return LineResult{Kind: LineError, Err: err}
			}
			return LineResult{Kind: LineError, Err: err}
		}

		if len(res.Plan) > 0 {
			if err := c.term.Write(res.Plan); err != nil {
				return LineResult{Kind: LineError, Err: err}
			}
		}

		switch res.Kind {
		case editcmd.Accepted:
			return LineResult{Kind: LineAccepted, Line: res.Line}
		case editcmd.Cancelled:
			return LineResult{Kind: LineCancelled}
		}
	}
}

// Redraw re-arms DisplaySync after an embedder has redrawn the prompt
// following an ErrUnrecoverable LineError.
func (c *Core) Redraw() { c.sync.Reset() }

// historyAdapter satisfies editcmd.HistoryNav over a *history.Store, whose
// Add signature (timestamped, fallible) doesn't match the dispatcher's
// narrow view — the dispatcher only needs to record a line, not judge the
// outcome.
type historyAdapter struct {
	store *history.Store
	now   func() int64
}

func (h *historyAdapter) NavigateUp(draft string) (string, bool) { return h.store.NavigateUp(draft) }
func (h *historyAdapter) NavigateDown() (string, bool)           { return h.store.NavigateDown() }
func (h *historyAdapter) ResetNav()                              { h.store.ResetNav() }
func (h *historyAdapter) Add(line string)                        { h.store.Add(line, h.now()) }
func (h *historyAdapter) SearchStart(pattern string)             { h.store.SearchStart(pattern) }
func (h *historyAdapter) SearchNext() (string, bool)             { return h.store.SearchNext() }
func (h *historyAdapter) SearchPrev() (string, bool)             { return h.store.SearchPrev() }
func (h *historyAdapter) SearchEnd()                             { h.store.SearchEnd() }
