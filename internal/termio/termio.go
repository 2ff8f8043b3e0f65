// Package termio provides reference TerminalIO implementations: raw-mode
// acquisition, geometry queries, and opaque byte writes against a real TTY.
// A line editor core never imports this package directly — it is wired in
// by an embedder (cmd/rawline) that owns the file descriptor. Raw mode here
// omits the alternate-screen and bracketed-paste sequences a fullscreen TUI
// needs and a line editor does not.
package termio

import (
	"io"
	"os"
)

// Size is a terminal's column/row dimensions.
type Size struct {
	Width  int
	Height int
}

// TTY is a raw-mode-capable terminal bound to a file descriptor. Write is a
// pass-through: it does not interpret the bytes it is given, matching the
// TerminalIO write contract.
type TTY struct {
	f  *os.File
	fd int

	inRaw bool
	saved any // platform-specific saved terminal state, set by EnterRaw

	resizeChan chan Size
	sigStop    chan struct{}
}

// New wraps f (typically os.Stdin combined with os.Stdout, or a pty) for
// raw-mode control. f must be backed by a real file descriptor.
func New(f *os.File) *TTY {
	return &TTY{f: f, fd: int(f.Fd())}
}

// Read satisfies io.Reader so a TTY can be handed directly to
// keydecode.New.
func (t *TTY) Read(p []byte) (int, error) { return t.f.Read(p) }

// Write emits bytes opaquely.
func (t *TTY) Write(p []byte) (int, error) { return t.f.Write(p) }

var _ io.ReadWriter = (*TTY)(nil)

// QueryCursor always reports ok=false: this implementation has no reliable
// way to read the terminal's cursor-position report back out of the same
// stream read_event is decoding from, so it declines rather than guess. The
// core treats this as diagnostic-only and never depends on it.
func (t *TTY) QueryCursor() (row, col int, ok bool) { return 0, 0, false }

// ResizeChan delivers a Size each time SIGWINCH fires while raw mode is
// active. ExitRaw stops delivery but does not close the channel.
func (t *TTY) ResizeChan() <-chan Size { return t.resizeChan }
