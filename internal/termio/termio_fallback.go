//go:build !unix

package termio

import (
	"fmt"

	"golang.org/x/term"
)

// EnterRaw uses golang.org/x/term's portable raw-mode path for platforms
// without a unix-specific termios file (there is no SIGWINCH here, so
// ResizeChan never fires on this build).
func (t *TTY) EnterRaw() error {
	if t.inRaw {
		return nil
	}
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("termio: make raw: %w", err)
	}
	t.saved = state
	t.inRaw = true
	t.resizeChan = make(chan Size)
	t.sigStop = make(chan struct{})
	return nil
}

// ExitRaw restores the state captured by EnterRaw.
func (t *TTY) ExitRaw() error {
	if !t.inRaw {
		return nil
	}
	close(t.sigStop)
	if state, ok := t.saved.(*term.State); ok && state != nil {
		if err := term.Restore(t.fd, state); err != nil {
			return fmt.Errorf("termio: restore: %w", err)
		}
	}
	t.inRaw = false
	return nil
}

// Geometry returns the current terminal dimensions.
func (t *TTY) Geometry() (width, height int, err error) {
	w, h, err := term.GetSize(t.fd)
	if err != nil {
		return 0, 0, fmt.Errorf("termio: get size: %w", err)
	}
	return w, h, nil
}
