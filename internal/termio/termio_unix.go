//go:build unix

package termio

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// EnterRaw puts the terminal into raw mode: no echo, no canonical line
// buffering, no signal-generating control chars, one byte at a time.
// Unlike a fullscreen TUI's raw mode, this never switches to the alternate
// screen buffer or enables bracketed paste — a line editor renders inline.
func (t *TTY) EnterRaw() error {
	if t.inRaw {
		return nil
	}

	termios, err := unix.IoctlGetTermios(t.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("termio: get termios: %w", err)
	}
	saved := *termios
	t.saved = &saved

	raw := *termios
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, &raw); err != nil {
		return fmt.Errorf("termio: set raw mode: %w", err)
	}
	t.inRaw = true

	t.resizeChan = make(chan Size, 1)
	t.sigStop = make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	go t.watchResize(sigCh)

	return nil
}

// ExitRaw restores the termios state captured by EnterRaw.
func (t *TTY) ExitRaw() error {
	if !t.inRaw {
		return nil
	}
	close(t.sigStop)
	if saved, ok := t.saved.(*unix.Termios); ok && saved != nil {
		if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, saved); err != nil {
			return fmt.Errorf("termio: restore termios: %w", err)
		}
	}
	t.inRaw = false
	return nil
}

func (t *TTY) watchResize(sigCh chan os.Signal) {
	for {
		select {
		case <-sigCh:
			w, h, err := t.geometry()
			if err != nil {
				continue
			}
			select {
			case t.resizeChan <- Size{Width: w, Height: h}:
			default:
			}
		case <-t.sigStop:
			signal.Stop(sigCh)
			return
		}
	}
}

// Geometry returns the current terminal dimensions via TIOCGWINSZ.
func (t *TTY) Geometry() (width, height int, err error) {
	return t.geometry()
}

func (t *TTY) geometry() (int, int, error) {
	ws, err := unix.IoctlGetWinsize(t.fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("termio: get winsize: %w", err)
	}
	return int(ws.Col), int(ws.Row), nil
}
