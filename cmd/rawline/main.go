// rawline is a minimal raw-TTY line editor demo: type, edit, Up/Down to
// recall history, Enter to accept, Ctrl+C or Esc to cancel the current
// line. It saves history and exits when its input reaches end of file.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kungfusheep/lineedit"
	"github.com/kungfusheep/lineedit/internal/keydecode"
	"github.com/kungfusheep/lineedit/internal/termio"
)

// ttyAdapter satisfies lineedit.TerminalIO over a raw-mode termio.TTY and a
// keydecode.Decoder reading its byte stream.
type ttyAdapter struct {
	tty *termio.TTY
	dec *keydecode.Decoder
}

func (t *ttyAdapter) ReadEvent() (lineedit.KeyEvent, error) { return t.dec.Next() }
func (t *ttyAdapter) Write(p []byte) error                  { _, err := t.tty.Write(p); return err }
func (t *ttyAdapter) Geometry() (int, int, error)           { return t.tty.Geometry() }
func (t *ttyAdapter) QueryCursor() (int, int, bool)         { return t.tty.QueryCursor() }

func main() {
	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = home + "/.rawline_history"
	}

	tty := termio.New(os.Stdin)
	if err := tty.EnterRaw(); err != nil {
		log.Fatal(err)
	}
	defer tty.ExitRaw()

	dec := keydecode.New(tty)
	dec.Run()
	defer dec.Stop()

	term := &ttyAdapter{tty: tty, dec: dec}

	hcfg := lineedit.DefaultEditorConfig()
	prompt := lineedit.PromptGeometry{Width: 2, Height: 1, LastLineWidth: 2}
	core, err := lineedit.New(term, prompt, lineedit.WithEditorConfig(hcfg))
	if err != nil {
		log.Fatal(err)
	}

	if histPath != "" {
		if err := core.History().Load(histPath, time.Now().UnixNano()); err != nil {
			log.Printf("rawline: history load: %v", err)
		}
	}

	os.Stdout.WriteString("$ ")
	for {
		res := core.ReadLine()
		switch res.Kind {
		case lineedit.LineAccepted:
			fmt.Printf("\r\n-> %s\r\n$ ", res.Line)
		case lineedit.LineCancelled:
			os.Stdout.WriteString("\r\n$ ")
			continue
		case lineedit.LineEof:
			os.Stdout.WriteString("\r\n")
			saveHistory(core, histPath)
			return
		case lineedit.LineError:
			if errors.Is(res.Err, io.EOF) {
				saveHistory(core, histPath)
				return
			}
			log.Printf("rawline: %v", res.Err)
			core.Redraw()
			os.Stdout.WriteString("\r\n$ ")
		}
	}
}

func saveHistory(core *lineedit.Core, path string) {
	if path == "" {
		return
	}
	if err := core.History().Save(path); err != nil {
		log.Printf("rawline: history save: %v", err)
	}
}
