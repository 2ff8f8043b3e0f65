// bubbleline embeds Core inside a bubbletea.Model instead of writing to a
// raw TTY directly: keystrokes arrive as tea.KeyMsg, Core's write plan is
// discarded, and the mirrored grid is rendered through lipgloss styles on
// every Update. Color support is probed once via termenv so the prompt
// style degrades gracefully on basic terminals.
package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kungfusheep/lineedit"
)

// feedTerm is a lineedit.TerminalIO whose events arrive from bubbletea's
// own input loop rather than a TTY byte stream, and whose writes are
// discarded since the model renders from Core.Cells() instead.
type feedTerm struct {
	events        chan lineedit.KeyEvent
	width, height int
}

func (f *feedTerm) ReadEvent() (lineedit.KeyEvent, error) {
	ev, ok := <-f.events
	if !ok {
		return lineedit.KeyEvent{}, io.EOF
	}
	return ev, nil
}

func (f *feedTerm) Write(p []byte) error          { return nil }
func (f *feedTerm) Geometry() (int, int, error)   { return f.width, f.height, nil }
func (f *feedTerm) QueryCursor() (int, int, bool) { return 0, 0, false }

type lineAcceptedMsg struct{ line string }
type lineDoneMsg struct{ kind lineedit.LineResultKind }

type model struct {
	term     *feedTerm
	core     *lineedit.Core
	accepted []string
	promptFG lipgloss.Style
	cursorBG lipgloss.Style
	done     bool
}

func newModel() model {
	profile := termenv.ColorProfile()
	accent := lipgloss.Color("39")
	if profile == termenv.Ascii {
		accent = lipgloss.Color("")
	}

	term := &feedTerm{events: make(chan lineedit.KeyEvent, 16), width: 60, height: 1}
	prompt := lineedit.PromptGeometry{Width: 2, Height: 1, LastLineWidth: 2}
	core, err := lineedit.New(term, prompt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bubbleline: new core:", err)
		os.Exit(1)
	}

	return model{
		term:     term,
		core:     core,
		promptFG: lipgloss.NewStyle().Foreground(accent).Bold(true),
		cursorBG: lipgloss.NewStyle().Reverse(true),
	}
}

func (m model) Init() tea.Cmd {
	return m.waitForLine()
}

// waitForLine runs one Core.ReadLine call on its own goroutine and reports
// the outcome back into bubbletea's Update loop as a message, since
// ReadLine blocks on feedTerm.events until a key arrives.
func (m model) waitForLine() tea.Cmd {
	return func() tea.Msg {
		res := m.core.ReadLine()
		switch res.Kind {
		case lineedit.LineAccepted:
			return lineAcceptedMsg{line: res.Line}
		default:
			return lineDoneMsg{kind: res.Kind}
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		ev, ok := translateKey(msg)
		if ok {
			m.term.events <- ev
		}
		return m, nil
	case lineAcceptedMsg:
		m.accepted = append(m.accepted, msg.line)
		return m, m.waitForLine()
	case lineDoneMsg:
		if msg.kind == lineedit.LineEof || msg.kind == lineedit.LineError {
			m.done = true
			return m, tea.Quit
		}
		return m, m.waitForLine()
	}
	return m, nil
}

func (m model) View() string {
	var b []byte
	for _, line := range m.accepted {
		b = append(b, "-> "+line+"\n"...)
	}
	row, col := m.core.CursorPosition()
	cells := m.core.Cells()
	b = append(b, m.promptFG.Render("$ ")...)
	if len(cells) > row {
		for c, cell := range cells[row] {
			if c < 2 {
				// The prompt's two columns are never written to the grid.
				continue
			}
			if cell.Ch == 0 {
				break
			}
			if c == col {
				b = append(b, m.cursorBG.Render(string(cell.Ch))...)
			} else {
				b = append(b, string(cell.Ch)...)
			}
		}
	}
	return string(b)
}

func translateKey(msg tea.KeyMsg) (lineedit.KeyEvent, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return lineedit.KeyEvent{}, false
		}
		return lineedit.KeyEvent{Rune: msg.Runes[0]}, true
	case tea.KeySpace:
		return lineedit.KeyEvent{Rune: ' '}, true
	case tea.KeyEnter:
		return lineedit.KeyEvent{Name: "Enter"}, true
	case tea.KeyEsc:
		return lineedit.KeyEvent{Name: "Esc"}, true
	case tea.KeyBackspace:
		return lineedit.KeyEvent{Name: "Backspace"}, true
	case tea.KeyDelete:
		return lineedit.KeyEvent{Name: "Delete"}, true
	case tea.KeyLeft:
		return lineedit.KeyEvent{Name: "Left"}, true
	case tea.KeyRight:
		return lineedit.KeyEvent{Name: "Right"}, true
	case tea.KeyUp:
		return lineedit.KeyEvent{Name: "Up"}, true
	case tea.KeyDown:
		return lineedit.KeyEvent{Name: "Down"}, true
	case tea.KeyHome:
		return lineedit.KeyEvent{Name: "Home"}, true
	case tea.KeyEnd:
		return lineedit.KeyEvent{Name: "End"}, true
	case tea.KeyTab:
		return lineedit.KeyEvent{Name: "Tab"}, true
	case tea.KeyCtrlA:
		return lineedit.KeyEvent{Rune: 'a', Ctrl: true}, true
	case tea.KeyCtrlE:
		return lineedit.KeyEvent{Rune: 'e', Ctrl: true}, true
	case tea.KeyCtrlC:
		return lineedit.KeyEvent{Rune: 'c', Ctrl: true}, true
	case tea.KeyCtrlU:
		return lineedit.KeyEvent{Rune: 'u', Ctrl: true}, true
	case tea.KeyCtrlW:
		return lineedit.KeyEvent{Rune: 'w', Ctrl: true}, true
	case tea.KeyCtrlK:
		return lineedit.KeyEvent{Rune: 'k', Ctrl: true}, true
	default:
		return lineedit.KeyEvent{}, false
	}
}

func main() {
	p := tea.NewProgram(newModel())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "bubbleline:", err)
		os.Exit(1)
	}
}
