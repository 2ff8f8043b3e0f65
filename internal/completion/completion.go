// Package completion implements CompletionSession: word extraction at the
// cursor, completion kind detection, and a cycling session lifecycle that
// replaces the captured word with successive candidates.
package completion

import (
	"sort"
	"strings"

	"github.com/kungfusheep/lineedit/internal/fuzzyquery"
	"github.com/kungfusheep/lineedit/internal/textbuf"
)

// Kind classifies the word under the cursor for a completion request.
type Kind int

const (
	Command Kind = iota
	Variable
	Path
	File
)

// Item is one completion candidate.
type Item struct {
	Text        string
	Description string
	Priority    int
	IsDir       bool
}

// Source is the narrow CompletionSource contract this package consumes.
// context carries whatever the embedder wants available to a fetcher (cwd,
// environment, parsed command line so far); this package never interprets
// it.
type Source interface {
	Fetch(kind Kind, prefix string, context string) ([]Item, error)
}

var separators = map[byte]bool{
	' ': true, '\t': true, '\n': true, '\r': true,
	'|': true, '&': true, ';': true, '(': true, ')': true,
	'<': true, '>': true, '"': true, '\'': true, '`': true,
	'$': true, '#': true, 0: true,
}

func isSeparator(b byte) bool { return separators[b] }

// Session is the CompletionSession. A zero Session is inactive.
type Session struct {
	source Source

	active    bool
	wordStart int
	wordEnd   int // end of the currently-applied replacement
	kind      Kind
	items     []Item
	index     int
	context   string
}

// New creates a Session bound to source. context is passed through to every
// Fetch call unchanged.
func New(source Source, context string) *Session {
	return &Session{source: source, context: context}
}

// Active reports whether a completion session is in progress.
func (s *Session) Active() bool { return s.active }

// Clear ends the session without touching the buffer.
func (s *Session) Clear() { *s = Session{source: s.source, context: s.context} }

// Tab implements the dispatcher-facing entry point: start a new session or
// cycle the active one, and apply the result to buf. Returns false if no
// completions were available.
func (s *Session) Tab(buf *textbuf.Buffer) bool {
	cursor := buf.CursorByte()
	content := buf.Bytes()
	wordStart, wordEnd := extractWord(content, cursor)

	if s.active && s.sameRegion(wordStart, cursor) {
		return s.cycle(buf)
	}
	return s.start(buf, content, wordStart, wordEnd)
}

// extractWord expands left and right from cursor while bytes are not
// separators, returning the span [start, end).
func extractWord(content []byte, cursor int) (int, int) {
	start := cursor
	for start > 0 && !isSeparator(content[start-1]) {
		start--
	}
	end := cursor
	for end < len(content) && !isSeparator(content[end]) {
		end++
	}
	return start, end
}

func detectKind(content []byte, wordStart, wordEnd int) Kind {
	firstNonSpace := 0
	for firstNonSpace < len(content) && isSeparator(content[firstNonSpace]) {
		firstNonSpace++
	}
	if wordStart == firstNonSpace {
		return Command
	}
	if wordStart > 0 && content[wordStart-1] == '$' {
		return Variable
	}
	word := content[wordStart:wordEnd]
	if len(word) > 0 && (word[0] == '~' || word[0] == '.') {
		return Path
	}
	if strings.ContainsRune(string(word), '/') {
		return Path
	}
	return File
}

// sameRegion holds when word_start matches the active session's and the
// cursor still sits within (or right at the end of) the region the last
// applied completion occupies — word_end tracks that end after every
// apply, so a Tab pressed immediately after a completion, or after several
// cycles, both land inside it.
func (s *Session) sameRegion(wordStart, cursor int) bool {
	if wordStart != s.wordStart {
		return false
	}
	return cursor >= s.wordStart && cursor <= s.wordEnd
}

func (s *Session) start(buf *textbuf.Buffer, content []byte, wordStart, wordEnd int) bool {
	kind := detectKind(content, wordStart, wordEnd)
	prefix := string(content[wordStart:wordEnd])

	items, err := s.source.Fetch(kind, prefix, s.context)
	if err != nil || len(items) == 0 {
		return false
	}
	items = rank(prefix, items)

	s.active = true
	s.wordStart = wordStart
	s.wordEnd = wordEnd
	s.kind = kind
	s.items = items
	s.index = 0

	s.apply(buf, wordStart, wordEnd, items[0].Text)
	return true
}

func (s *Session) cycle(buf *textbuf.Buffer) bool {
	if len(s.items) == 1 {
		s.Clear()
		return true
	}
	s.index = (s.index + 1) % len(s.items)
	s.apply(buf, s.wordStart, s.wordEnd, s.items[s.index].Text)
	return true
}

func (s *Session) apply(buf *textbuf.Buffer, replaceStart, replaceEnd int, text string) {
	buf.SetCursorByte(replaceEnd)
	buf.DeleteRange(replaceStart, replaceEnd)
	buf.SetCursorByte(replaceStart)
	buf.InsertSlice([]byte(text))
	s.wordEnd = replaceStart + len(text)
}

// rank applies an optional fuzzy pre-filter against prefix — narrowing a
// candidate pool a CompletionSource didn't filter itself — and then the
// mandated deterministic sort: directories before files at equal key, then
// lexicographic by text. The fuzzy pass only ever narrows; if nothing
// matches, the original candidate set is kept rather than emptied, and the
// deterministic sort is always the final word on order.
func rank(prefix string, items []Item) []Item {
	if prefix != "" {
		if q := fuzzyquery.Parse(prefix); !q.Empty() {
			filtered := items[:0:0]
			for _, it := range items {
				if _, ok := q.Score(it.Text); ok {
					filtered = append(filtered, it)
				}
			}
			if len(filtered) > 0 {
				items = filtered
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDir != items[j].IsDir {
			return items[i].IsDir
		}
		return items[i].Text < items[j].Text
	})
	return items
}
