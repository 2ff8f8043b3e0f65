package completion

import (
	"testing"

	"github.com/kungfusheep/lineedit/internal/textbuf"
)

type fixedSource struct {
	items []Item
	err   error
}

func (f *fixedSource) Fetch(kind Kind, prefix, context string) ([]Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func newBufferWithContent(s string) *textbuf.Buffer {
	buf := textbuf.New()
	buf.InsertSlice([]byte(s))
	return buf
}

// TestScenarioS4 encodes: CompletionSource for Command returns
// ["cat","cd","cp"] sorted. Buffer="c", cursor=1. Tab -> "cat" cursor=3.
// Tab -> "cd". Tab -> "cp". Tab -> "cat" (cycle).
func TestScenarioS4(t *testing.T) {
	src := &fixedSource{items: []Item{{Text: "cat"}, {Text: "cd"}, {Text: "cp"}}}
	sess := New(src, "")
	buf := newBufferWithContent("c")

	if ok := sess.Tab(buf); !ok {
		t.Fatal("expected first Tab to start a session")
	}
	if buf.String() != "cat" || buf.CursorByte() != 3 {
		t.Fatalf("got %q cursor=%d", buf.String(), buf.CursorByte())
	}

	sess.Tab(buf)
	if buf.String() != "cd" {
		t.Fatalf("got %q, want cd", buf.String())
	}

	sess.Tab(buf)
	if buf.String() != "cp" {
		t.Fatalf("got %q, want cp", buf.String())
	}

	sess.Tab(buf)
	if buf.String() != "cat" {
		t.Fatalf("got %q, want cat (cycle back to first)", buf.String())
	}
}

func TestWordExtractionAndKindDetection(t *testing.T) {
	// '/' is not a separator, so the whole "HOME/sub" token is one word; the
	// '$' itself is a separator and is excluded from the span, but its
	// presence immediately before word_start still marks the kind Variable.
	content := []byte("echo $HOME/sub")
	start, end := extractWord(content, len("echo $HOME"))
	if string(content[start:end]) != "HOME/sub" {
		t.Fatalf("word=%q", content[start:end])
	}
	kind := detectKind(content, start, end)
	if kind != Variable {
		t.Fatalf("kind=%v, want Variable", kind)
	}
}

func TestKindDetectionCommand(t *testing.T) {
	content := []byte("ec")
	start, end := extractWord(content, 2)
	if kind := detectKind(content, start, end); kind != Command {
		t.Fatalf("kind=%v, want Command", kind)
	}
}

func TestKindDetectionPath(t *testing.T) {
	content := []byte("cat ./fo")
	start, end := extractWord(content, len(content))
	if kind := detectKind(content, start, end); kind != Path {
		t.Fatalf("kind=%v, want Path", kind)
	}
}

func TestSingleCandidateEndsSessionInsteadOfRecycling(t *testing.T) {
	src := &fixedSource{items: []Item{{Text: "only"}}}
	sess := New(src, "")
	buf := newBufferWithContent("o")

	sess.Tab(buf)
	if buf.String() != "only" {
		t.Fatalf("got %q", buf.String())
	}
	if !sess.Active() {
		t.Fatal("expected session active after first application")
	}
	sess.Tab(buf)
	if sess.Active() {
		t.Fatal("expected session to end on re-tab with a single candidate")
	}
	if buf.String() != "only" {
		t.Fatalf("buffer should be left alone on session end, got %q", buf.String())
	}
}

func TestNoCompletionsReturnsFalse(t *testing.T) {
	src := &fixedSource{items: nil}
	sess := New(src, "")
	buf := newBufferWithContent("x")
	if sess.Tab(buf) {
		t.Fatal("expected false when source returns no candidates")
	}
}

func TestDirectoriesSortBeforeFiles(t *testing.T) {
	src := &fixedSource{items: []Item{
		{Text: "zzz", IsDir: false},
		{Text: "aaa", IsDir: true},
	}}
	sess := New(src, "")
	buf := newBufferWithContent("")
	sess.Tab(buf)
	if buf.String() != "aaa" {
		t.Fatalf("expected directory-first candidate applied, got %q", buf.String())
	}
}
