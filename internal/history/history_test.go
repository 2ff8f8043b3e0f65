package history

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddAndGetNewestFirst(t *testing.T) {
	s := newTestStore(t)
	for i, line := range []string{"ls", "cd /tmp", "git status"} {
		if _, err := s.Add(line, int64(i)); err != nil {
			t.Fatal(err)
		}
	}
	if s.Count() != 3 {
		t.Fatalf("count=%d, want 3", s.Count())
	}
	e, ok := s.Get(0)
	if !ok || e.Line != "git status" {
		t.Fatalf("Get(0)=%+v, want newest", e)
	}
	e, ok = s.Get(2)
	if !ok || e.Line != "ls" {
		t.Fatalf("Get(2)=%+v, want oldest", e)
	}
}

// TestScenarioS3 encodes: history ["ls","cd /tmp","git status"], newest
// last. HistoryUp -> "git status" -> "cd /tmp" -> "ls" -> NoOp.
// HistoryDown -> "cd /tmp" -> "git status" -> draft restored.
func TestScenarioS3(t *testing.T) {
	s := newTestStore(t)
	for i, line := range []string{"ls", "cd /tmp", "git status"} {
		s.Add(line, int64(i))
	}

	draft := "draft line"
	line, ok := s.NavigateUp(draft)
	if !ok || line != "git status" {
		t.Fatalf("1st up=%q,%v", line, ok)
	}
	line, ok = s.NavigateUp(draft)
	if !ok || line != "cd /tmp" {
		t.Fatalf("2nd up=%q,%v", line, ok)
	}
	line, ok = s.NavigateUp(draft)
	if !ok || line != "ls" {
		t.Fatalf("3rd up=%q,%v", line, ok)
	}
	if _, ok := s.NavigateUp(draft); ok {
		t.Fatal("4th up should be NoOp (past oldest)")
	}

	line, ok = s.NavigateDown()
	if !ok || line != "cd /tmp" {
		t.Fatalf("1st down=%q,%v", line, ok)
	}
	line, ok = s.NavigateDown()
	if !ok || line != "git status" {
		t.Fatalf("2nd down=%q,%v", line, ok)
	}
	if _, ok := s.NavigateDown(); ok {
		t.Fatal("3rd down should report exhausted (draft restore is the caller's job)")
	}
}

// TestDedup encodes property #8: with IgnoreDuplicate, count after
// add(x); add(x) equals count after add(x).
func TestDedup(t *testing.T) {
	s := newTestStore(t)
	s.Add("same", 0)
	countAfterOne := s.Count()
	s.Add("same", 1)
	if s.Count() != countAfterOne {
		t.Fatalf("count=%d after duplicate add, want %d", s.Count(), countAfterOne)
	}
}

// TestGlobalIndexMonotonic encodes property #9.
func TestGlobalIndexMonotonic(t *testing.T) {
	s := newTestStore(t)
	var last uint64
	first := true
	for _, line := range []string{"a", "b", "c", "d"} {
		s.Add(line, 0)
		e, _ := s.Get(0)
		if !first && e.GlobalIndex <= last {
			t.Fatalf("global index did not strictly increase: %d <= %d", e.GlobalIndex, last)
		}
		last = e.GlobalIndex
		first = false
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 3
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"one", "two", "three", "four"} {
		s.Add(line, 0)
	}
	if s.Count() != 3 {
		t.Fatalf("count=%d, want 3 (capacity)", s.Count())
	}
	e, _ := s.Get(2)
	if e.Line != "two" {
		t.Fatalf("oldest surviving=%q, want %q (one evicted)", e.Line, "two")
	}
}

func TestIgnoreSpaceLeadingDrop(t *testing.T) {
	s := newTestStore(t)
	added, err := s.Add(" secret", 0)
	if err != nil {
		t.Fatal(err)
	}
	if added || s.Count() != 0 {
		t.Fatalf("leading-space line should be dropped silently")
	}
}

func TestLineTooLong(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLineLength = 4
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Add("toolong", 0)
	var herr *Error
	if err == nil {
		t.Fatal("expected LineTooLong error")
	}
	if ok := errorsAs(err, &herr); !ok || herr.Kind != LineTooLong {
		t.Fatalf("got %v", err)
	}
}

func TestSearchNextPrev(t *testing.T) {
	s := newTestStore(t)
	for _, line := range []string{"ls -la", "cd /tmp", "git status", "git commit"} {
		s.Add(line, 0)
	}
	s.SearchStart("git")
	line, ok := s.SearchNext()
	if !ok || line != "git commit" {
		t.Fatalf("1st search_next=%q,%v", line, ok)
	}
	line, ok = s.SearchNext()
	if !ok || line != "git status" {
		t.Fatalf("2nd search_next=%q,%v", line, ok)
	}
	if _, ok := s.SearchNext(); ok {
		t.Fatal("expected no more matches")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	for _, line := range []string{"alpha", "beta", "gamma"} {
		s.Add(line, 0)
	}
	path := filepath.Join(t.TempDir(), "history")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	s2 := newTestStore(t)
	if err := s2.Load(path, 0); err != nil {
		t.Fatal(err)
	}
	if s2.Count() != 3 {
		t.Fatalf("count=%d, want 3", s2.Count())
	}
	e, _ := s2.Get(0)
	if e.Line != "gamma" {
		t.Fatalf("newest after load=%q, want gamma", e.Line)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	err := s.Load(filepath.Join(t.TempDir(), "nonexistent"), 0)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if s.Count() != 0 {
		t.Fatal("expected empty store")
	}
}

func TestInvalidCapacity(t *testing.T) {
	if _, err := New(Config{Capacity: 0}); err == nil {
		t.Fatal("expected InvalidSize error")
	}
}

func TestFuzzySearch(t *testing.T) {
	s := newTestStore(t)
	for _, line := range []string{"git commit -m foo", "go build ./...", "grep -rn foo"} {
		s.Add(line, 0)
	}
	results := s.FuzzySearch("gt")
	found := false
	for _, r := range results {
		if r == "git commit -m foo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fuzzy match for 'gt' among %v", results)
	}
}

func errorsAs(err error, target **Error) bool {
	herr, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = herr
	return true
}
