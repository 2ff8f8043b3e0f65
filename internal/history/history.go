// Package history implements the ring-buffer History store: fixed
// capacity, deduplicating, timestamped, file-persisted, with a navigation
// cursor for HistoryUp/Down and a reverse-substring search mode. It uses a
// fixed backing array with explicit eviction and no reference counting.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kungfusheep/lineedit/internal/fuzzyquery"
)

// ErrKind enumerates HistoryError failure modes.
type ErrKind int

const (
	NotInitialized ErrKind = iota
	InvalidSize
	AllocFailed
	FileOpen
	FileRead
	FileWrite
	LineTooLong
	Empty
	NotFound
)

func (k ErrKind) String() string {
	switch k {
	case NotInitialized:
		return "not initialized"
	case InvalidSize:
		return "invalid size"
	case AllocFailed:
		return "alloc failed"
	case FileOpen:
		return "file open"
	case FileRead:
		return "file read"
	case FileWrite:
		return "file write"
	case LineTooLong:
		return "line too long"
	case Empty:
		return "empty"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is the typed HistoryError. Never raised by panic.
type Error struct {
	Kind ErrKind
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("history: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("history: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrKind, cause error) *Error { return &Error{Kind: kind, Err: cause} }

// DefaultCapacity is the default ring size.
const DefaultCapacity = 10000

// DefaultMaxLineLength is the default per-entry byte cap.
const DefaultMaxLineLength = 8192

// Entry is one history record.
type Entry struct {
	Line        string
	Timestamp   int64 // unix nanos; caller-supplied, never read from the wall clock here
	GlobalIndex uint64
}

// Config controls dedup/ignore-space/size policy.
type Config struct {
	Capacity        int
	MaxLineLength   int
	IgnoreSpace     bool
	IgnoreDuplicate bool
	CaseSensitive   bool // search_next/search_prev substring matching
}

// DefaultConfig returns the stated default policy.
func DefaultConfig() Config {
	return Config{
		Capacity:        DefaultCapacity,
		MaxLineLength:   DefaultMaxLineLength,
		IgnoreSpace:     true,
		IgnoreDuplicate: true,
		CaseSensitive:   true,
	}
}

// Store is the History ring. Not safe for concurrent use: the in-memory
// store is single-threaded, and cross-process sharing must go through
// Save/Load instead.
type Store struct {
	cfg Config

	ring  []Entry
	head  int // physical slot of the oldest live entry
	count int

	nextGlobalIndex uint64

	navIndex int // logical index into the ring during HistoryUp/Down, -1 = not navigating

	searchPattern  string
	searchPosition int // logical index of the last match; -1 means "newest end, no match yet"
}

// New creates a Store. Returns InvalidSize if cfg.Capacity <= 0.
func New(cfg Config) (*Store, error) {
	if cfg.Capacity <= 0 {
		return nil, newErr(InvalidSize, nil)
	}
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = DefaultMaxLineLength
	}
	return &Store{
		cfg:      cfg,
		ring:     make([]Entry, cfg.Capacity),
		navIndex: -1,
	}, nil
}

// Count returns the number of live entries.
func (s *Store) Count() int { return s.count }

// Get returns the logical i-th entry (0 = newest).
func (s *Store) Get(i int) (Entry, bool) {
	if s == nil || i < 0 || i >= s.count {
		return Entry{}, false
	}
	slot := s.physicalSlot(i)
	return s.ring[slot], true
}

func (s *Store) physicalSlot(i int) int {
	capacity := len(s.ring)
	if s.count < capacity {
		return (s.head + s.count - 1 - i + capacity) % capacity
	}
	// Ring is full; head is the oldest, most-recent slot is (head+count-1)%capacity.
	mostRecent := (s.head + s.count - 1) % capacity
	return (mostRecent - i + capacity) % capacity
}

// Add inserts line with a caller-supplied timestamp; the store never calls
// the wall clock itself, which also keeps it trivially testable.
//
// Rejects: empty after trim, length over the configured
// max, leading-space when IgnoreSpace, or equal to the newest line when
// IgnoreDuplicate. Returns (added, error); added is false for a silent
// drop, which is not an error.
func (s *Store) Add(line string, timestamp int64) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false, nil
	}
	if len(line) > s.cfg.MaxLineLength {
		return false, newErr(LineTooLong, nil)
	}
	if s.cfg.IgnoreSpace && len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
		return false, nil
	}
	if s.cfg.IgnoreDuplicate && s.count > 0 {
		newest, _ := s.Get(0)
		if newest.Line == line {
			return false, nil
		}
	}

	entry := Entry{Line: line, Timestamp: timestamp, GlobalIndex: s.nextGlobalIndex}
	s.nextGlobalIndex++

	capacity := len(s.ring)
	if s.count < capacity {
		slot := (s.head + s.count) % capacity
		s.ring[slot] = entry
		s.count++
	} else {
		s.ring[s.head] = entry
		s.head = (s.head + 1) % capacity
	}
	return true, nil
}

// NavigateUp implements EditCommands' HistoryUp: on the first call within a
// fresh navigation, draft is recorded by the caller (editcmd.Dispatcher), not
// here — Store only walks the logical index and reports the entry line.
// Returns ok=false once past the oldest entry.
func (s *Store) NavigateUp(draft string) (string, bool) {
	if s.count == 0 {
		return "", false
	}
	if s.navIndex == -1 {
		s.navIndex = 0
	} else if s.navIndex < s.count-1 {
		s.navIndex++
	} else {
		return "", false
	}
	e, ok := s.Get(s.navIndex)
	if !ok {
		return "", false
	}
	return e.Line, true
}

// NavigateDown implements HistoryDown. Returns ok=false once the caller has
// navigated back past the newest entry (the caller then restores its draft
// and calls ResetNav).
func (s *Store) NavigateDown() (string, bool) {
	if s.navIndex == -1 {
		return "", false
	}
	if s.navIndex == 0 {
		s.navIndex = -1
		return "", false
	}
	s.navIndex--
	e, ok := s.Get(s.navIndex)
	if !ok {
		return "", false
	}
	return e.Line, true
}

// ResetNav clears the navigation cursor.
func (s *Store) ResetNav() { s.navIndex = -1 }

// SearchStart stores pattern and resets the search position to the newest
// end.
func (s *Store) SearchStart(pattern string) {
	s.searchPattern = pattern
	s.searchPosition = -1
}

// SearchNext returns the next older entry whose line contains the pattern
// as a substring.
func (s *Store) SearchNext() (string, bool) {
	return s.searchDirection(1)
}

// SearchPrev is SearchNext's reverse.
func (s *Store) SearchPrev() (string, bool) {
	return s.searchDirection(-1)
}

func (s *Store) searchDirection(step int) (string, bool) {
	if s.searchPattern == "" {
		return "", false
	}
	i := s.searchPosition + step
	for i >= 0 && i < s.count {
		e, ok := s.Get(i)
		if ok && s.matches(e.Line) {
			s.searchPosition = i
			return e.Line, true
		}
		i += step
	}
	return "", false
}

func (s *Store) matches(line string) bool {
	if s.cfg.CaseSensitive {
		return strings.Contains(line, s.searchPattern)
	}
	return strings.Contains(strings.ToLower(line), strings.ToLower(s.searchPattern))
}

// SearchEnd clears the search pattern.
func (s *Store) SearchEnd() {
	s.searchPattern = ""
	s.searchPosition = 0
}

// FuzzySearch ranks all entries against a fuzzyquery pattern, newest-biased
// on ties, using junegunn/fzf's scoring. This supplements, never replaces,
// SearchNext/Prev's literal substring contract.
func (s *Store) FuzzySearch(pattern string) []string {
	q := fuzzyquery.Parse(pattern)
	if q.Empty() {
		return nil
	}
	lines := make([]string, s.count)
	for i := 0; i < s.count; i++ {
		e, _ := s.Get(i)
		lines[i] = e.Line
	}
	return fuzzyquery.RankBySelf(q, lines)
}

// Save writes all entries oldest-first, UTF-8, one per line, truncating
// path. Atomicity (write-temp + rename) is the caller's concern.
func (s *Store) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return newErr(FileOpen, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := s.count - 1; i >= 0; i-- {
		e, _ := s.Get(i)
		if _, err := w.WriteString(e.Line); err != nil {
			return newErr(FileWrite, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return newErr(FileWrite, err)
		}
	}
	if err := w.Flush(); err != nil {
		return newErr(FileWrite, err)
	}
	return nil
}

// Load reads entries oldest-first from path, applying the same dedup/ignore
// rules as Add. A missing file is treated as empty, not an error. Each
// loaded entry is stamped with timestamp (the caller supplies "now" once,
// since Store never touches the wall clock).
func (s *Store) Load(path string, timestamp int64) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return newErr(FileOpen, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, s.cfg.MaxLineLength), s.cfg.MaxLineLength+1)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := s.Add(line, timestamp); err != nil {
			var herr *Error
			if errors.As(err, &herr) && herr.Kind == LineTooLong {
				continue
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return newErr(FileRead, err)
	}
	return nil
}
