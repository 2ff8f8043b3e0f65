// Package textbuf implements the edited text buffer: a growable UTF-8 byte
// vector with a boundary-respecting cursor. Storage grows exponentially up
// to a hard cap, with no silent truncation.
package textbuf

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/kungfusheep/lineedit/internal/unicodescan"
)

// Errors returned by Buffer operations. None of these panic — every
// operation either mutates the buffer or returns one of these.
var (
	ErrOutOfBounds      = errors.New("textbuf: offset out of bounds")
	ErrNonBoundary      = errors.New("textbuf: offset is not a utf8 boundary")
	ErrCapacityExceeded = errors.New("textbuf: capacity exceeded")
	ErrInvalidUTF8      = errors.New("textbuf: invalid utf8")
	ErrControlByte      = errors.New("textbuf: control byte not allowed")
)

// MaxCapacity is the hard cap on buffer size.
const MaxCapacity = 100 * 1024

const initialCapacity = 64

// Buffer owns the edited byte vector and cursor.
type Buffer struct {
	bytes      []byte // len(bytes) == capacity; only bytes[0:length] is valid content
	length     int
	cursorByte int
	charCount  int
}

// New creates an empty buffer with an initial capacity of at least 64 bytes.
func New() *Buffer {
	return &Buffer{bytes: make([]byte, initialCapacity)}
}

// Bytes returns the valid content. The returned slice aliases internal
// storage and must not be retained across further mutation.
func (b *Buffer) Bytes() []byte { return b.bytes[:b.length] }

// Len returns the number of valid bytes.
func (b *Buffer) Len() int { return b.length }

// CursorByte returns the current cursor byte offset.
func (b *Buffer) CursorByte() int { return b.cursorByte }

// CharCount returns the cached codepoint count.
func (b *Buffer) CharCount() int { return b.charCount }

// String returns the valid content as a string (copies).
func (b *Buffer) String() string { return string(b.Bytes()) }

func (b *Buffer) grow(extra int) error {
	needed := b.length + extra
	if needed <= cap(b.bytes) {
		b.bytes = b.bytes[:cap(b.bytes)]
		return nil
	}
	if needed > MaxCapacity {
		return ErrCapacityExceeded
	}
	newCap := cap(b.bytes)
	if newCap == 0 {
		newCap = initialCapacity
	}
	for newCap < needed {
		newCap *= 2
	}
	if newCap > MaxCapacity {
		newCap = MaxCapacity
	}
	grown := make([]byte, newCap)
	copy(grown, b.bytes[:b.length])
	b.bytes = grown
	return nil
}

// InsertCodepoint encodes r as UTF-8 and inserts it at the cursor, advancing
// the cursor past it.
func (b *Buffer) InsertCodepoint(r rune) error {
	var enc [utf8.UTFMax]byte
	n := utf8.EncodeRune(enc[:], r)
	return b.InsertSlice(enc[:n])
}

// InsertSlice validates data as UTF-8 containing no disallowed control
// codepoints and inserts it at the cursor, advancing the cursor past the
// inserted bytes. A caller wanting to insert raw ANSI/escape sequences
// must do so outside the buffer, e.g. via a color-aware renderer.
func (b *Buffer) InsertSlice(data []byte) error {
	if !unicodescan.Validate(data) {
		return ErrInvalidUTF8
	}
	if containsControl(data) {
		return ErrControlByte
	}
	if err := b.grow(len(data)); err != nil {
		return err
	}
	copy(b.bytes[b.cursorByte+len(data):b.length+len(data)], b.bytes[b.cursorByte:b.length])
	copy(b.bytes[b.cursorByte:], data)
	b.length += len(data)
	b.cursorByte += len(data)
	b.charCount += unicodescan.CountCodepoints(data)
	return nil
}

// DeleteForward deletes the codepoint at the cursor, if any.
func (b *Buffer) DeleteForward() error {
	if b.cursorByte >= b.length {
		return nil // NoOp: nothing to the right
	}
	end := unicodescan.NextBoundary(b.Bytes(), b.cursorByte)
	return b.DeleteRange(b.cursorByte, end)
}

// Backspace deletes the codepoint before the cursor, if any.
func (b *Buffer) Backspace() error {
	if b.cursorByte <= 0 {
		return nil // NoOp: nothing to the left
	}
	start := unicodescan.PrevBoundary(b.Bytes(), b.cursorByte)
	return b.DeleteRange(start, b.cursorByte)
}

// DeleteRange deletes bytes[start:end]. Both must be boundary offsets with
// 0 <= start <= end <= Len(). Cursor policy: if cursor >= end, cursor moves
// left by (end-start); else if cursor > start, cursor becomes start;
// otherwise the cursor is unaffected.
func (b *Buffer) DeleteRange(start, end int) error {
	if start < 0 || end > b.length || start > end {
		return ErrOutOfBounds
	}
	if !b.onBoundary(start) || !b.onBoundary(end) {
		return ErrNonBoundary
	}
	if start == end {
		return nil
	}
	removed := b.Bytes()[start:end]
	b.charCount -= unicodescan.CountCodepoints(removed)
	copy(b.bytes[start:], b.bytes[end:b.length])
	b.length -= (end - start)

	switch {
	case b.cursorByte >= end:
		b.cursorByte -= (end - start)
	case b.cursorByte > start:
		b.cursorByte = start
	}
	return nil
}

// SetCursorByte moves the cursor to pos, which must be a boundary offset
// within [0, Len()].
func (b *Buffer) SetCursorByte(pos int) error {
	if pos < 0 || pos > b.length {
		return ErrOutOfBounds
	}
	if !b.onBoundary(pos) {
		return ErrNonBoundary
	}
	b.cursorByte = pos
	return nil
}

// containsControl reports whether data decodes to any disallowed C0/C1
// control codepoint (tab excepted).
func containsControl(data []byte) bool {
	i := 0
	for i < len(data) {
		r, size, err := unicodescan.DecodeAt(data, i)
		if err != nil {
			size = 1
		}
		if unicodescan.IsControl(r) {
			return true
		}
		i += size
	}
	return false
}

func (b *Buffer) onBoundary(pos int) bool {
	if pos == 0 || pos == b.length {
		return true
	}
	return unicodescan.NextBoundary(b.Bytes(), unicodescan.PrevBoundary(b.Bytes(), pos)) == pos
}

// MoveLeft moves the cursor back one codepoint, treating zero-width
// codepoints as part of the codepoint before them so the cursor never
// stops between a base codepoint and its combining marks. NoOp at offset 0.
func (b *Buffer) MoveLeft() {
	content := b.Bytes()
	pos := unicodescan.PrevBoundary(content, b.cursorByte)
	for pos > 0 {
		r, _, err := unicodescan.DecodeAt(content, pos)
		if err != nil || !unicodescan.IsZeroWidth(r) {
			break
		}
		pos = unicodescan.PrevBoundary(content, pos)
	}
	b.cursorByte = pos
}

// MoveRight moves the cursor forward one codepoint, stepping over any
// zero-width codepoints that follow it. NoOp at Len().
func (b *Buffer) MoveRight() {
	content := b.Bytes()
	pos := unicodescan.NextBoundary(content, b.cursorByte)
	for pos < b.length {
		r, _, err := unicodescan.DecodeAt(content, pos)
		if err != nil || !unicodescan.IsZeroWidth(r) {
			break
		}
		pos = unicodescan.NextBoundary(content, pos)
	}
	b.cursorByte = pos
}

// MoveHome moves the cursor to offset 0.
func (b *Buffer) MoveHome() { b.cursorByte = 0 }

// MoveEnd moves the cursor to Len().
func (b *Buffer) MoveEnd() { b.cursorByte = b.length }

// isWordSep classifies a codepoint as a word separator: ASCII punctuation
// or Unicode whitespace. Used by MoveWordLeft/MoveWordRight.
func isWordSep(r rune) bool {
	return unicode.IsSpace(r) || (r < utf8.RuneSelf && (unicode.IsPunct(r) || unicode.IsSymbol(r)))
}

// MoveWordLeft moves the cursor to the start of the previous word: one
// codepoint back, skip separators, then skip the word to its start.
func (b *Buffer) MoveWordLeft() {
	content := b.Bytes()
	pos := b.cursorByte
	if pos == 0 {
		return
	}
	pos = unicodescan.PrevBoundary(content, pos)
	for pos > 0 {
		r, _, _ := unicodescan.DecodeAt(content, pos)
		if !isWordSep(r) {
			break
		}
		pos = unicodescan.PrevBoundary(content, pos)
	}
	for pos > 0 {
		prev := unicodescan.PrevBoundary(content, pos)
		r, _, _ := unicodescan.DecodeAt(content, prev)
		if isWordSep(r) {
			break
		}
		pos = prev
	}
	b.cursorByte = pos
}

// MoveWordRight moves the cursor to the start of the next word: skip the
// current word, skip separators, land on the next word's first codepoint.
func (b *Buffer) MoveWordRight() {
	content := b.Bytes()
	pos := b.cursorByte
	for pos < b.length {
		r, size, _ := unicodescan.DecodeAt(content, pos)
		if isWordSep(r) {
			break
		}
		pos += size
	}
	for pos < b.length {
		r, size, _ := unicodescan.DecodeAt(content, pos)
		if !isWordSep(r) {
			break
		}
		pos += size
	}
	b.cursorByte = pos
}

// Clear empties the buffer and resets the cursor.
func (b *Buffer) Clear() {
	b.length = 0
	b.cursorByte = 0
	b.charCount = 0
}
