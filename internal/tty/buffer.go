// Package tty cleans and buffers subprocess output for display.
package tty

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Buffer is a thread-safe bounded line buffer for job output. Views that
// tail a running job append into one of these and render the newest lines.
// Content hashing lets callers skip repaints when nothing changed.
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	cap      int
	lastHash uint64
}

// NewBuffer creates a buffer that retains at most capacity lines.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		lines: make([]string, 0, capacity),
		cap:   capacity,
	}
}

// Append adds a single already-stripped line, discarding the oldest line
// when the buffer is full.
func (b *Buffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.cap {
		b.lines = b.lines[len(b.lines)-b.cap:]
	}
	b.lastHash = 0
}

// Replace swaps the entire contents for the given text. Returns true when
// the content actually changed, detected via hash before any splitting.
func (b *Buffer) Replace(content string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := xxhash.Sum64String(content)
	if h == b.lastHash && len(b.lines) > 0 {
		return false
	}
	b.lastHash = h

	b.lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range b.lines {
		b.lines[i] = Strip(l)
	}
	if len(b.lines) > b.cap {
		b.lines = b.lines[len(b.lines)-b.cap:]
	}
	return true
}

// Lines returns a copy of the buffered lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Tail returns a copy of the last n lines.
func (b *Buffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := len(b.lines) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(b.lines)-start)
	copy(out, b.lines[start:])
	return out
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = b.lines[:0]
	b.lastHash = 0
}
