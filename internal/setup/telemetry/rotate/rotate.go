// Package rotate provides a file writer that keeps only the most recent lines.
package rotate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer appends to a log file and, once it has seen twice its capacity,
// rewrites the file so only the newest lines remain.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	tail     [][]byte
	next     int
	filled   bool
	capacity int
	written  int
}

// Open opens or creates the log file at path, keeping at most maxLines lines.
func Open(path string, maxLines int) (*Writer, error) {
	if maxLines <= 0 {
		return nil, fmt.Errorf("invalid line capacity: %d", maxLines)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &Writer{
		file:     file,
		path:     path,
		tail:     make([][]byte, maxLines),
		capacity: maxLines,
	}, nil
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range bytes.SplitSeq(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		w.remember(line)

		if w.written >= w.capacity*2 {
			if err := w.compact(); err != nil {
				return n, fmt.Errorf("failed to rotate log file: %w", err)
			}
		}
	}

	return n, nil
}

// Sync flushes the underlying file.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// Lines returns the retained lines, oldest first.
func (w *Writer) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ordered := w.ordered()
	lines := make([]string, len(ordered))
	for i, line := range ordered {
		lines[i] = string(line)
	}

	return lines
}

func (w *Writer) remember(line []byte) {
	w.tail[w.next] = bytes.Clone(line)
	w.next = (w.next + 1) % w.capacity
	if w.next == 0 {
		w.filled = true
	}

	w.written++
}

func (w *Writer) ordered() [][]byte {
	if !w.filled {
		return w.tail[:w.next]
	}

	out := make([][]byte, 0, w.capacity)
	out = append(out, w.tail[w.next:]...)

	return append(out, w.tail[:w.next]...)
}

// compact replaces the file with the retained lines.
func (w *Writer) compact() error {
	temp, err := os.CreateTemp(filepath.Dir(w.path), "rotate-")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	content := append(bytes.Join(w.ordered(), []byte("\n")), '\n')
	if _, err := temp.Write(content); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	w.file.Close()
	os.Remove(w.path)

	if err := os.Rename(tempPath, w.path); err != nil {
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file
	w.written = min(w.written, w.capacity)

	return nil
}
