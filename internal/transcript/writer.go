// Package transcript writes recognized chunk text to the run's transcript file.
package transcript

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// FormatLine renders one transcript line: the chunk label padded to ten
// characters after "chunk", then the text and a closing period.
func FormatLine(index int, text string) string {
	return fmt.Sprintf("chunk%-10s: %s.\n", strconv.Itoa(index), text)
}

// Writer appends lines to a transcript file opened for the whole run.
type Writer struct {
	path  string
	file  *os.File
	buf   *bufio.Writer
	lines int
}

// Create truncates (or creates) the transcript at path.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}
	return &Writer{path: path, file: f, buf: bufio.NewWriter(f)}, nil
}

// WriteLine appends the line for a recognized chunk and flushes it to disk,
// so an aborted run still leaves every line written so far.
func (w *Writer) WriteLine(index int, text string) error {
	if _, err := w.buf.WriteString(FormatLine(index, text)); err != nil {
		return fmt.Errorf("write transcript line: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush transcript: %w", err)
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written.
func (w *Writer) Lines() int {
	return w.lines
}

// Path returns the transcript file path.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes and closes the file. Safe to call more than once.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return fmt.Errorf("flush transcript: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close transcript: %w", closeErr)
	}
	return nil
}
