package output

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

// TextWriter renders entries the way the firmware's "tracelog list" command
// prints them:
//
//	[ 1500000.1 | type: 1 | subtype: 1 ]: Context switch from "idle" ...
//
// Custom attributes are appended as key=value pairs.
type TextWriter struct {
	file *pendingFile
	w    *bufio.Writer
	done bool
}

// NewTextWriter creates a listing that will replace path on Close.
func NewTextWriter(path string) (*TextWriter, error) {
	file, err := createPending(path)
	if err != nil {
		return nil, err
	}
	return &TextWriter{file: file, w: bufio.NewWriter(file)}, nil
}

// FormatLine renders one entry without the trailing newline.
func FormatLine(e *Entry) string {
	base := e.Event.Base()

	var b strings.Builder
	fmt.Fprintf(&b, "[ %d.%d | type: %d | subtype: %d ]: %s",
		base.Timestamp, base.CPU, uint8(base.Type), base.Subtype, e.Message)
	for _, f := range e.Extra {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

// WriteEntry appends one line to the buffered listing.
func (t *TextWriter) WriteEntry(e *Entry) error {
	if t.done {
		return errors.New("text writer is closed")
	}
	if _, err := t.w.WriteString(FormatLine(e) + "\n"); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	return nil
}

// Close flushes the listing and renames it over the destination. A failed
// flush discards the temporary file.
func (t *TextWriter) Close() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.w.Flush(); err != nil {
		_ = t.file.discard()
		return fmt.Errorf("failed to flush listing: %w", err)
	}
	return t.file.commit()
}

// Abort discards the temporary file. The destination is left untouched.
func (t *TextWriter) Abort() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.file.discard()
}
