package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
)

// Chrome Trace Event Format phases used here.
const (
	phaseInstant  = "i"
	phaseMetadata = "M"
)

// chromeEvent is one element of traceEvents.
type chromeEvent struct {
	Name      string         `json:"name"`
	Category  string         `json:"cat,omitempty"`
	Phase     string         `json:"ph"`
	Scope     string         `json:"s,omitempty"`
	Timestamp float64        `json:"ts"`
	ProcessID int            `json:"pid"`
	ThreadID  int            `json:"tid"`
	Args      map[string]any `json:"args,omitempty"`
}

// ChromeWriter writes a Chrome Trace Event Format document. Lanes show up as
// threads of a single process; every event is a thread-scoped instant event.
type ChromeWriter struct {
	file      *pendingFile
	w         *bufio.Writer
	otherData map[string]any
	count     int
	done      bool
}

// NewChromeWriter starts a document that will replace path on Close.
// processName and lanes only feed the viewer's metadata; otherData lands in
// the top level "otherData" object.
func NewChromeWriter(path, processName string, lanes int, otherData map[string]any) (*ChromeWriter, error) {
	file, err := createPending(path)
	if err != nil {
		return nil, err
	}

	if otherData == nil {
		otherData = map[string]any{}
	}

	c := &ChromeWriter{
		file:      file,
		w:         bufio.NewWriter(file),
		otherData: otherData,
	}

	if _, err := c.w.WriteString(`{"traceEvents":[`); err != nil {
		_ = file.discard()
		return nil, fmt.Errorf("failed to write trace header: %w", err)
	}

	meta := []chromeEvent{{
		Name:  "process_name",
		Phase: phaseMetadata,
		Args:  map[string]any{"name": processName},
	}}
	for lane := 0; lane < lanes; lane++ {
		meta = append(meta, chromeEvent{
			Name:     "thread_name",
			Phase:    phaseMetadata,
			ThreadID: lane,
			Args:     map[string]any{"name": fmt.Sprintf("cpu%d", lane)},
		})
	}
	for i := range meta {
		if err := c.write(&meta[i]); err != nil {
			_ = file.discard()
			return nil, err
		}
	}
	return c, nil
}

func (c *ChromeWriter) write(ev *chromeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode trace event: %w", err)
	}
	if c.count > 0 {
		if err := c.w.WriteByte(','); err != nil {
			return fmt.Errorf("failed to write trace event: %w", err)
		}
	}
	if _, err := c.w.Write(data); err != nil {
		return fmt.Errorf("failed to write trace event: %w", err)
	}
	c.count++
	return nil
}

// WriteEntry appends an instant event.
func (c *ChromeWriter) WriteEntry(e *Entry) error {
	if c.done {
		return errors.New("chrome writer is closed")
	}
	base := e.Event.Base()
	return c.write(&chromeEvent{
		Name:      e.Event.Name(),
		Category:  base.Category(),
		Phase:     phaseInstant,
		Scope:     "t",
		Timestamp: float64(base.Timestamp) / 1e3,
		ThreadID:  int(base.CPU),
		Args:      e.FieldMap(),
	})
}

// Close finishes the document and moves it into place.
func (c *ChromeWriter) Close() error {
	if c.done {
		return nil
	}
	c.done = true

	tail, err := json.Marshal(c.otherData)
	if err != nil {
		_ = c.file.discard()
		return fmt.Errorf("failed to encode trace metadata: %w", err)
	}
	if _, err := fmt.Fprintf(c.w, `],"displayTimeUnit":"ns","otherData":%s}`+"\n", tail); err != nil {
		_ = c.file.discard()
		return fmt.Errorf("failed to write trace trailer: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		_ = c.file.discard()
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	return c.file.commit()
}

// Abort drops the document.
func (c *ChromeWriter) Abort() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.file.discard()
}
