package output

import (
	"github.com/mrzor/tracelog-converter/internal/events"
)

// Entry is one formatted event.
type Entry struct {
	Event events.Event
	// Message is the firmware's rendering of the event.
	Message string
	// Extra holds the custom attribute fields.
	Extra []events.Field
}

// Fields returns the event fields followed by the custom attributes.
func (e *Entry) Fields() []events.Field {
	fields := e.Event.Fields()
	if len(e.Extra) == 0 {
		return fields
	}
	out := make([]events.Field, 0, len(fields)+len(e.Extra))
	out = append(out, fields...)
	return append(out, e.Extra...)
}

// FieldMap returns Fields keyed by name.
func (e *Entry) FieldMap() map[string]any {
	fields := e.Fields()
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

// Writer persists entries. Exactly one of Close or Abort ends its life:
// Close commits everything written, Abort discards it.
type Writer interface {
	WriteEntry(e *Entry) error
	Close() error
	Abort() error
}
