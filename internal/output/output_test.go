package output

import (
	"errors"

	"github.com/mrzor/tracelog-converter/internal/events"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// memoryWriter keeps entries in memory.
type memoryWriter struct {
	entries  []*Entry
	failOn   int
	closed   bool
	aborted  bool
	closeErr error
}

func (m *memoryWriter) WriteEntry(e *Entry) error {
	if m.failOn > 0 && len(m.entries)+1 == m.failOn {
		return errors.New("write refused")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryWriter) Close() error {
	m.closed = true
	return m.closeErr
}

func (m *memoryWriter) Abort() error {
	m.aborted = true
	return nil
}

func meta(ts uint64, cpu uint8, typ tracelog.Type, subtype uint8) events.Meta {
	return events.Meta{Timestamp: ts, CPU: cpu, Type: typ, Subtype: subtype}
}

func sampleEntries() []*Entry {
	return []*Entry{
		{
			Event:   &events.String{Meta: meta(50_000, 1, tracelog.TypeString, 0), Text: "b"},
			Message: "b",
		},
		{
			Event: &events.Binary{
				Meta: events.Meta{Timestamp: 75_000, CPU: 2, Type: tracelog.TypeBinary, Raw: []byte{0xff}},
				Data: []byte{0xff},
			},
			Message: "Binary data size: 1 bytes",
		},
		{
			Event: &events.SchedSwitch{
				Meta:      meta(100_500, 0, tracelog.TypeKernel, tracelog.KernelContextSwitch),
				PrevComm:  "idle",
				PrevState: events.SwitchPrevState,
				NextComm:  "worker",
				NextTID:   42,
			},
			Message: `Context switch from "idle" [TID: 0, prio: 0] to "worker" [TID: 42, prio: 0]`,
			Extra:   []events.Field{{Key: "board", Value: "evk"}},
		},
	}
}
