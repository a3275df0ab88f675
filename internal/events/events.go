// Package events defines the semantic events a classified record turns
// into. The set is closed: every concrete type lives here and the
// dispatcher switches over them exhaustively.
package events

import (
	"encoding/hex"
	"fmt"

	"github.com/mrzor/tracelog-converter/internal/labels"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// Event names as they appear in emitted traces.
const (
	NamePrintf      = "printf"
	NameBinary      = "binary"
	NameIRQEntry    = "irq_handler_entry"
	NameIRQExit     = "irq_handler_exit"
	NameSchedSwitch = "sched_switch"
	NamePreempt     = "KERNEL_EVLOG_PREEMPT"
	NameTimerTick   = "KERNEL_EVLOG_TIMER_TICK"
	NameTimerCall   = "KERNEL_EVLOG_TIMER_CALL"
	NameAFControl   = "AFCTRL"
	NameAFData      = "AF"
)

// Field is one named value of an event, in emission order.
type Field struct {
	Key   string
	Value any
}

// Meta is what every event carries over from its record.
type Meta struct {
	Timestamp uint64
	CPU       uint8
	Type      tracelog.Type
	Subtype   uint8
	// Raw is the undecoded payload.
	Raw []byte
	// Thread is the thread running on CPU when the record was written,
	// empty until the first context switch on that CPU.
	Thread string
}

// MetaFrom copies the record envelope.
func MetaFrom(rec *tracelog.Record) Meta {
	return Meta{
		Timestamp: rec.Timestamp,
		CPU:       rec.CPU,
		Type:      rec.Type,
		Subtype:   rec.Subtype,
		Raw:       rec.Payload,
	}
}

// Base returns the envelope.
func (m *Meta) Base() *Meta { return m }

// Category is the major type name.
func (m *Meta) Category() string { return m.Type.String() }

func (m *Meta) sealed() {}

// Event is implemented by the types of this package only.
type Event interface {
	// Base returns the record metadata shared by every event.
	Base() *Meta
	// Category is the major type name, used as the trace category.
	Category() string
	// Name is the event name written to the trace.
	Name() string
	// Fields lists the decoded values in output order.
	Fields() []Field
	sealed()
}

// String is a free-form text record.
type String struct {
	Meta
	Text string
}

func (*String) Name() string { return NamePrintf }

func (e *String) Fields() []Field {
	return []Field{{"_str", e.Text}}
}

// Binary is an opaque blob.
type Binary struct {
	Meta
	Data []byte
}

func (*Binary) Name() string { return NameBinary }

// Hex returns the blob as lowercase hex.
func (e *Binary) Hex() string { return hex.EncodeToString(e.Data) }

func (e *Binary) Fields() []Field {
	return []Field{{"_hex", e.Hex()}}
}

// IRQEntry marks an interrupt handler starting.
type IRQEntry struct {
	Meta
	IRQ uint8
}

func (*IRQEntry) Name() string { return NameIRQEntry }

// Handler is the handler label, "#<irq>".
func (e *IRQEntry) Handler() string { return fmt.Sprintf("#%d", e.IRQ) }

func (e *IRQEntry) Fields() []Field {
	return []Field{{"_irq", int64(e.IRQ)}, {"_name", e.Handler()}}
}

// IRQExit marks an interrupt handler returning. The firmware does not log a
// return value, Ret is always 0.
type IRQExit struct {
	Meta
	IRQ uint8
	Ret int64
}

func (*IRQExit) Name() string { return NameIRQExit }

func (e *IRQExit) Fields() []Field {
	return []Field{{"_irq", int64(e.IRQ)}, {"_ret", e.Ret}}
}

// SwitchPrevState is reported for every outgoing thread.
const SwitchPrevState = 1

// SchedSwitch is a context switch.
type SchedSwitch struct {
	Meta
	PrevComm  string
	PrevTID   uint32
	PrevPrio  uint32
	PrevState int64
	NextComm  string
	NextTID   uint32
	NextPrio  uint32
}

func (*SchedSwitch) Name() string { return NameSchedSwitch }

func (e *SchedSwitch) Fields() []Field {
	return []Field{
		{"_prev_comm", e.PrevComm},
		{"_prev_tid", int64(e.PrevTID)},
		{"_prev_prio", int64(e.PrevPrio)},
		{"_prev_state", e.PrevState},
		{"_next_comm", e.NextComm},
		{"_next_tid", int64(e.NextTID)},
		{"_next_prio", int64(e.NextPrio)},
	}
}

// Preempt is a thread losing the CPU before it blocked.
type Preempt struct {
	Meta
	Comm string
	TID  uint32
	Prio uint32
}

func (*Preempt) Name() string { return NamePreempt }

func (e *Preempt) Fields() []Field {
	return []Field{{"_tid", int64(e.TID)}, {"_comm", e.Comm}}
}

// TimerTick is the periodic system tick.
type TimerTick struct {
	Meta
}

func (*TimerTick) Name() string { return NameTimerTick }

func (*TimerTick) Fields() []Field { return nil }

// TimerCall is a timer callback being run.
type TimerCall struct {
	Meta
	Callback uint64
	Arg      uint64
}

func (*TimerCall) Name() string { return NameTimerCall }

func (e *TimerCall) Fields() []Field {
	return []Field{{"_call", e.Callback}, {"_arg", e.Arg}}
}

// AFControl is a control plane message crossing an audio pipeline stage.
type AFControl struct {
	Meta
	Stage  uint8
	Dir    uint8
	Opcode uint32
}

func (*AFControl) Name() string { return NameAFControl }

// StageName labels the pipeline stage.
func (e *AFControl) StageName() string { return labels.Stage(e.Stage) }

// DirName labels the message direction.
func (e *AFControl) DirName() string { return labels.Direction(e.Dir) }

// OpcodeName labels the control opcode.
func (e *AFControl) OpcodeName() string { return labels.Opcode(e.Opcode) }

func (e *AFControl) Fields() []Field {
	return []Field{
		{"__id", e.StageName()},
		{"__io", e.DirName()},
		{"_opc", e.OpcodeName()},
	}
}

// AFData is an audio buffer crossing a pipeline stage.
type AFData struct {
	Meta
	Stage         uint8
	Dir           uint8
	ID            uint32
	Magic         uint32
	SampleRate    uint32
	BitsPerSample uint32
	NumChannels   uint32
	Format        uint32
	ChunkSize     uint32
	Endian        uint8
	Sign          uint8
}

func (*AFData) Name() string { return NameAFData }

// StageName labels the pipeline stage.
func (e *AFData) StageName() string { return labels.Stage(e.Stage) }

// DirName labels the buffer direction.
func (e *AFData) DirName() string { return labels.Direction(e.Dir) }

// Fields omits Magic, it only tags the buffer.
func (e *AFData) Fields() []Field {
	return []Field{
		{"__id", e.StageName()},
		{"__io", e.DirName()},
		{"_id", int64(e.ID)},
		{"_sample_rate", int64(e.SampleRate)},
		{"_bits_per_sample", int64(e.BitsPerSample)},
		{"_num_channels", int64(e.NumChannels)},
		{"_format", int64(e.Format)},
		{"_chunk_size", int64(e.ChunkSize)},
		{"_endian", int64(e.Endian)},
		{"_sign", int64(e.Sign)},
	}
}

// FieldMap returns the fields of e keyed by name.
func FieldMap(e Event) map[string]any {
	fields := e.Fields()
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}
