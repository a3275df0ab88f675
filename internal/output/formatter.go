package output

import (
	"fmt"

	"github.com/mrzor/tracelog-converter/internal/attributes"
	"github.com/mrzor/tracelog-converter/internal/events"
)

// Formatter turns events into entries for a Writer.
type Formatter struct {
	w         Writer
	evaluator *attributes.Evaluator
}

// NewFormatter creates a Formatter writing to w. evaluator may be nil.
func NewFormatter(w Writer, evaluator *attributes.Evaluator) *Formatter {
	return &Formatter{w: w, evaluator: evaluator}
}

func (f *Formatter) emit(ev events.Event, message string) error {
	entry := &Entry{Event: ev, Message: message}
	if f.evaluator.Len() > 0 {
		entry.Extra = f.evaluator.Evaluate(ev)
	}
	return f.w.WriteEntry(entry)
}

// HandleString formats a text record.
func (f *Formatter) HandleString(e *events.String) error {
	return f.emit(e, e.Text)
}

// HandleBinary formats a blob record.
func (f *Formatter) HandleBinary(e *events.Binary) error {
	return f.emit(e, fmt.Sprintf("Binary data size: %d bytes", len(e.Data)))
}

// HandleIRQEntry formats entry into an interrupt handler.
func (f *Formatter) HandleIRQEntry(e *events.IRQEntry) error {
	return f.emit(e, fmt.Sprintf("Enter handler IRQ #%d", e.IRQ))
}

// HandleIRQExit formats the return from an interrupt handler.
func (f *Formatter) HandleIRQExit(e *events.IRQExit) error {
	return f.emit(e, fmt.Sprintf("Exit handler IRQ #%d", e.IRQ))
}

// HandleSchedSwitch formats a context switch, naming both threads.
func (f *Formatter) HandleSchedSwitch(e *events.SchedSwitch) error {
	return f.emit(e, fmt.Sprintf("Context switch from \"%s\" [TID: %d, prio: %d] to \"%s\" [TID: %d, prio: %d]",
		e.PrevComm, e.PrevTID, e.PrevPrio, e.NextComm, e.NextTID, e.NextPrio))
}

// HandlePreempt formats the preemption of a thread.
func (f *Formatter) HandlePreempt(e *events.Preempt) error {
	return f.emit(e, fmt.Sprintf("Thread \"%s\" [TID: %d, prio: %d] preempted", e.Comm, e.TID, e.Prio))
}

// HandleTimerTick formats a scheduler tick.
func (f *Formatter) HandleTimerTick(e *events.TimerTick) error {
	return f.emit(e, "Timer tick")
}

// HandleTimerCall formats a timer callback invocation with its raw
// callback and argument words.
func (f *Formatter) HandleTimerCall(e *events.TimerCall) error {
	return f.emit(e, fmt.Sprintf("Timer call callback: 0x%x arg: 0x%x", e.Callback, e.Arg))
}

// HandleAFControl formats an audio framework control message using the
// stage, direction and opcode labels.
func (f *Formatter) HandleAFControl(e *events.AFControl) error {
	return f.emit(e, fmt.Sprintf("%s %s %s", e.StageName(), e.DirName(), e.OpcodeName()))
}

// HandleAFData formats an audio framework buffer descriptor.
func (f *Formatter) HandleAFData(e *events.AFData) error {
	return f.emit(e, fmt.Sprintf("%s %s buffer %d: %d Hz, %d bit, %d ch, format %d, chunk %d bytes",
		e.StageName(), e.DirName(), e.ID, e.SampleRate, e.BitsPerSample, e.NumChannels, e.Format, e.ChunkSize))
}
