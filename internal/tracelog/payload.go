package tracelog

import "bytes"

// CommSize is the width of the thread name fields.
const CommSize = 32

// Payload layouts. Kernel payloads are packed C structs. AF payloads follow
// the native alignment the host side converter has always applied to them,
// hence the explicit padding after the two leading bytes.

// IRQPayload matches struct tracelog_kernel_irq.
type IRQPayload struct {
	Num uint8
}

// SwitchPayload matches struct tracelog_kernel_switch.
type SwitchPayload struct {
	PrevComm [CommSize]byte
	NextComm [CommSize]byte
	PrevTID  uint32
	NextTID  uint32
	PrevPrio uint32
	NextPrio uint32
}

// PreemptPayload matches struct tracelog_kernel_preempt.
type PreemptPayload struct {
	Comm [CommSize]byte
	TID  uint32
	Prio uint32
}

// TimerCallPayload matches struct tracelog_kernel_timer_call on 64-bit
// targets.
type TimerCallPayload struct {
	Callback uint64
	Arg      uint64
}

// AFControlPayload is a control plane message seen by a pipeline stage.
type AFControlPayload struct {
	Stage  uint8
	Dir    uint8
	_      [2]byte
	Opcode uint32
}

// AFDataPayload describes an audio buffer crossing a pipeline stage.
type AFDataPayload struct {
	Stage         uint8
	Dir           uint8
	_             [2]byte
	ID            uint32
	Magic         uint32
	SampleRate    uint32
	BitsPerSample uint32
	NumChannels   uint32
	Format        uint32
	ChunkSize     uint32
	Endian        uint8
	Sign          uint8
	_             [2]byte
}

// Encoded payload sizes.
const (
	IRQPayloadSize       = 1
	SwitchPayloadSize    = 2*CommSize + 4*4
	PreemptPayloadSize   = CommSize + 2*4
	TimerCallPayloadSize = 2 * 8
	AFControlPayloadSize = 8
	AFDataPayloadSize    = 36
)

// CString returns the text of a fixed width, nul padded field: everything
// before the first nul byte.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
