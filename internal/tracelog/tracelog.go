// Package tracelog describes the binary event log written by the firmware
// tracelog facility.
//
// A log is a plain concatenation of records, each one a fixed 16 byte header
// followed by Len payload bytes. There is no padding between records, no
// file header and no trailer:
//
//	offset  size  field
//	0       4     magic      always 0xdeadbeef
//	4       8     timestamp  firmware clock, microseconds
//	12      1     type       low nibble = major type, high nibble = subtype
//	13      1     cpu_id     lane the record was produced on
//	14      2     len        payload length in bytes
//
// Fields are stored in the producer's native byte order, which is
// little-endian on the arm64 targets the firmware ships on.
package tracelog

import "fmt"

// Magic is the sentinel every record header starts with.
const Magic uint32 = 0xdeadbeef

// HeaderSize is the encoded size of Header.
const HeaderSize = 16

// DefaultTimeMultiplier converts firmware microseconds to nanoseconds.
const DefaultTimeMultiplier = 1000

// Type is the major record type carried in the low nibble of the type byte.
type Type uint8

// Major types.
//
//nolint:revive // names follow the firmware enum
const (
	TypeString Type = 0
	TypeKernel Type = 1
	TypeBinary Type = 2
	TypeAF     Type = 3
)

// String returns the short category name used by sinks.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeKernel:
		return "thread"
	case TypeBinary:
		return "binary"
	case TypeAF:
		return "audio"
	default:
		return fmt.Sprintf("type%d", uint8(t))
	}
}

// Kernel (thread event) subtypes.
const (
	KernelEmpty         uint8 = 0
	KernelContextSwitch uint8 = 1
	KernelPreempt       uint8 = 2
	KernelTimerTick     uint8 = 3
	KernelTimerCall     uint8 = 4
	KernelIRQEnter      uint8 = 5
	KernelIRQExit       uint8 = 6
)

// Audio framework subtypes. The subtype of an AF record is the pipeline
// stage that produced it; only the CP stage carries control messages, every
// other stage logs the shared data layout.
const (
	AFStageNull    uint8 = 0
	AFStageCP      uint8 = 1
	AFStageIM      uint8 = 2
	AFStageADE     uint8 = 3
	AFStageDecoder uint8 = 4
	AFStagePPP     uint8 = 5
	AFStagePPA     uint8 = 6
	AFStageOM      uint8 = 7
)

// PackType builds a header type byte.
func PackType(t Type, subtype uint8) uint8 {
	return uint8(t)&0xf | (subtype&0xf)<<4
}

// Header matches struct tracelog_entry_header. It is packed, so it decodes
// with binary.Read without any padding fields.
type Header struct {
	Magic     uint32
	Timestamp uint64
	TypeByte  uint8
	CPU       uint8
	Len       uint16
}

// Type returns the major type.
func (h *Header) Type() Type {
	return Type(h.TypeByte & 0xf)
}

// Subtype returns the subtype nibble.
func (h *Header) Subtype() uint8 {
	return (h.TypeByte >> 4) & 0xf
}

// Record is one decoded log entry. Timestamp is already scaled to
// nanoseconds. Records are immutable once decoded.
type Record struct {
	Timestamp uint64
	Type      Type
	Subtype   uint8
	CPU       uint8
	Payload   []byte
}

// Len returns the payload length announced by the header.
func (r *Record) Len() int {
	return len(r.Payload)
}
