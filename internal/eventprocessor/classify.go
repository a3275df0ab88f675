package eventprocessor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mrzor/tracelog-converter/internal/events"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// Classification failures. ErrPayloadSize and ErrInvalidText drop a single
// record; ErrUnclassified marks a record outside the known taxonomy.
var (
	ErrPayloadSize  = errors.New("unexpected payload size")
	ErrInvalidText  = errors.New("payload is not valid UTF-8")
	ErrUnclassified = errors.New("unknown record type")
)

// Classifier turns records into events.
type Classifier struct {
	order binary.ByteOrder
}

// NewClassifier creates a Classifier for payloads in the given byte order,
// little-endian when nil.
func NewClassifier(order binary.ByteOrder) *Classifier {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Classifier{order: order}
}

// Classify decodes rec into its semantic event.
func (c *Classifier) Classify(rec *tracelog.Record) (events.Event, error) {
	meta := events.MetaFrom(rec)

	switch rec.Type {
	case tracelog.TypeString:
		text, err := decodeString(rec.Payload)
		if err != nil {
			return nil, err
		}
		return &events.String{Meta: meta, Text: text}, nil

	case tracelog.TypeBinary:
		return &events.Binary{Meta: meta, Data: rec.Payload}, nil

	case tracelog.TypeKernel:
		return c.classifyKernel(rec, meta)

	case tracelog.TypeAF:
		return c.classifyAF(rec, meta)

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnclassified, rec.Type)
	}
}

func (c *Classifier) classifyKernel(rec *tracelog.Record, meta events.Meta) (events.Event, error) {
	switch rec.Subtype {
	case tracelog.KernelIRQEnter:
		var p tracelog.IRQPayload
		if err := c.unpack(rec.Payload, tracelog.IRQPayloadSize, &p); err != nil {
			return nil, err
		}
		return &events.IRQEntry{Meta: meta, IRQ: p.Num}, nil

	case tracelog.KernelIRQExit:
		var p tracelog.IRQPayload
		if err := c.unpack(rec.Payload, tracelog.IRQPayloadSize, &p); err != nil {
			return nil, err
		}
		return &events.IRQExit{Meta: meta, IRQ: p.Num}, nil

	case tracelog.KernelContextSwitch:
		var p tracelog.SwitchPayload
		if err := c.unpack(rec.Payload, tracelog.SwitchPayloadSize, &p); err != nil {
			return nil, err
		}
		prev, err := decodeText(p.PrevComm[:])
		if err != nil {
			return nil, err
		}
		next, err := decodeText(p.NextComm[:])
		if err != nil {
			return nil, err
		}
		return &events.SchedSwitch{
			Meta:      meta,
			PrevComm:  prev,
			PrevTID:   p.PrevTID,
			PrevPrio:  p.PrevPrio,
			PrevState: events.SwitchPrevState,
			NextComm:  next,
			NextTID:   p.NextTID,
			NextPrio:  p.NextPrio,
		}, nil

	case tracelog.KernelPreempt:
		var p tracelog.PreemptPayload
		if err := c.unpack(rec.Payload, tracelog.PreemptPayloadSize, &p); err != nil {
			return nil, err
		}
		comm, err := decodeText(p.Comm[:])
		if err != nil {
			return nil, err
		}
		return &events.Preempt{Meta: meta, Comm: comm, TID: p.TID, Prio: p.Prio}, nil

	case tracelog.KernelTimerTick:
		// The tick carries nothing worth decoding.
		return &events.TimerTick{Meta: meta}, nil

	case tracelog.KernelTimerCall:
		var p tracelog.TimerCallPayload
		if err := c.unpack(rec.Payload, tracelog.TimerCallPayloadSize, &p); err != nil {
			return nil, err
		}
		return &events.TimerCall{Meta: meta, Callback: p.Callback, Arg: p.Arg}, nil

	default:
		return nil, fmt.Errorf("%w: thread subtype %d", ErrUnclassified, rec.Subtype)
	}
}

func (c *Classifier) classifyAF(rec *tracelog.Record, meta events.Meta) (events.Event, error) {
	if rec.Subtype == tracelog.AFStageCP {
		var p tracelog.AFControlPayload
		if err := c.unpack(rec.Payload, tracelog.AFControlPayloadSize, &p); err != nil {
			return nil, err
		}
		return &events.AFControl{Meta: meta, Stage: p.Stage, Dir: p.Dir, Opcode: p.Opcode}, nil
	}

	var p tracelog.AFDataPayload
	if err := c.unpack(rec.Payload, tracelog.AFDataPayloadSize, &p); err != nil {
		return nil, err
	}
	return &events.AFData{
		Meta:          meta,
		Stage:         p.Stage,
		Dir:           p.Dir,
		ID:            p.ID,
		Magic:         p.Magic,
		SampleRate:    p.SampleRate,
		BitsPerSample: p.BitsPerSample,
		NumChannels:   p.NumChannels,
		Format:        p.Format,
		ChunkSize:     p.ChunkSize,
		Endian:        p.Endian,
		Sign:          p.Sign,
	}, nil
}

// unpack decodes a fixed layout payload. The payload must be exactly size
// bytes long.
func (c *Classifier) unpack(payload []byte, size int, v any) error {
	if len(payload) != size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadSize, len(payload), size)
	}
	if err := binary.Read(bytes.NewReader(payload), c.order, v); err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadSize, err)
	}
	return nil
}

// decodeString returns a whole string payload without its trailing nul
// padding. Embedded nuls are kept.
func decodeString(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidText
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// decodeText returns b up to its first nul, which must be valid UTF-8.
func decodeText(b []byte) (string, error) {
	s := tracelog.CString(b)
	if !utf8.ValidString(s) {
		return "", ErrInvalidText
	}
	return s, nil
}
