package eventstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"go.uber.org/zap"

	"github.com/mrzor/tracelog-converter/internal/merge"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// Structural fault causes.
var (
	ErrBadMagic          = errors.New("bad magic")
	ErrTruncatedPayload  = errors.New("truncated payload")
	ErrTimestampOverflow = errors.New("timestamp overflow")
	ErrLaneOutOfRange    = merge.ErrLaneOutOfRange
)

// FaultError reports where decoding had to stop.
type FaultError struct {
	// Offset is the byte offset of the faulting header.
	Offset int64
	// Record is the 1-based index of the faulting record.
	Record int
	// LastTimestamp is the scaled timestamp of the last good record, 0 if
	// there was none.
	LastTimestamp uint64
	Err           error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("structural fault at record %d (offset %d, last timestamp %d): %v",
		e.Record, e.Offset, e.LastTimestamp, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// Options configures a Reader.
type Options struct {
	// ByteOrder of the capture, little-endian when nil.
	ByteOrder binary.ByteOrder
	// TimeMultiplier scales raw timestamps, tracelog.DefaultTimeMultiplier
	// when zero.
	TimeMultiplier uint64
	// Lanes bounds cpu ids. Zero disables the check.
	Lanes  int
	Logger *zap.Logger
}

// Reader is a lazy, non-restartable record iterator over a capture.
type Reader struct {
	src    io.Reader
	order  binary.ByteOrder
	mult   uint64
	lanes  int
	logger *zap.Logger

	hdr     [tracelog.HeaderSize]byte
	offset  int64
	records int
	lastTS  uint64
	err     error
}

// NewReader creates a Reader over src.
func NewReader(src io.Reader, opts Options) *Reader {
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}
	if opts.TimeMultiplier == 0 {
		opts.TimeMultiplier = tracelog.DefaultTimeMultiplier
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Reader{
		src:    src,
		order:  opts.ByteOrder,
		mult:   opts.TimeMultiplier,
		lanes:  opts.Lanes,
		logger: opts.Logger,
	}
}

// Next decodes the next record. It returns io.EOF at the end of the capture,
// a *FaultError when the framing is broken, or the underlying read error.
// Once Next has failed, it keeps returning the same error.
func (r *Reader) Next() (tracelog.Record, error) {
	if r.err != nil {
		return tracelog.Record{}, r.err
	}
	rec, err := r.next()
	if err != nil {
		r.err = err
		return tracelog.Record{}, err
	}
	return rec, nil
}

func (r *Reader) next() (tracelog.Record, error) {
	n, err := io.ReadFull(r.src, r.hdr[:])
	switch {
	case errors.Is(err, io.EOF):
		return tracelog.Record{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.logger.Debug("Ignoring trailing partial header",
			zap.Int64("offset", r.offset),
			zap.Int("bytes", n))
		return tracelog.Record{}, io.EOF
	case err != nil:
		return tracelog.Record{}, fmt.Errorf("reading header at offset %d: %w", r.offset, err)
	}

	var hdr tracelog.Header
	if err := binary.Read(bytes.NewReader(r.hdr[:]), r.order, &hdr); err != nil {
		return tracelog.Record{}, fmt.Errorf("parsing header at offset %d: %w", r.offset, err)
	}

	if hdr.Magic != tracelog.Magic {
		return tracelog.Record{}, r.fault(fmt.Errorf("%w: 0x%08x", ErrBadMagic, hdr.Magic))
	}
	if r.lanes > 0 && int(hdr.CPU) >= r.lanes {
		return tracelog.Record{}, r.fault(fmt.Errorf("%w: cpu %d, %d lanes", ErrLaneOutOfRange, hdr.CPU, r.lanes))
	}
	hi, ts := bits.Mul64(hdr.Timestamp, r.mult)
	if hi != 0 {
		return tracelog.Record{}, r.fault(fmt.Errorf("%w: %d scaled by %d does not fit in 64 bits",
			ErrTimestampOverflow, hdr.Timestamp, r.mult))
	}

	payload := make([]byte, hdr.Len)
	if len(payload) > 0 {
		got, err := io.ReadFull(r.src, payload)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return tracelog.Record{}, r.fault(fmt.Errorf("%w: %d of %d bytes", ErrTruncatedPayload, got, hdr.Len))
		case err != nil:
			return tracelog.Record{}, fmt.Errorf("reading payload at offset %d: %w", r.offset+tracelog.HeaderSize, err)
		}
	}

	rec := tracelog.Record{
		Timestamp: ts,
		Type:      hdr.Type(),
		Subtype:   hdr.Subtype(),
		CPU:       hdr.CPU,
		Payload:   payload,
	}
	r.offset += tracelog.HeaderSize + int64(hdr.Len)
	r.records++
	r.lastTS = rec.Timestamp
	return rec, nil
}

func (r *Reader) fault(err error) *FaultError {
	return &FaultError{
		Offset:        r.offset,
		Record:        r.records + 1,
		LastTimestamp: r.lastTS,
		Err:           err,
	}
}

// Fill decodes the whole capture into lanes. It returns nil at a clean end
// of input. On a *FaultError every record before the fault is already in
// lanes. The cpu id bound is tightened to the lane count.
func (r *Reader) Fill(lanes *merge.Lanes) error {
	if r.lanes == 0 || r.lanes > lanes.Count() {
		r.lanes = lanes.Count()
	}
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := lanes.Push(rec); err != nil {
			return err
		}
	}
}
