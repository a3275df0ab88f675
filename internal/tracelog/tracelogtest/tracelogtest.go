// Package tracelogtest builds captures the way the firmware writes them, for
// use in tests.
package tracelogtest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// AppendRecord encodes a header and payload. The header's Len is taken from
// the payload.
func AppendRecord(dst []byte, order binary.ByteOrder, h tracelog.Header, payload []byte) []byte {
	var buf bytes.Buffer
	h.Len = uint16(len(payload)) //nolint:gosec // test payloads stay far below 64KiB
	// Writes into a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, order, &h)
	buf.Write(payload)
	return append(dst, buf.Bytes()...)
}

// EncodePayload encodes one of the tracelog payload structs. It panics when v
// is not a fixed size value, the way httptest.NewRequest panics on a bad
// target.
func EncodePayload(order binary.ByteOrder, v any) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, order, v); err != nil {
		panic(fmt.Sprintf("tracelogtest: cannot encode %T: %v", v, err))
	}
	return buf.Bytes()
}

// Comm fills a fixed width thread name field.
func Comm(name string) [tracelog.CommSize]byte {
	var c [tracelog.CommSize]byte
	copy(c[:], name)
	return c
}
