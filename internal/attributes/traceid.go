package attributes

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDFromValue turns value into a trace id. A valid 32-char hex trace id
// is used directly; anything else is hashed with murmur3-128 and hashed is
// true.
func TraceIDFromValue(value string) (id trace.TraceID, hashed bool) {
	if len(value) == 32 {
		if traceID, err := trace.TraceIDFromHex(value); err == nil {
			return traceID, false
		}
	}

	h1, h2 := murmur3.Sum128([]byte(value))
	binary.BigEndian.PutUint64(id[:8], h1)
	binary.BigEndian.PutUint64(id[8:], h2)
	if !id.IsValid() {
		id[15] = 1
	}
	return id, true
}

// SpanIDFromValue turns value into a span id, like TraceIDFromValue does for
// 16-char hex span ids and murmur3-64.
func SpanIDFromValue(value string) (id trace.SpanID, hashed bool) {
	if len(value) == 16 {
		if spanID, err := trace.SpanIDFromHex(value); err == nil {
			return spanID, false
		}
	}

	binary.BigEndian.PutUint64(id[:], murmur3.Sum64([]byte(value)))
	if !id.IsValid() {
		id[7] = 1
	}
	return id, true
}
