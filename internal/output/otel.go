package output

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrzor/tracelog-converter/internal/events"
	"github.com/mrzor/tracelog-converter/internal/timesync"
)

// OTELRun describes the root span of an export.
type OTELRun struct {
	TraceID trace.TraceID
	// ParentSpanID is a synthetic remote parent, so that every export of the
	// same capture hangs off the same point of the trace.
	ParentSpanID trace.SpanID
	RunID        string
	Input        string
	// FirstTimestamp and LastTimestamp bound the run span, in log time.
	FirstTimestamp uint64
	LastTimestamp  uint64
}

// OTELWriter exports every entry as a zero-length span under a run span.
type OTELWriter struct {
	tracer  trace.Tracer
	clock   *timesync.Converter
	run     OTELRun
	runSpan trace.Span
	runCtx  context.Context
	count   int
	done    bool
}

// NewOTELWriter starts the run span.
func NewOTELWriter(ctx context.Context, tracer trace.Tracer, clock *timesync.Converter, run OTELRun) *OTELWriter {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    run.TraceID,
		SpanID:     run.ParentSpanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	if parent.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, parent)
	}

	runCtx, span := tracer.Start(ctx, "tracelog.convert",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(clock.ToWallClock(run.FirstTimestamp)),
		trace.WithAttributes(
			attribute.String("tracelog.run_id", run.RunID),
			attribute.String("tracelog.input", run.Input),
		),
	)

	return &OTELWriter{
		tracer:  tracer,
		clock:   clock,
		run:     run,
		runSpan: span,
		runCtx:  runCtx,
	}
}

// WriteEntry records e as a child span of the run span, started and ended
// at the entry timestamp.
func (o *OTELWriter) WriteEntry(e *Entry) error {
	if o.done {
		return fmt.Errorf("otel writer is closed")
	}

	base := e.Event.Base()
	at := o.clock.ToWallClock(base.Timestamp)

	attrs := make([]attribute.KeyValue, 0, len(e.Extra)+8)
	attrs = append(attrs,
		attribute.Int("cpu", int(base.CPU)),
		attribute.String("category", base.Category()),
		attribute.Int("subtype", int(base.Subtype)),
		attribute.String("message", e.Message),
	)
	for _, f := range e.Fields() {
		attrs = append(attrs, fieldAttribute(f))
	}

	_, span := o.tracer.Start(o.runCtx, e.Event.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(at),
		trace.WithAttributes(attrs...),
	)
	span.End(trace.WithTimestamp(at))
	o.count++
	return nil
}

// fieldAttribute converts an event field to a span attribute.
func fieldAttribute(f events.Field) attribute.KeyValue {
	switch v := f.Value.(type) {
	case string:
		return attribute.String(f.Key, v)
	case int64:
		return attribute.Int64(f.Key, v)
	case uint64:
		// Addresses do not fit int64 attributes.
		return attribute.String(f.Key, fmt.Sprintf("0x%x", v))
	case bool:
		return attribute.Bool(f.Key, v)
	default:
		return attribute.String(f.Key, fmt.Sprint(v))
	}
}

// Close ends the run span.
func (o *OTELWriter) Close() error {
	if o.done {
		return nil
	}
	o.done = true
	o.runSpan.SetAttributes(attribute.Int("tracelog.events", o.count))
	o.runSpan.SetStatus(codes.Ok, "")
	o.runSpan.End(trace.WithTimestamp(o.clock.ToWallClock(o.run.LastTimestamp)))
	return nil
}

// Abort ends the run span as failed. Spans already handed to the exporter
// cannot be recalled.
func (o *OTELWriter) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	o.runSpan.SetAttributes(attribute.Int("tracelog.events", o.count))
	o.runSpan.SetStatus(codes.Error, "conversion aborted")
	o.runSpan.End(trace.WithTimestamp(o.clock.ToWallClock(o.run.LastTimestamp)))
	return nil
}
