package converter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mrzor/tracelog-converter/internal/attributes"
	"github.com/mrzor/tracelog-converter/internal/config"
	"github.com/mrzor/tracelog-converter/internal/eventprocessor"
	"github.com/mrzor/tracelog-converter/internal/eventstream"
	"github.com/mrzor/tracelog-converter/internal/merge"
	"github.com/mrzor/tracelog-converter/internal/metrics"
	"github.com/mrzor/tracelog-converter/internal/output"
	"github.com/mrzor/tracelog-converter/internal/procmeta"
	"github.com/mrzor/tracelog-converter/internal/timesync"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// ProcessName names the trace process in Chrome traces.
const ProcessName = "tracelog"

// Result describes a finished run, successful or not.
type Result struct {
	RunID   string
	TraceID trace.TraceID
	// Output is false when nothing was written to the output path.
	Output  bool
	Summary metrics.Summary
	// Threads lists the threads named by context switches and preemptions.
	Threads []procmeta.ThreadMetadata
}

// Converter turns one capture into one trace.
type Converter struct {
	cfg       *config.Config
	order     binary.ByteOrder
	filter    *attributes.Filter
	evaluator *attributes.Evaluator
	tracer    trace.Tracer
	stats     *metrics.Stats
	logger    *zap.Logger

	// newWriter builds the output sink, replaced in tests.
	newWriter func(ctx context.Context, r *run) (output.Writer, error)
}

// New prepares a conversion. Filter and attribute expressions are compiled
// here so that mistakes fail before any file is touched. tracer may be nil,
// in which case spans are not exported even when cfg.OTLP is set.
func New(cfg *config.Config, tracer trace.Tracer, stats *metrics.Stats, logger *zap.Logger) (*Converter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stats == nil {
		stats = metrics.New()
	}

	order, err := cfg.ByteOrder()
	if err != nil {
		return nil, err
	}
	filter, err := attributes.NewFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	evaluator, err := attributes.NewEvaluator(cfg.CustomAttributes, logger)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:       cfg,
		order:     order,
		filter:    filter,
		evaluator: evaluator,
		tracer:    tracer,
		stats:     stats,
		logger:    logger,
	}
	c.newWriter = c.openWriter
	return c, nil
}

// Stats returns the run statistics.
func (c *Converter) Stats() *metrics.Stats {
	return c.stats
}

// Run converts the capture. The output is committed when every decoded
// record went through; on a sink failure or cancellation it is discarded.
//
// A structural fault in the capture does not prevent the output from being
// committed. It is returned as a *eventstream.FaultError after the fact.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.New().String()}
	defer func() {
		res.Summary = c.stats.Summary()
		c.writeMetrics()
	}()

	c.logger.Info("Decoding capture",
		zap.String("input", c.cfg.Input),
		zap.Int("lanes", c.cfg.Lanes),
		zap.Stringer("byte_order", c.order))

	capture, err := Decode(c.cfg.Input, c.cfg.Lanes, eventstream.Options{
		ByteOrder:      c.order,
		TimeMultiplier: c.cfg.TimeMultiplier,
		Logger:         c.logger,
	}, c.stats)
	if err != nil {
		return res, err
	}
	c.logger.Info("Decoded capture", capture.logFields()...)
	if capture.Fault != nil {
		c.logger.Warn("Capture is corrupt, converting the records before the fault",
			zap.Int64("offset", capture.Fault.Offset),
			zap.Int("record", capture.Fault.Record),
			zap.Uint64("last_timestamp", capture.Fault.LastTimestamp),
			zap.Error(capture.Fault.Err))
	}

	r, err := c.prepare(capture, res)
	if err != nil {
		return res, err
	}
	res.TraceID = r.traceID

	w, err := c.newWriter(ctx, r)
	if err != nil {
		return res, err
	}

	threads := procmeta.NewManager()
	proc := eventprocessor.NewProcessor(output.NewFormatter(w, c.evaluator), eventprocessor.Options{
		ByteOrder: c.order,
		Filter:    c.filter,
		Threads:   threads,
		Stats:     c.stats,
		Logger:    c.logger,
	})
	defer func() {
		res.Threads = threads.Threads()
	}()

	if err := Dispatch(ctx, capture.Lanes, proc); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			c.logger.Warn("Failed to discard output", zap.Error(abortErr))
		}
		return res, err
	}
	if err := w.Close(); err != nil {
		return res, fmt.Errorf("failed to finish output: %w", err)
	}
	res.Output = true

	summary := c.stats.Summary()
	c.logger.Info("Conversion finished",
		zap.String("output", c.cfg.Output),
		zap.String("format", c.cfg.Format),
		zap.Int("emitted", summary.Emitted),
		zap.Int("dropped", summary.Dropped),
		zap.Int("ignored", summary.Ignored),
		zap.Int("filtered", summary.Filtered),
		zap.Int("threads", len(threads.Threads())))
	for _, t := range threads.Threads() {
		c.logger.Debug("Thread",
			zap.Uint32("tid", t.TID),
			zap.String("comm", t.Comm),
			zap.Uint32("prio", t.Prio),
			zap.Int("switches", t.Switches),
			zap.Int("preemptions", t.Preemptions))
	}

	if capture.Fault != nil {
		return res, capture.Fault
	}
	return res, nil
}

// Dispatch merges lanes and hands every record to proc, in timestamp order.
// It stops at the first sink failure or when ctx is done.
func Dispatch(ctx context.Context, lanes *merge.Lanes, proc *eventprocessor.Processor) error {
	return merge.NewMerger(lanes).Drain(func(rec tracelog.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return proc.HandleRecord(&rec)
	})
}

// run is what the writers need to know about the conversion.
type run struct {
	id        string
	input     string
	createdAt time.Time
	traceID   trace.TraceID
	parentID  trace.SpanID
	clock     *timesync.Converter
	first     uint64
	last      uint64
	fault     *eventstream.FaultError
}

func (c *Converter) prepare(capture *Capture, res *Result) (*run, error) {
	r := &run{
		id:        res.RunID,
		input:     filepath.Base(c.cfg.Input),
		createdAt: time.Now(),
		fault:     capture.Fault,
	}
	r.first, r.last, _ = capture.Lanes.Bounds()

	base, ok, err := c.cfg.BaseTimeValue()
	switch {
	case err != nil:
		return nil, err
	case ok:
		r.clock = timesync.NewConverter(base)
	default:
		r.clock, err = timesync.AnchorToFile(c.cfg.Input, r.last)
		if err != nil {
			return nil, err
		}
	}

	identity := c.cfg.TraceID
	if identity == "" {
		identity = fmt.Sprintf("%s:%d", r.input, capture.Size)
	}
	var hashed bool
	r.traceID, hashed = attributes.TraceIDFromValue(identity)
	r.parentID, _ = attributes.SpanIDFromValue(identity)
	c.logger.Debug("Trace identity",
		zap.String("trace_id", r.traceID.String()),
		zap.String("parent_span_id", r.parentID.String()),
		zap.Bool("hashed", hashed))
	return r, nil
}

// openWriter creates the file sink for the configured format, teed with the
// span exporter when OTLP export is on.
func (c *Converter) openWriter(ctx context.Context, r *run) (output.Writer, error) {
	var (
		w   output.Writer
		err error
	)
	switch c.cfg.Format {
	case config.FormatText:
		w, err = output.NewTextWriter(c.cfg.Output)
	case config.FormatSQLite:
		w, err = output.NewSQLiteWriter(ctx, c.cfg.Output, output.RunInfo{
			ID:        r.id,
			Input:     r.input,
			CreatedAt: r.createdAt,
		})
	case config.FormatChrome:
		otherData := map[string]any{
			"input":    r.input,
			"run_id":   r.id,
			"trace_id": r.traceID.String(),
			"lanes":    c.cfg.Lanes,
		}
		if r.fault != nil {
			otherData["fault"] = r.fault.Error()
		}
		w, err = output.NewChromeWriter(c.cfg.Output, ProcessName, c.cfg.Lanes, otherData)
	default:
		err = fmt.Errorf("unknown format %q", c.cfg.Format)
	}
	if err != nil {
		return nil, err
	}

	if !c.cfg.OTLP {
		return w, nil
	}
	if c.tracer == nil {
		c.logger.Warn("OTLP export requested without a tracer, skipping spans")
		return w, nil
	}
	return output.Tee{w, output.NewOTELWriter(ctx, c.tracer, r.clock, output.OTELRun{
		TraceID:        r.traceID,
		ParentSpanID:   r.parentID,
		RunID:          r.id,
		Input:          r.input,
		FirstTimestamp: r.first,
		LastTimestamp:  r.last,
	})}, nil
}

func (c *Converter) writeMetrics() {
	if c.cfg.MetricsFile == "" {
		return
	}
	if err := c.stats.WriteTextfile(c.cfg.MetricsFile); err != nil {
		c.logger.Warn("Failed to write metrics file", zap.Error(err))
	}
}

// IsFault reports whether err is a structural fault of the capture.
func IsFault(err error) bool {
	var fault *eventstream.FaultError
	return errors.As(err, &fault)
}
