package eventprocessor

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrzor/tracelog-converter/internal/attributes"
	"github.com/mrzor/tracelog-converter/internal/events"
	"github.com/mrzor/tracelog-converter/internal/metrics"
	"github.com/mrzor/tracelog-converter/internal/procmeta"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// Sink receives classified events, one call per event, in log time order.
type Sink interface {
	HandleString(e *events.String) error
	HandleBinary(e *events.Binary) error
	HandleIRQEntry(e *events.IRQEntry) error
	HandleIRQExit(e *events.IRQExit) error
	HandleSchedSwitch(e *events.SchedSwitch) error
	HandlePreempt(e *events.Preempt) error
	HandleTimerTick(e *events.TimerTick) error
	HandleTimerCall(e *events.TimerCall) error
	HandleAFControl(e *events.AFControl) error
	HandleAFData(e *events.AFData) error
}

// SinkError is a sink rejecting an event.
type SinkError struct {
	Event     string
	Timestamp uint64
	Err       error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink failed on %s at %d: %v", e.Event, e.Timestamp, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Options configures a Processor. Every field is optional.
type Options struct {
	ByteOrder binary.ByteOrder
	Filter    *attributes.Filter
	// Threads is replayed with every classified event, filtered or not.
	Threads *procmeta.Manager
	Stats   *metrics.Stats
	Logger  *zap.Logger
}

// Processor coordinates event processing.
type Processor struct {
	classifier *Classifier
	sink       Sink
	filter     *attributes.Filter
	threads    *procmeta.Manager
	stats      *metrics.Stats
	logger     *zap.Logger
}

// NewProcessor creates a Processor feeding sink.
func NewProcessor(sink Sink, opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Processor{
		classifier: NewClassifier(opts.ByteOrder),
		sink:       sink,
		filter:     opts.Filter,
		threads:    opts.Threads,
		stats:      opts.Stats,
		logger:     opts.Logger,
	}
}

// HandleRecord classifies rec and hands it to the sink. Records that cannot
// be unpacked, unknown records and filtered events are skipped. The returned
// error is always a *SinkError.
func (p *Processor) HandleRecord(rec *tracelog.Record) error {
	ev, err := p.classifier.Classify(rec)
	switch {
	case errors.Is(err, ErrUnclassified):
		p.stats.Ignored()
		p.logger.Debug("Ignoring record",
			zap.Uint64("timestamp", rec.Timestamp),
			zap.Uint8("cpu", rec.CPU),
			zap.Stringer("type", rec.Type),
			zap.Uint8("subtype", rec.Subtype))
		return nil
	case err != nil:
		p.stats.Dropped(metrics.ReasonUnpack)
		p.logger.Debug("Dropping record",
			zap.Uint64("timestamp", rec.Timestamp),
			zap.Uint8("cpu", rec.CPU),
			zap.Stringer("type", rec.Type),
			zap.Uint8("subtype", rec.Subtype),
			zap.Int("len", rec.Len()),
			zap.Error(err))
		return nil
	}

	if running := p.threads.Running(rec.CPU); running != nil {
		ev.Base().Thread = running.Comm
	}
	defer p.threads.Observe(ev)

	keep, err := p.filter.Match(ev)
	if err != nil {
		p.logger.Debug("Filter failed, keeping event",
			zap.String("event", ev.Name()),
			zap.Uint64("timestamp", rec.Timestamp),
			zap.Error(err))
	}
	if !keep {
		p.stats.Filtered()
		return nil
	}

	if err := p.dispatch(ev); err != nil {
		return &SinkError{Event: ev.Name(), Timestamp: rec.Timestamp, Err: err}
	}
	p.stats.Emitted(ev.Name(), rec.Timestamp)
	return nil
}

// dispatch routes events by type to the sink.
func (p *Processor) dispatch(ev events.Event) error {
	switch e := ev.(type) {
	case *events.String:
		return p.sink.HandleString(e)
	case *events.Binary:
		return p.sink.HandleBinary(e)
	case *events.IRQEntry:
		return p.sink.HandleIRQEntry(e)
	case *events.IRQExit:
		return p.sink.HandleIRQExit(e)
	case *events.SchedSwitch:
		return p.sink.HandleSchedSwitch(e)
	case *events.Preempt:
		return p.sink.HandlePreempt(e)
	case *events.TimerTick:
		return p.sink.HandleTimerTick(e)
	case *events.TimerCall:
		return p.sink.HandleTimerCall(e)
	case *events.AFControl:
		return p.sink.HandleAFControl(e)
	case *events.AFData:
		return p.sink.HandleAFData(e)
	default:
		// Unknown event type - ignore
		return nil
	}
}
