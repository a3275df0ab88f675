// Package metrics keeps the run statistics of a conversion in a private
// Prometheus registry, so they can be dumped in text exposition format next
// to the produced trace.
package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons.
const (
	ReasonUnpack = "unpack"
)

// Summary is a plain copy of the counters, for logging and exit reports.
type Summary struct {
	Decoded       int
	Emitted       int
	Dropped       int
	Ignored       int
	Filtered      int
	Faults        int
	LastTimestamp uint64
}

// Stats collects run statistics. A nil *Stats is valid and records nothing.
type Stats struct {
	registry *prometheus.Registry

	decoded  *prometheus.CounterVec
	emitted  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	ignored  prometheus.Counter
	filtered prometheus.Counter
	faults   prometheus.Counter
	lastTS   prometheus.Gauge

	mu      sync.Mutex
	summary Summary
}

// New creates Stats registered in a fresh registry.
func New() *Stats {
	s := &Stats{
		registry: prometheus.NewRegistry(),

		decoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracelog_records_decoded_total",
				Help: "Records decoded from the capture, per lane",
			},
			[]string{"lane"},
		),
		emitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracelog_events_emitted_total",
				Help: "Events handed to the sink, per event name",
			},
			[]string{"event"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracelog_records_dropped_total",
				Help: "Records whose payload could not be unpacked",
			},
			[]string{"reason"},
		),
		ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracelog_records_ignored_total",
			Help: "Records with an unknown type or subtype",
		}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracelog_records_filtered_total",
			Help: "Events rejected by the filter expression",
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracelog_structural_faults_total",
			Help: "Structural faults that stopped decoding",
		}),
		lastTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracelog_last_timestamp_ns",
			Help: "Timestamp of the last event handed to the sink",
		}),
	}

	s.registry.MustRegister(s.decoded, s.emitted, s.dropped, s.ignored, s.filtered, s.faults, s.lastTS)
	return s
}

// Decoded adds n records decoded on lane.
func (s *Stats) Decoded(lane, n int) {
	if s == nil {
		return
	}
	s.decoded.WithLabelValues(strconv.Itoa(lane)).Add(float64(n))
	s.mu.Lock()
	s.summary.Decoded += n
	s.mu.Unlock()
}

// Emitted records an event handed to the sink.
func (s *Stats) Emitted(event string, ts uint64) {
	if s == nil {
		return
	}
	s.emitted.WithLabelValues(event).Inc()
	s.lastTS.Set(float64(ts))
	s.mu.Lock()
	s.summary.Emitted++
	s.summary.LastTimestamp = ts
	s.mu.Unlock()
}

// Dropped records a record that could not be unpacked, labelled with the
// reason.
func (s *Stats) Dropped(reason string) {
	if s == nil {
		return
	}
	s.dropped.WithLabelValues(reason).Inc()
	s.mu.Lock()
	s.summary.Dropped++
	s.mu.Unlock()
}

// Ignored records a record outside the known taxonomy.
func (s *Stats) Ignored() {
	if s == nil {
		return
	}
	s.ignored.Inc()
	s.mu.Lock()
	s.summary.Ignored++
	s.mu.Unlock()
}

// Filtered records an event rejected by the filter expression.
func (s *Stats) Filtered() {
	if s == nil {
		return
	}
	s.filtered.Inc()
	s.mu.Lock()
	s.summary.Filtered++
	s.mu.Unlock()
}

// Fault records a structural fault that stopped decoding.
func (s *Stats) Fault() {
	if s == nil {
		return
	}
	s.faults.Inc()
	s.mu.Lock()
	s.summary.Faults++
	s.mu.Unlock()
}

// Summary returns a snapshot of the counters.
func (s *Stats) Summary() Summary {
	if s == nil {
		return Summary{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// WriteTextfile writes every metric to path in text exposition format. The
// file is replaced atomically.
func (s *Stats) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
