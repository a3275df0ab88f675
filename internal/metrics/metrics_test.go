package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_Counters(t *testing.T) {
	s := New()

	s.Decoded(0, 2)
	s.Decoded(2, 1)
	s.Decoded(1, 0)
	s.Emitted("printf", 100)
	s.Emitted("sched_switch", 250)
	s.Dropped(ReasonUnpack)
	s.Ignored()
	s.Filtered()

	assert.Equal(t, 2.0, testutil.ToFloat64(s.decoded.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.decoded.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.emitted.WithLabelValues("sched_switch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.dropped.WithLabelValues(ReasonUnpack)))
	assert.Equal(t, 250.0, testutil.ToFloat64(s.lastTS))

	assert.Equal(t, Summary{
		Decoded:       3,
		Emitted:       2,
		Dropped:       1,
		Ignored:       1,
		Filtered:      1,
		LastTimestamp: 250,
	}, s.Summary())
}

func TestStats_NilIsNoop(t *testing.T) {
	var s *Stats
	assert.NotPanics(t, func() {
		s.Decoded(1, 1)
		s.Emitted("x", 1)
		s.Dropped(ReasonUnpack)
		s.Ignored()
		s.Filtered()
		s.Fault()
	})
	assert.Equal(t, Summary{}, s.Summary())
}

func TestStats_WriteTextfile(t *testing.T) {
	s := New()
	s.Decoded(1, 1)
	s.Fault()

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, s.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tracelog_records_decoded_total{lane="1"} 1`)
	assert.Contains(t, string(data), "tracelog_structural_faults_total 1")
}
