package merge

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

func rec(cpu uint8, ts uint64, payload string) tracelog.Record {
	return tracelog.Record{Timestamp: ts, CPU: cpu, Payload: []byte(payload)}
}

func drain(t *testing.T, m *Merger) []tracelog.Record {
	t.Helper()
	var out []tracelog.Record
	require.NoError(t, m.Drain(func(r tracelog.Record) error {
		out = append(out, r)
		return nil
	}))
	return out
}

func TestLanes_PushOutOfRange(t *testing.T) {
	l := NewLanes(3)
	err := l.Push(rec(3, 10, ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLaneOutOfRange))
	assert.Equal(t, 0, l.Total())
}

func TestLanes_Sizes(t *testing.T) {
	l := NewLanes(3)
	require.NoError(t, l.Push(rec(0, 1, "")))
	require.NoError(t, l.Push(rec(2, 2, "")))
	require.NoError(t, l.Push(rec(2, 3, "")))

	assert.Equal(t, []int{1, 0, 2}, l.Sizes())
	assert.Equal(t, 3, l.Total())
}

func TestLanes_Bounds(t *testing.T) {
	l := NewLanes(2)
	_, _, ok := l.Bounds()
	assert.False(t, ok)

	require.NoError(t, l.Push(rec(0, 100, "")))
	require.NoError(t, l.Push(rec(1, 50, "")))
	require.NoError(t, l.Push(rec(1, 175, "")))

	first, last, ok := l.Bounds()
	require.True(t, ok)
	assert.Equal(t, uint64(50), first)
	assert.Equal(t, uint64(175), last)
}

func TestMerger_ThreeLaneScenario(t *testing.T) {
	l := NewLanes(3)
	require.NoError(t, l.Push(rec(0, 100, "a")))
	require.NoError(t, l.Push(rec(1, 50, "b")))
	require.NoError(t, l.Push(rec(2, 75, "\xff")))

	out := drain(t, NewMerger(l))

	require.Len(t, out, 3)
	assert.Equal(t, "b", string(out[0].Payload))
	assert.Equal(t, "\xff", string(out[1].Payload))
	assert.Equal(t, "a", string(out[2].Payload))
}

func TestMerger_TiesGoToLowerLane(t *testing.T) {
	l := NewLanes(3)
	require.NoError(t, l.Push(rec(2, 10, "c")))
	require.NoError(t, l.Push(rec(0, 10, "a")))
	require.NoError(t, l.Push(rec(1, 10, "b")))
	require.NoError(t, l.Push(rec(0, 10, "a2")))

	out := drain(t, NewMerger(l))

	var got []string
	for _, r := range out {
		got = append(got, string(r.Payload))
	}
	assert.Equal(t, []string{"a", "a2", "b", "c"}, got)
}

func TestMerger_Empty(t *testing.T) {
	m := NewMerger(NewLanes(3))
	_, ok := m.Next()
	assert.False(t, ok)
}

func TestMerger_ConsumesLanes(t *testing.T) {
	l := NewLanes(2)
	require.NoError(t, l.Push(rec(0, 1, "x")))
	require.NoError(t, l.Push(rec(1, 2, "y")))

	m := NewMerger(l)
	assert.Equal(t, 2, l.Total())

	_, ok := m.Next()
	require.True(t, ok)
	assert.Equal(t, 1, l.Total())

	_, ok = m.Next()
	require.True(t, ok)
	assert.Equal(t, 0, l.Total())

	_, ok = m.Next()
	assert.False(t, ok)
}

func TestMerger_DrainStopsOnError(t *testing.T) {
	l := NewLanes(1)
	require.NoError(t, l.Push(rec(0, 1, "")))
	require.NoError(t, l.Push(rec(0, 2, "")))

	boom := errors.New("boom")
	calls := 0
	err := NewMerger(l).Drain(func(tracelog.Record) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// buildLanes spreads generated records over nLanes. Timestamps grow
// monotonically per lane, as the firmware guarantees. The payload of each
// record holds its index within its lane.
func buildLanes(nLanes int, laneOf []int, deltas []uint64) (*Lanes, [][]int) {
	n := len(laneOf)
	if len(deltas) < n {
		n = len(deltas)
	}

	l := NewLanes(nLanes)
	clock := make([]uint64, nLanes)
	order := make([][]int, nLanes)
	for i := 0; i < n; i++ {
		lane := laneOf[i] % nLanes
		clock[lane] += deltas[i]
		idx := len(order[lane])
		order[lane] = append(order[lane], idx)
		_ = l.Push(tracelog.Record{
			Timestamp: clock[lane],
			CPU:       uint8(lane),
			Payload:   []byte{byte(idx), byte(idx >> 8)},
		})
	}
	return l, order
}

func TestProperty_MergeOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	const nLanes = 3
	laneGen := gen.SliceOf(gen.IntRange(0, nLanes-1))
	deltaGen := gen.SliceOf(gen.UInt64Range(0, 20))

	properties.Property("every queued record is yielded exactly once", prop.ForAll(
		func(laneOf []int, deltas []uint64) bool {
			l, _ := buildLanes(nLanes, laneOf, deltas)
			sizes := l.Sizes()

			perLane := make([]int, nLanes)
			m := NewMerger(l)
			for r, ok := m.Next(); ok; r, ok = m.Next() {
				perLane[r.CPU]++
			}
			for i := range sizes {
				if sizes[i] != perLane[i] {
					return false
				}
			}
			return true
		},
		laneGen, deltaGen,
	))

	properties.Property("timestamps never decrease", prop.ForAll(
		func(laneOf []int, deltas []uint64) bool {
			l, _ := buildLanes(nLanes, laneOf, deltas)
			m := NewMerger(l)

			var prev uint64
			for r, ok := m.Next(); ok; r, ok = m.Next() {
				if r.Timestamp < prev {
					return false
				}
				prev = r.Timestamp
			}
			return true
		},
		laneGen, deltaGen,
	))

	properties.Property("each lane keeps its relative order", prop.ForAll(
		func(laneOf []int, deltas []uint64) bool {
			l, order := buildLanes(nLanes, laneOf, deltas)
			m := NewMerger(l)

			seen := make([]int, nLanes)
			for r, ok := m.Next(); ok; r, ok = m.Next() {
				idx := int(r.Payload[0]) | int(r.Payload[1])<<8
				if idx != order[r.CPU][seen[r.CPU]] {
					return false
				}
				seen[r.CPU]++
			}
			return true
		},
		laneGen, deltaGen,
	))

	properties.TestingRun(t)
}
