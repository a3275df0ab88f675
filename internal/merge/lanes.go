// Package merge holds the per-CPU record queues and the merge that turns
// them into one chronological stream.
//
// The firmware keeps one ring buffer per CPU and flushes them one after the
// other, so a capture file interleaves per-CPU runs. Within a lane records
// are already in timestamp order; across lanes they are not. Lanes are
// filled completely by the decoder, then drained by a Merger which always
// yields the oldest head record, ties going to the lowest lane index.
package merge

import (
	"errors"
	"fmt"

	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// ErrLaneOutOfRange is returned when a record names a CPU the lanes were not
// sized for.
var ErrLaneOutOfRange = errors.New("cpu id out of range")

// Lanes is one FIFO queue of records per CPU.
type Lanes struct {
	queues [][]tracelog.Record
	total  int
}

// NewLanes creates n empty lanes.
func NewLanes(n int) *Lanes {
	return &Lanes{queues: make([][]tracelog.Record, n)}
}

// Count returns the number of lanes.
func (l *Lanes) Count() int {
	return len(l.queues)
}

// Push appends rec to the lane of its CPU.
func (l *Lanes) Push(rec tracelog.Record) error {
	lane := int(rec.CPU)
	if lane >= len(l.queues) {
		return fmt.Errorf("%w: cpu %d, %d lanes", ErrLaneOutOfRange, rec.CPU, len(l.queues))
	}
	l.queues[lane] = append(l.queues[lane], rec)
	l.total++
	return nil
}

// Len returns the number of records pushed to lane. Only meaningful before
// merging starts.
func (l *Lanes) Len(lane int) int {
	return len(l.queues[lane])
}

// Total returns the number of records queued across all lanes.
func (l *Lanes) Total() int {
	return l.total
}

// Sizes returns the per-lane record counts, see Len.
func (l *Lanes) Sizes() []int {
	sizes := make([]int, len(l.queues))
	for i, q := range l.queues {
		sizes[i] = len(q)
	}
	return sizes
}

// Bounds returns the smallest and largest timestamps across all lanes.
// ok is false when every lane is empty.
func (l *Lanes) Bounds() (first, last uint64, ok bool) {
	for _, q := range l.queues {
		for i := range q {
			ts := q[i].Timestamp
			if !ok || ts < first {
				first = ts
			}
			if !ok || ts > last {
				last = ts
			}
			ok = true
		}
	}
	return first, last, ok
}
