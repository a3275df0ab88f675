package merge

import (
	"container/heap"

	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

// head is the next unconsumed record of a lane.
type head struct {
	lane int
	ts   uint64
}

// before orders heads by timestamp, then by lane index. It is the only
// ordering records have; nothing else compares them.
func before(a, b head) bool {
	if a.ts != b.ts {
		return a.ts < b.ts
	}
	return a.lane < b.lane
}

type headHeap []head

func (h headHeap) Len() int           { return len(h) }
func (h headHeap) Less(i, j int) bool { return before(h[i], h[j]) }
func (h headHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *headHeap) Push(x any)        { *h = append(*h, x.(head)) }
func (h *headHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Merger drains Lanes in global timestamp order. It consumes the lanes: a
// record handed out is released from its queue.
type Merger struct {
	lanes *Lanes
	next  []int
	heads headHeap
}

// NewMerger prepares a merge over lanes. Lanes must not be pushed to once
// merging has started.
func NewMerger(lanes *Lanes) *Merger {
	m := &Merger{
		lanes: lanes,
		next:  make([]int, lanes.Count()),
		heads: make(headHeap, 0, lanes.Count()),
	}
	for lane, q := range lanes.queues {
		if len(q) > 0 {
			m.heads = append(m.heads, head{lane: lane, ts: q[0].Timestamp})
		}
	}
	heap.Init(&m.heads)
	return m
}

// Next returns the oldest remaining record. ok is false once every lane is
// drained.
func (m *Merger) Next() (rec tracelog.Record, ok bool) {
	if len(m.heads) == 0 {
		return tracelog.Record{}, false
	}

	lane := m.heads[0].lane
	q := m.lanes.queues[lane]
	i := m.next[lane]
	rec = q[i]
	q[i] = tracelog.Record{}
	m.next[lane] = i + 1
	m.lanes.total--

	if i+1 < len(q) {
		m.heads[0].ts = q[i+1].Timestamp
		heap.Fix(&m.heads, 0)
	} else {
		heap.Pop(&m.heads)
		m.lanes.queues[lane] = nil
		m.next[lane] = 0
	}
	return rec, true
}

// Drain hands every remaining record to fn in order, stopping at the first
// error fn returns.
func (m *Merger) Drain(fn func(tracelog.Record) error) error {
	for {
		rec, ok := m.Next()
		if !ok {
			return nil
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
