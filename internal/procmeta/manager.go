package procmeta

import (
	"sort"
	"sync"

	"github.com/mrzor/tracelog-converter/internal/events"
)

// Manager manages thread metadata lifecycle.
// It provides command-query separation for metadata access.
type Manager struct {
	mu      sync.RWMutex
	threads map[uint32]*ThreadMetadata // TID -> thread metadata
	running map[uint8]uint32           // CPU -> TID switched in last
}

// NewManager creates a new thread metadata manager.
func NewManager() *Manager {
	return &Manager{
		threads: make(map[uint32]*ThreadMetadata),
		running: make(map[uint8]uint32),
	}
}

// Running returns the thread on cpu (query).
// Returns nil before the first context switch on cpu.
func (m *Manager) Running(cpu uint8) *ThreadMetadata {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	tid, ok := m.running[cpu]
	if !ok {
		return nil
	}
	return m.threads[tid]
}

// Threads returns a copy of every thread seen, sorted by TID (query).
func (m *Manager) Threads() []ThreadMetadata {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ThreadMetadata, 0, len(m.threads))
	for _, t := range m.threads {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TID < out[j].TID })
	return out
}

// Observe replays ev (command). Only context switches and preemptions change
// anything; other events are ignored.
func (m *Manager) Observe(ev events.Event) {
	if m == nil {
		return
	}
	switch e := ev.(type) {
	case *events.SchedSwitch:
		m.mu.Lock()
		defer m.mu.Unlock()
		m.update(e.PrevTID, e.PrevComm, e.PrevPrio)
		next := m.update(e.NextTID, e.NextComm, e.NextPrio)
		next.Switches++
		m.running[e.CPU] = e.NextTID
	case *events.Preempt:
		m.mu.Lock()
		defer m.mu.Unlock()
		t := m.update(e.TID, e.Comm, e.Prio)
		t.Preemptions++
	}
}

// update records the latest name and priority of tid. Caller holds mu.
func (m *Manager) update(tid uint32, comm string, prio uint32) *ThreadMetadata {
	t := m.threads[tid]
	if t == nil {
		t = &ThreadMetadata{TID: tid}
		m.threads[tid] = t
	}
	if comm != "" {
		t.Comm = comm
	}
	t.Prio = prio
	return t
}
