package procmeta

import (
	"testing"

	"github.com/mrzor/tracelog-converter/internal/events"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

func switchOn(cpu uint8, prev, next string, prevTID, nextTID uint32) *events.SchedSwitch {
	return &events.SchedSwitch{
		Meta:      events.Meta{CPU: cpu, Type: tracelog.TypeKernel, Subtype: tracelog.KernelContextSwitch},
		PrevComm:  prev,
		PrevTID:   prevTID,
		PrevPrio:  31,
		PrevState: events.SwitchPrevState,
		NextComm:  next,
		NextTID:   nextTID,
		NextPrio:  5,
	}
}

// thread looks tid up the way Threads reports it.
func thread(m *Manager, tid uint32) *ThreadMetadata {
	for _, th := range m.Threads() {
		if th.TID == tid {
			return &th
		}
	}
	return nil
}

func TestManager_RunningBeforeFirstSwitch(t *testing.T) {
	m := NewManager()

	if got := m.Running(0); got != nil {
		t.Errorf("Running(0) = %+v, want nil", got)
	}
}

func TestManager_ObserveSwitch(t *testing.T) {
	m := NewManager()

	m.Observe(switchOn(1, "idle", "worker", 0, 42))

	got := m.Running(1)
	if got == nil {
		t.Fatal("Running(1) returned nil")
	}
	if got.Comm != "worker" || got.TID != 42 || got.Prio != 5 {
		t.Errorf("Running(1) = %+v, want worker/42/5", got)
	}
	if got.Switches != 1 {
		t.Errorf("Switches = %d, want 1", got.Switches)
	}

	idle := thread(m, 0)
	if idle == nil {
		t.Fatal("thread 0 returned nil")
	}
	if idle.Comm != "idle" || idle.Switches != 0 {
		t.Errorf("thread 0 = %+v, want idle with no switches", idle)
	}

	if m.Running(0) != nil {
		t.Error("other CPUs should be unaffected")
	}
}

func TestManager_SwitchBack(t *testing.T) {
	m := NewManager()

	m.Observe(switchOn(0, "idle", "worker", 0, 42))
	m.Observe(switchOn(0, "worker", "idle", 42, 0))

	if got := m.Running(0); got == nil || got.TID != 0 {
		t.Errorf("Running(0) = %+v, want TID 0", got)
	}
	if got := thread(m, 42).Switches; got != 1 {
		t.Errorf("worker switches = %d, want 1", got)
	}
}

func TestManager_ObservePreempt(t *testing.T) {
	m := NewManager()

	m.Observe(&events.Preempt{Comm: "audio", TID: 9, Prio: 2})
	m.Observe(&events.Preempt{Comm: "audio", TID: 9, Prio: 3})

	got := thread(m, 9)
	if got == nil {
		t.Fatal("thread 9 returned nil")
	}
	if got.Preemptions != 2 || got.Prio != 3 {
		t.Errorf("thread 9 = %+v, want 2 preemptions at prio 3", got)
	}
}

func TestManager_IgnoresOtherEvents(t *testing.T) {
	m := NewManager()

	m.Observe(&events.TimerTick{})
	m.Observe(&events.String{Text: "hello"})

	if n := len(m.Threads()); n != 0 {
		t.Errorf("Threads() length = %d, want 0", n)
	}
}

func TestManager_KeepsKnownNameOnEmptyComm(t *testing.T) {
	m := NewManager()

	m.Observe(switchOn(0, "", "worker", 0, 42))
	m.Observe(switchOn(0, "", "", 42, 7))

	if got := thread(m, 42).Comm; got != "worker" {
		t.Errorf("Comm = %q, want worker", got)
	}
}

func TestManager_ThreadsSorted(t *testing.T) {
	m := NewManager()

	m.Observe(switchOn(0, "b", "a", 20, 10))
	m.Observe(&events.Preempt{Comm: "c", TID: 5})

	threads := m.Threads()
	if len(threads) != 3 {
		t.Fatalf("Threads() length = %d, want 3", len(threads))
	}
	for i, want := range []uint32{5, 10, 20} {
		if threads[i].TID != want {
			t.Errorf("threads[%d].TID = %d, want %d", i, threads[i].TID, want)
		}
	}

	// Threads returns copies.
	threads[0].Comm = "changed"
	if thread(m, 5).Comm != "c" {
		t.Error("Threads() should return copies")
	}
}

func TestManager_Nil(t *testing.T) {
	var m *Manager

	m.Observe(switchOn(0, "idle", "worker", 0, 42))
	if m.Running(0) != nil || m.Threads() != nil {
		t.Error("nil Manager should record nothing")
	}
}
