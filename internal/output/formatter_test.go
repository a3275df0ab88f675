package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/tracelog-converter/internal/attributes"
	"github.com/mrzor/tracelog-converter/internal/config"
	"github.com/mrzor/tracelog-converter/internal/events"
	"github.com/mrzor/tracelog-converter/internal/tracelog"
)

func TestFormatter_Messages(t *testing.T) {
	w := &memoryWriter{}
	f := NewFormatter(w, nil)
	kernel := func(sub uint8) events.Meta { return meta(1, 0, tracelog.TypeKernel, sub) }

	require.NoError(t, f.HandleString(&events.String{Text: "hello"}))
	require.NoError(t, f.HandleBinary(&events.Binary{Data: make([]byte, 12)}))
	require.NoError(t, f.HandleIRQEntry(&events.IRQEntry{Meta: kernel(tracelog.KernelIRQEnter), IRQ: 27}))
	require.NoError(t, f.HandleIRQExit(&events.IRQExit{Meta: kernel(tracelog.KernelIRQExit), IRQ: 27}))
	require.NoError(t, f.HandleSchedSwitch(&events.SchedSwitch{
		PrevComm: "idle", PrevTID: 0, PrevPrio: 31,
		NextComm: "worker", NextTID: 42, NextPrio: 5,
	}))
	require.NoError(t, f.HandlePreempt(&events.Preempt{Comm: "audio", TID: 9, Prio: 2}))
	require.NoError(t, f.HandleTimerTick(&events.TimerTick{}))
	require.NoError(t, f.HandleTimerCall(&events.TimerCall{Callback: 0x4000a0, Arg: 0x10}))
	require.NoError(t, f.HandleAFControl(&events.AFControl{Stage: 1, Dir: 0, Opcode: 0x300}))
	require.NoError(t, f.HandleAFData(&events.AFData{Stage: 4, Dir: 1, ID: 3, SampleRate: 48000, BitsPerSample: 16, NumChannels: 2, ChunkSize: 960}))

	var got []string
	for _, e := range w.entries {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{
		"hello",
		"Binary data size: 12 bytes",
		"Enter handler IRQ #27",
		"Exit handler IRQ #27",
		`Context switch from "idle" [TID: 0, prio: 31] to "worker" [TID: 42, prio: 5]`,
		`Thread "audio" [TID: 9, prio: 2] preempted`,
		"Timer tick",
		"Timer call callback: 0x4000a0 arg: 0x10",
		"CP IN CP_PING_IND",
		"DECODER OUT buffer 3: 48000 Hz, 16 bit, 2 ch, format 0, chunk 960 bytes",
	}, got)
}

func TestFormatter_CustomAttributes(t *testing.T) {
	evaluator, err := attributes.NewEvaluator([]config.CustomAttribute{
		{Name: "lane", Expression: `"cpu" + string(cpu)`},
	}, nil)
	require.NoError(t, err)

	w := &memoryWriter{}
	f := NewFormatter(w, evaluator)
	require.NoError(t, f.HandleString(&events.String{Meta: meta(1, 2, tracelog.TypeString, 0), Text: "x"}))

	require.Len(t, w.entries, 1)
	e := w.entries[0]
	assert.Equal(t, []events.Field{{Key: "lane", Value: "cpu2"}}, e.Extra)
	assert.Equal(t, []events.Field{
		{Key: "_str", Value: "x"},
		{Key: "lane", Value: "cpu2"},
	}, e.Fields())
}

func TestFormatter_WriterError(t *testing.T) {
	f := NewFormatter(&memoryWriter{failOn: 1}, nil)
	assert.Error(t, f.HandleTimerTick(&events.TimerTick{}))
}
