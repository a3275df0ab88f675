package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chromeDoc struct {
	TraceEvents     []chromeEvent  `json:"traceEvents"`
	DisplayTimeUnit string         `json:"displayTimeUnit"`
	OtherData       map[string]any `json:"otherData"`
}

func TestChromeWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")

	w, err := NewChromeWriter(path, "firmware", 3, map[string]any{"input": "capture.bin"})
	require.NoError(t, err)
	for _, e := range sampleEntries() {
		require.NoError(t, w.WriteEntry(e))
	}

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing at the destination before Close")

	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc chromeDoc
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "ns", doc.DisplayTimeUnit)
	assert.Equal(t, "capture.bin", doc.OtherData["input"])

	require.Len(t, doc.TraceEvents, 1+3+3)

	assert.Equal(t, "process_name", doc.TraceEvents[0].Name)
	assert.Equal(t, "M", doc.TraceEvents[0].Phase)
	assert.Equal(t, "thread_name", doc.TraceEvents[3].Name)
	assert.Equal(t, "cpu2", doc.TraceEvents[3].Args["name"])
	assert.Equal(t, 2, doc.TraceEvents[3].ThreadID)

	events := doc.TraceEvents[4:]
	assert.Equal(t, "printf", events[0].Name)
	assert.Equal(t, "string", events[0].Category)
	assert.Equal(t, "i", events[0].Phase)
	assert.Equal(t, "t", events[0].Scope)
	assert.Equal(t, 50.0, events[0].Timestamp)
	assert.Equal(t, 1, events[0].ThreadID)
	assert.Equal(t, "b", events[0].Args["_str"])

	assert.Equal(t, "ff", events[1].Args["_hex"])

	assert.Equal(t, "sched_switch", events[2].Name)
	assert.Equal(t, 100.5, events[2].Timestamp)
	assert.Equal(t, "worker", events[2].Args["_next_comm"])
	assert.Equal(t, 42.0, events[2].Args["_next_tid"])
	assert.Equal(t, "evk", events[2].Args["board"])
}

func TestChromeWriter_AbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")

	w, err := NewChromeWriter(path, "firmware", 1, nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(sampleEntries()[0]))
	require.NoError(t, w.Abort())
	require.NoError(t, w.Close(), "Close after Abort is a no-op")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Error(t, w.WriteEntry(sampleEntries()[0]))
}

func TestChromeWriter_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	w, err := NewChromeWriter(path, "firmware", 1, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var doc chromeDoc
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.TraceEvents, 2)
	assert.NotNil(t, doc.OtherData)
}

func TestChromeWriter_MissingDirectory(t *testing.T) {
	_, err := NewChromeWriter(filepath.Join(t.TempDir(), "nope", "trace.json"), "firmware", 1, nil)
	assert.Error(t, err)
}
