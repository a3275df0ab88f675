package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	run := RunInfo{ID: "run-1", Input: "capture.bin", CreatedAt: time.Unix(1700000000, 0)}

	w, err := NewSQLiteWriter(context.Background(), path, run)
	require.NoError(t, err)
	for _, e := range sampleEntries() {
		require.NoError(t, w.WriteEntry(e))
	}
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var input string
	var count int
	require.NoError(t, db.QueryRow("SELECT input, events FROM runs WHERE run_id = ?", "run-1").Scan(&input, &count))
	assert.Equal(t, "capture.bin", input)
	assert.Equal(t, 3, count)

	rows, err := db.Query("SELECT seq, ts_ns, cpu, name, category, message FROM events ORDER BY seq")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	var stamps []int64
	for rows.Next() {
		var seq, ts int64
		var cpu int
		var name, category, message string
		require.NoError(t, rows.Scan(&seq, &ts, &cpu, &name, &category, &message))
		names = append(names, name)
		stamps = append(stamps, ts)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"printf", "binary", "sched_switch"}, names)
	assert.Equal(t, []int64{50_000, 75_000, 100_500}, stamps)

	var fields string
	var payload []byte
	require.NoError(t, db.QueryRow("SELECT fields, payload FROM events WHERE seq = 2").Scan(&fields, &payload))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(fields), &decoded))
	assert.Equal(t, "ff", decoded["_hex"])

	raw, err := snappy.Decode(nil, payload)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff}, raw)

	var nullPayload []byte
	require.NoError(t, db.QueryRow("SELECT payload FROM events WHERE seq = 1").Scan(&nullPayload))
	assert.Nil(t, nullPayload)
}

func TestSQLiteWriter_AbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()

	w, err := NewSQLiteWriter(context.Background(), filepath.Join(dir, "trace.db"), RunInfo{ID: "run-1"})
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(sampleEntries()[0]))
	require.NoError(t, w.Abort())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Error(t, w.WriteEntry(sampleEntries()[0]))
}
