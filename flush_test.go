package sitecount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFlushWritesRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultLogPath)
	tbl := NewTable("unit.c", 3)
	tbl.Inc(0)
	tbl.Inc(0)
	tbl.Inc(2)

	require.NoError(t, NewFlusher(path, nil).Flush(tbl.Record()))
	require.Equal(t, "unit.c:2,0,1\n", readFile(t, path))
}

func TestFlushAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultLogPath)
	prior := "old.c:9,9\nnot a record but kept\n"
	require.NoError(t, os.WriteFile(path, []byte(prior), 0o644))

	f := NewFlusher(path, nil)
	for i := int64(0); i < 3; i++ {
		require.NoError(t, f.Flush(Record{"unit.c", []int64{i}}))
	}

	require.Equal(t, prior+"unit.c:0\nunit.c:1\nunit.c:2\n", readFile(t, path))
}

func TestFlushMultipleRecordsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultLogPath)

	err := NewFlusher(path, nil).Flush(
		Record{"a.c", []int64{1, 2}},
		Record{"b.c", []int64{3}},
	)
	require.NoError(t, err)
	require.Equal(t, "a.c:1,2\nb.c:3\n", readFile(t, path))
}

func TestFlushNoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultLogPath)

	require.NoError(t, NewFlusher(path, nil).Flush())
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFlushOpenFailureIsReported(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	path := filepath.Join(t.TempDir(), "missing", DefaultLogPath)

	err := NewFlusher(path, zap.New(core)).Flush(Record{"unit.c", []int64{1}})
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)

	entries := logs.FilterMessage("Failed to open instrumentation log").All()
	require.Len(t, entries, 1)
	require.Equal(t, path, entries[0].ContextMap()["path"])
}
