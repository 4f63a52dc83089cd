package storage

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("job-1/report.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NotEmpty(t, path)

	file, err := store.Open("job-1/report.csv")
	require.NoError(t, err)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	file.Close()
	require.Equal(t, "a,b\n1,2\n", string(content))

	require.NoError(t, store.Delete("job-1/report.csv"))
	_, err = store.Open("job-1/report.csv")
	require.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("job-1/report.csv", []byte("data"))
	require.NoError(t, err)

	// A generous TTL keeps fresh files.
	kept, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	require.Empty(t, kept)

	// A zero-ish TTL sweeps everything.
	time.Sleep(5 * time.Millisecond)
	removed, err := store.CleanupOlderThan(time.Nanosecond)
	require.NoError(t, err)
	require.NotEmpty(t, removed)

	_, err = store.Open("job-1/report.csv")
	require.Error(t, err)
}
