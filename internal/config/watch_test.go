package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan string, 4)
	require.NoError(t, WatchFile(ctx, path, 10*time.Millisecond, nil, func(b []byte) { updates <- string(b) }))
	assert.Equal(t, "v1", <-updates)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	later := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case got := <-updates:
		assert.Equal(t, "v2", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no update after file change")
	}
}

func TestWatchFile_Missing(t *testing.T) {
	err := WatchFile(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), time.Second, nil, func([]byte) {})
	assert.Error(t, err)
}
