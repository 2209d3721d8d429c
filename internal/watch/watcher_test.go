package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRequiresRoot(t *testing.T) {
	_, err := Start(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

func TestStartSignalsAfterDebounce(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Start(ctx, Config{Root: dir, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	// A burst of related files should coalesce into a single signal.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inv_1705329000000.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inv_1705329000000_invoice.pdf"), []byte("b"), 0o644))

	select {
	case _, ok := <-events:
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounced signal")
	}
}

func TestStartIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Start(ctx, Config{Root: dir, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.log"), []byte("x"), 0o644))

	select {
	case <-events:
		t.Fatal("unexpected signal for ignored extension")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStartClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := Start(ctx, Config{Root: dir}, nil)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should close on cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
