package procstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreAddAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.db")
	s := openTestStore(t, path)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "t1"))
	require.NoError(t, s.Add(ctx, "t2"))

	ids, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"t1": {}, "t2": {}}, ids)
}

func TestStoreAddIdempotent(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "ids.db"))
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "t1"))
	require.NoError(t, s.Add(ctx, "t1"))

	ids, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestStoreIgnoresEmptyID(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "ids.db"))
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, ""))

	ids, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ids.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, "t1"))
	require.NoError(t, s.Close())

	s2 := openTestStore(t, path)
	ids, err := s2.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "t1")
}
