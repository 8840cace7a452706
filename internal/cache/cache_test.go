package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "serverless computing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := types.SourceResult{Found: true, Abstract: "An abstract.", Source: "arXiv"}
	require.NoError(t, s.Put(ctx, "serverless computing", want))

	got, ok, err := s.Get(ctx, "serverless computing")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestStore_PutOverwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, s.Put(ctx, "k", types.SourceResult{Found: true, Abstract: "old", Source: "CORE"}))
	require.NoError(t, s.Put(ctx, "k", types.SourceResult{Found: true, Abstract: "new", Source: "HAL"}))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Abstract)
	assert.Equal(t, "HAL", got.Source)

	var fetched string
	require.NoError(t, s.db.QueryRow(`SELECT fetched_at FROM abstracts WHERE title_key = 'k'`).Scan(&fetched))
	assert.Equal(t, "2026-01-02T03:04:05Z", fetched)
}

func TestStore_IgnoresMisses(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", types.NotFound("arXiv")))
	require.NoError(t, s.Put(ctx, "b", types.SourceResult{Found: true, Source: "arXiv"}))
	require.NoError(t, s.Put(ctx, "", types.SourceResult{Found: true, Abstract: "x", Source: "arXiv"}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Entries)
}

func TestStore_Stats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for key, src := range map[string]string{"a": "arXiv", "b": "arXiv", "c": "OpenAlex"} {
		require.NoError(t, s.Put(ctx, key, types.SourceResult{Found: true, Abstract: "text", Source: src}))
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Entries)
	assert.Equal(t, map[string]int{"arXiv": 2, "OpenAlex": 1}, st.BySource)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", types.SourceResult{Found: true, Abstract: "kept", Source: "CORE"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kept", got.Abstract)
}
