package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-pipeline/internal/cache"
	"github.com/pdiddy/paper-pipeline/internal/config"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

func TestLogCacheStats(t *testing.T) {
	ctx := context.Background()
	store, err := cache.Open(filepath.Join(t.TempDir(), "abstracts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Put(ctx, "edge placement", types.SourceResult{Found: true, Abstract: "a", Source: "Semantic Scholar"}))
	require.NoError(t, store.Put(ctx, "cold starts", types.SourceResult{Found: true, Abstract: "b", Source: "Semantic Scholar"}))
	require.NoError(t, store.Put(ctx, "tail latency", types.SourceResult{Found: true, Abstract: "c", Source: "arXiv"}))

	var buf bytes.Buffer
	logCacheStats(ctx, store, zerolog.New(&buf))

	var entry struct {
		Level    string         `json:"level"`
		Entries  int            `json:"entries"`
		BySource map[string]int `json:"by_source"`
		Message  string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry.Level)
	assert.Equal(t, "abstract cache loaded", entry.Message)
	assert.Equal(t, 3, entry.Entries)
	assert.Equal(t, map[string]int{"Semantic Scholar": 2, "arXiv": 1}, entry.BySource)
}

func TestLogCacheStats_ClosedStoreWarns(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "abstracts.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	logCacheStats(context.Background(), store, zerolog.New(&buf))

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "reading cache stats")
}

func TestStartupLogger_FollowsConfiguredLevel(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	assert.Equal(t, zerolog.InfoLevel, startupLogger(v).GetLevel())

	v.Set("logging.level", "debug")
	assert.Equal(t, zerolog.DebugLevel, startupLogger(v).GetLevel())
}
