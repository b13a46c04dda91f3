package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq/pkg/types"
)

func TestParquetHandlerFlushesErrorRecords(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(slog.NewTextHandler(io.Discard, nil), dir)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), types.ContextKeyUserID, "alice")
	ctx = context.WithValue(ctx, types.ContextKeySessionID, "sess-1")
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "cli")

	log := slog.New(h)
	log.InfoContext(ctx, "hydrating result page")
	log.ErrorContext(ctx, "store unavailable", "driver", "badger")
	require.NoError(t, h.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "engine_errors_"))

	rows, err := parquet.ReadFile[ErrorRecord](filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "store unavailable", rows[0].Message)
	assert.Equal(t, "alice", rows[0].UserID)
	assert.Equal(t, "sess-1", rows[0].SessionID)
	assert.Equal(t, "cli", rows[0].RequestSource)
	assert.Contains(t, rows[0].Attributes, `"driver":"badger"`)
}

func TestParquetHandlerIgnoresBelowError(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(slog.NewTextHandler(io.Discard, nil), dir)
	require.NoError(t, err)

	log := slog.New(h)
	log.Info("persisting entities to store")
	log.Warn("rate limit approaching")
	require.NoError(t, h.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
