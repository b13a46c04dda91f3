package entiq

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq/pkg/config"
	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logLevel("warn"))
	assert.Equal(t, slog.LevelError, logLevel("error"))
	assert.Equal(t, slog.LevelInfo, logLevel("anything else"))
}

func TestInitializeEngineMemoryDriver(t *testing.T) {
	cfg := &config.Config{
		Log:    config.LogConfig{Level: "error"},
		Store:  config.StoreConfig{Driver: "memory"},
		Engine: config.EngineConfig{Workers: 1},
	}

	engine, closeAll, err := initializeEngine(cfg)
	require.NoError(t, err)
	t.Cleanup(closeAll)
	require.NotNil(t, engine)

	// An empty store answers searches with no results rather than errors.
	crit := criteria.For(types.KindSample)
	res, err := engine.SearchObjects(context.Background(), types.Principal{UserID: "alice"}, crit, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)
	assert.Empty(t, res.Objects)
}

func TestInitializeEngineRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{
		Log:   config.LogConfig{Level: "error"},
		Store: config.StoreConfig{Driver: "cassandra"},
	}

	_, _, err := initializeEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitializeEngineWiresParquetTelemetry(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Log:       config.LogConfig{Level: "error"},
		Store:     config.StoreConfig{Driver: "memory"},
		Engine:    config.EngineConfig{Workers: 1},
		Telemetry: config.TelemetryConfig{ParquetPath: dir},
	}

	engine, closeAll, err := initializeEngine(cfg)
	require.NoError(t, err)
	require.NotNil(t, engine)
	closeAll()

	// The telemetry directory exists; nothing was flushed without errors.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
