package entiq

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tracelab/entiq"
	"github.com/tracelab/entiq/pkg/alert"
	"github.com/tracelab/entiq/pkg/badgerstore"
	"github.com/tracelab/entiq/pkg/config"
	entiqLogger "github.com/tracelab/entiq/pkg/logger"
	"github.com/tracelab/entiq/pkg/memstore"
	"github.com/tracelab/entiq/pkg/neo4jstore"
	"github.com/tracelab/entiq/pkg/provider"
	"github.com/tracelab/entiq/pkg/telemetry"
)

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initializeEngine assembles the query engine from configuration: the
// entity store, optional circuit breaking, telemetry, and the engine
// itself. The returned closer releases the store and flushes telemetry.
func initializeEngine(cfg *config.Config) (*entiq.Engine, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Error-level records fan out to the configured telemetry sinks on top
	// of the colored stderr handler.
	var handler slog.Handler = entiqLogger.NewColorHandler(os.Stderr, logLevel(cfg.Log.Level))
	if cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create parquet telemetry handler: %w", err)
		}
		closers = append(closers, func() { _ = parquetHandler.Close() })
		handler = parquetHandler
	}
	if cfg.Telemetry.DbURL != "" {
		db, err := sql.Open("mysql", cfg.Telemetry.DbURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open telemetry database: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		sqlHandler, err := telemetry.NewSQLHandler(handler, db)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to create sql telemetry handler: %w", err)
		}
		handler = sqlHandler
	}
	logger := slog.New(handler)

	// The memory store always participates: as the store itself for the
	// memory driver, and as the fixture/schema source for the persistent
	// drivers.
	mem := memstore.New()
	if cfg.Store.Fixture != "" {
		if err := mem.LoadFile(cfg.Store.Fixture); err != nil {
			return nil, nil, fmt.Errorf("failed to load fixture: %w", err)
		}
	}

	var loader provider.EntityLoader
	var index provider.MatchProvider

	switch cfg.Store.Driver {
	case "", "memory":
		loader, index = mem, mem

	case "badger":
		store, err := badgerstore.Open(cfg.Store.URI, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		if cfg.Store.Fixture != "" {
			if err := store.Seed(context.Background(), mem.Entities()); err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to seed badger store: %w", err)
			}
		}
		loader, index = store, store

	case "neo4j":
		store, err := neo4jstore.New(cfg.Store.URI, cfg.Store.Username, cfg.Store.Password, cfg.Store.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create neo4j store: %w", err)
		}
		closers = append(closers, func() { _ = store.Close(context.Background()) })
		if cfg.Store.Fixture != "" {
			if err := store.Seed(context.Background(), mem.Entities()); err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to seed neo4j store: %w", err)
			}
		}
		loader, index = store, store

	default:
		return nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if cfg.CircuitBreaker.Enabled {
		var alerter alert.Alerter = &alert.NoOpAlerter{}
		if cfg.Alert.Enabled {
			alerter = alert.NewEmailAlerter(alert.Config{
				Enabled:  cfg.Alert.Enabled,
				SMTPHost: cfg.Alert.SMTPHost,
				SMTPPort: cfg.Alert.SMTPPort,
				Username: cfg.Alert.Username,
				Password: cfg.Alert.Password,
				From:     cfg.Alert.From,
				To:       cfg.Alert.To,
			})
		}
		loader = provider.NewBreakerLoader(loader, provider.BreakerConfig{
			Enabled:          true,
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
			Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
			ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
		}, alerter, logger)
	}

	var recorder telemetry.Recorder = telemetry.NopRecorder{}
	if cfg.Telemetry.ParquetPath != "" {
		parquetRecorder, err := telemetry.NewParquetRecorder(cfg.Telemetry.ParquetPath)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to create telemetry recorder: %w", err)
		}
		closers = append(closers, func() { _ = parquetRecorder.Close() })
		recorder = parquetRecorder
	}

	engine := entiq.New(loader, index,
		entiq.WithLogger(logger),
		entiq.WithSchema(mem),
		entiq.WithAuthorizer(mem),
		entiq.WithRecorder(recorder),
		entiq.WithWorkers(cfg.Engine.Workers),
	)
	return engine, closeAll, nil
}
