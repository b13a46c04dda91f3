package entiq

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracelab/entiq/pkg/config"
	"github.com/tracelab/entiq/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Entiq HTTP server",
	Long: `Start the Entiq HTTP server to provide REST API access to the query engine.

The server provides endpoints for:
- Searching entities by criteria
- Global text search across entity kinds
- Fetching entities by reference
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server-specific flags
	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Store flags
	serveCmd.Flags().String("store-driver", "memory", "Entity store driver (memory, badger, neo4j)")
	serveCmd.Flags().String("store-uri", "", "Store URI (badger path or neo4j bolt uri)")
	serveCmd.Flags().String("store-username", "", "Store username (neo4j only)")
	serveCmd.Flags().String("store-password", "", "Store password (neo4j only)")
	serveCmd.Flags().String("store-database", "", "Store database name (neo4j only)")
	serveCmd.Flags().String("store-fixture", "", "YAML fixture file to load on startup")

	// Engine flags
	serveCmd.Flags().Int("workers", 0, "Hydration worker pool size (0 = one per CPU)")

	// Telemetry flags
	serveCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for query telemetry")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	engine, closeEngine, err := initializeEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer closeEngine()

	srv := server.New(cfg, engine)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Store flags
	if cmd.Flags().Changed("store-driver") {
		cfg.Store.Driver, _ = cmd.Flags().GetString("store-driver")
	}
	if cmd.Flags().Changed("store-uri") {
		cfg.Store.URI, _ = cmd.Flags().GetString("store-uri")
	}
	if cmd.Flags().Changed("store-username") {
		cfg.Store.Username, _ = cmd.Flags().GetString("store-username")
	}
	if cmd.Flags().Changed("store-password") {
		cfg.Store.Password, _ = cmd.Flags().GetString("store-password")
	}
	if cmd.Flags().Changed("store-database") {
		cfg.Store.Database, _ = cmd.Flags().GetString("store-database")
	}
	if cmd.Flags().Changed("store-fixture") {
		cfg.Store.Fixture, _ = cmd.Flags().GetString("store-fixture")
	}

	// Engine flags
	if cmd.Flags().Changed("workers") {
		cfg.Engine.Workers, _ = cmd.Flags().GetInt("workers")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServeConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	switch cfg.Store.Driver {
	case "", "memory":
	case "badger", "neo4j":
		if cfg.Store.URI == "" {
			return fmt.Errorf("store URI is required for the %s driver", cfg.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	return nil
}
