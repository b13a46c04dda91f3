package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql" // register the mysql driver
)

// SQLHandler is a slog.Handler that forwards every record to next and
// additionally inserts error-level records into a SQL table, one row per
// record. The table is created on construction if it does not exist.
type SQLHandler struct {
	next  slog.Handler
	db    *sql.DB
	table string
}

// NewSQLHandler creates a SQLHandler over an existing DB connection. The
// caller keeps ownership of db and closes it.
func NewSQLHandler(next slog.Handler, db *sql.DB) (*SQLHandler, error) {
	h := &SQLHandler{next: next, db: db, table: "entiq_errors"}
	if err := h.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure telemetry table: %w", err)
	}
	return h, nil
}

func (h *SQLHandler) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			timestamp TIMESTAMP,
			level VARCHAR(10),
			message TEXT,
			user_id VARCHAR(255),
			session_id VARCHAR(255),
			request_source VARCHAR(255),
			source_file VARCHAR(255),
			line_number INT,
			attributes JSON
		)
	`, h.table)

	_, err := h.db.Exec(query)
	return err
}

// Enabled implements slog.Handler.
func (h *SQLHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler. The record always reaches the next
// handler; only errors and above are written to the database, and a failed
// insert never fails the logging chain.
func (h *SQLHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		return nil
	}

	rec := errorRecordOf(ctx, r)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, timestamp, level, message, user_id, session_id, request_source, source_file, line_number, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.table)

	if _, err := h.db.Exec(query,
		rec.ID,
		rec.Timestamp,
		rec.Level,
		rec.Message,
		rec.UserID,
		rec.SessionID,
		rec.RequestSource,
		rec.SourceFile,
		rec.LineNumber,
		rec.Attributes,
	); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write log to SQL: %v\n", err)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *SQLHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SQLHandler{next: h.next.WithAttrs(attrs), db: h.db, table: h.table}
}

// WithGroup implements slog.Handler.
func (h *SQLHandler) WithGroup(name string) slog.Handler {
	return &SQLHandler{next: h.next.WithGroup(name), db: h.db, table: h.table}
}
