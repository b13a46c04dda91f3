package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/tracelab/entiq/pkg/types"
)

// QueryRecord is one engine call for Parquet storage.
type QueryRecord struct {
	ID         string    `parquet:"id"`
	Timestamp  time.Time `parquet:"timestamp"`
	UserID     string    `parquet:"user_id"`
	SessionID  string    `parquet:"session_id"`
	Operation  string    `parquet:"operation"`
	Kinds      string    `parquet:"kinds"`
	Results    int       `parquet:"results"`
	Total      int       `parquet:"total"`
	DurationMs float64   `parquet:"duration_ms"`
	Error      string    `parquet:"error"`
}

// Recorder receives one record per engine call. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Record(ctx context.Context, rec QueryRecord)
}

// NopRecorder discards all records.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, QueryRecord) {}

// ParquetRecorder buffers query records and flushes them to Parquet files in
// batches, like ParquetHandler does for error logs.
type ParquetRecorder struct {
	outputDir string
	mu        sync.Mutex
	buffer    []QueryRecord
	batchSize int
}

// NewParquetRecorder creates a ParquetRecorder writing under outputDir.
func NewParquetRecorder(outputDir string) (*ParquetRecorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	return &ParquetRecorder{
		outputDir: outputDir,
		batchSize: 100,
		buffer:    make([]QueryRecord, 0, 100),
	}, nil
}

// Record implements Recorder. Missing id, timestamp, and context metadata are
// filled in here so callers only set what they measured.
func (r *ParquetRecorder) Record(ctx context.Context, rec QueryRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.UserID == "" {
		if v, ok := ctx.Value(types.ContextKeyUserID).(string); ok {
			rec.UserID = v
		}
	}
	if v, ok := ctx.Value(types.ContextKeySessionID).(string); ok {
		rec.SessionID = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.batchSize {
		r.flush()
	}
}

// Close flushes any buffered records.
func (r *ParquetRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// Caller must hold the lock.
func (r *ParquetRecorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("queries_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)

	if err := parquet.WriteFile(path, r.buffer); err != nil {
		fmt.Printf("Failed to write telemetry parquet file: %v\n", err)
		return err
	}

	r.buffer = r.buffer[:0]
	return nil
}
