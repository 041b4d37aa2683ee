package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// RecordWriter persists an ExecutionRecord to a single JSON document. The
// executor flushes after every step so a crashed or killed run leaves the
// last completed state on disk, and `status` can inspect a live run.
type RecordWriter struct {
	path string
}

// NewRecordWriter creates a writer targeting the given path. An empty path
// disables persistence; Flush becomes a no-op.
func NewRecordWriter(path string) *RecordWriter {
	return &RecordWriter{path: path}
}

// Path returns the target path, empty when persistence is disabled.
func (w *RecordWriter) Path() string { return w.path }

// Flush writes the record atomically: the document is written to a temp
// file in the target directory and renamed over the destination, so a
// concurrent `status` reader never observes a torn write.
func (w *RecordWriter) Flush(rec *domain.ExecutionRecord) error {
	if w.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution record: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".runlog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp log file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write execution record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp log file: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace execution record %s: %w", w.path, err)
	}
	return nil
}

// LoadRecord reads a previously persisted execution record.
func LoadRecord(path string) (*domain.ExecutionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, path)
		}
		return nil, fmt.Errorf("failed to read execution record %s: %w", path, err)
	}
	var rec domain.ExecutionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode execution record %s: %w", path, err)
	}
	return &rec, nil
}
