package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceEntry records the state of a run at one generation. Entries are
// appended to a JSON Lines file so a run's convergence can be inspected
// or plotted after the fact.
type TraceEntry struct {
	Generation int       `json:"generation"`
	Best       []float64 `json:"best"`
	FrontSize  int       `json:"front_size"`
	Distinct   int       `json:"distinct"`
	Timestamp  time.Time `json:"timestamp"`
}

// TraceWriter appends trace entries to a JSONL file. Safe for
// concurrent use.
type TraceWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	path string
}

// tracePath returns the trace file path for a run.
func (fs *FSStore) tracePath(runID string) string {
	return filepath.Join(fs.runDir(runID), "trace.jsonl")
}

// NewTraceWriter opens (or creates) the trace file for a run in append
// mode.
func (fs *FSStore) NewTraceWriter(runID string) (*TraceWriter, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	runDir := fs.runDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := fs.tracePath(runID)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceWriter{
		file: file,
		buf:  bufio.NewWriterSize(file, 64*1024),
		path: path,
	}, nil
}

// Append writes one entry as a single JSON line.
func (tw *TraceWriter) Append(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize trace entry: %w", err)
	}
	if _, err := tw.buf.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := tw.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write trace newline: %w", err)
	}
	return nil
}

// Flush writes buffered entries to disk and syncs the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace buffer: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.buf.Flush(); err != nil {
		tw.file.Close()
		return fmt.Errorf("failed to flush trace buffer: %w", err)
	}
	if err := tw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Path returns the trace file path.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// ReadTrace loads all trace entries for a run.
func (fs *FSStore) ReadTrace(runID string) ([]TraceEntry, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	path := fs.tracePath(runID)
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer file.Close()

	var entries []TraceEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry TraceEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse trace line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	return entries, nil
}

// DeleteTrace removes the trace file for a run. Missing files are not
// an error.
func (fs *FSStore) DeleteTrace(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if err := os.Remove(fs.tracePath(runID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete trace file: %w", err)
	}
	return nil
}
