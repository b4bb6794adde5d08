// Package jsonl writes CallLogs as JSON lines, one growing file per
// experiment at {dir}/{experiment_id}/calls.jsonl.
//
// Files are opened in append mode, so reruns of an experiment extend the
// existing stream. Each record is written with a single write call and,
// when Sync is set, fsynced before Write returns.
package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/storage"
)

// FileName is the name of the stream within an experiment directory.
const FileName = "calls.jsonl"

// Sink appends CallLogs to per-experiment JSON lines files.
type Sink struct {
	dir  string
	sync bool

	mu     sync.Mutex
	files  map[string]*os.File
	closed bool
}

var _ storage.Sink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithSync makes every Write fsync the file.
func WithSync() Option {
	return func(s *Sink) { s.sync = true }
}

// New creates a sink rooted at dir. Files are opened on first use.
func New(dir string, opts ...Option) *Sink {
	s := &Sink{dir: dir, files: make(map[string]*os.File)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the stream file for an experiment.
func (s *Sink) Path(experimentID string) string {
	return storage.ExperimentPath(s.dir, experimentID, FileName)
}

// Write appends one record. Non-ASCII text is written as-is.
func (s *Sink) Write(_ context.Context, log *api.CallLog) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encoding call log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	f, err := s.file(log.ExperimentID)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", f.Name(), err)
	}
	if s.sync {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("syncing %s: %w", f.Name(), err)
		}
	}
	return nil
}

// file returns the open stream for an experiment. Must be called with
// s.mu held.
func (s *Sink) file(experimentID string) (*os.File, error) {
	path := s.Path(experimentID)
	if f, ok := s.files[path]; ok {
		return f, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	debug.Log("storage", "opened jsonl stream", "path", path)
	s.files[path] = f
	return f, nil
}

// Close closes every open stream.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for path, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", path, err)
		}
	}
	s.files = nil
	return firstErr
}
