// Package snapshot keeps the latest CallLog of every model as an indented
// JSON document at {dir}/{experiment_id}/{provider}_{model}.json.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/storage"
)

// Sink overwrites a per-model snapshot on every write.
type Sink struct {
	dir string

	mu     sync.Mutex
	closed bool
}

var _ storage.Sink = (*Sink)(nil)

// New creates a snapshot sink rooted at dir.
func New(dir string) *Sink {
	return &Sink{dir: dir}
}

// Path returns the snapshot file for one model of an experiment.
func (s *Sink) Path(experimentID, provider, model string) string {
	return storage.ExperimentPath(s.dir, experimentID, storage.ModelFileName(provider, model)+".json")
}

// Write replaces the model's snapshot. The file is written to a temporary
// name and renamed so readers never see a partial document.
func (s *Sink) Write(_ context.Context, log *api.CallLog) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encoding call log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	path := s.Path(log.ExperimentID, log.Provider, log.Model)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Close marks the sink closed. Snapshots hold no open files.
func (s *Sink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
