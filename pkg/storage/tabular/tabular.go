// Package tabular writes one CSV file per model for each experiment at
// {dir}/{experiment_id}/{provider}_{model}.csv.
//
// The header is written when a file is created empty. Every row is flushed
// to the file before Write returns.
package tabular

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/storage"
)

// Header is the fixed column set of every per-model file.
var Header = []string{
	"subject_id",
	"item_id",
	"response_text",
	"input_tokens",
	"output_tokens",
	"input_chars",
	"output_chars",
	"ttft_ms",
	"total_latency_ms",
	"http_status",
	"error_category",
	"response_params",
}

type file struct {
	f *os.File
	w *csv.Writer
}

// Sink writes CallLogs as CSV rows.
type Sink struct {
	dir string

	mu     sync.Mutex
	files  map[string]*file
	closed bool
}

var _ storage.Sink = (*Sink)(nil)

// New creates a sink rooted at dir. Files are opened on first use and kept
// open until Close.
func New(dir string) *Sink {
	return &Sink{dir: dir, files: make(map[string]*file)}
}

// Path returns the CSV file for one model of an experiment.
func (s *Sink) Path(experimentID, provider, model string) string {
	return storage.ExperimentPath(s.dir, experimentID, storage.ModelFileName(provider, model)+".csv")
}

// Write appends one row and flushes it.
func (s *Sink) Write(_ context.Context, log *api.CallLog) error {
	row, err := Row(log)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	tf, err := s.open(log.ExperimentID, log.Provider, log.Model)
	if err != nil {
		return err
	}
	if err := tf.w.Write(row); err != nil {
		return fmt.Errorf("writing row to %s: %w", tf.f.Name(), err)
	}
	tf.w.Flush()
	if err := tf.w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", tf.f.Name(), err)
	}
	return nil
}

// open returns the writer for a model file, creating the file and its
// header on first use. Must be called with s.mu held.
func (s *Sink) open(experimentID, provider, model string) (*file, error) {
	path := s.Path(experimentID, provider, model)
	if tf, ok := s.files[path]; ok {
		return tf, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	tf := &file{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		tf.w.Write(Header)
		tf.w.Flush()
		if err := tf.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing header to %s: %w", path, err)
		}
	}

	debug.Log("storage", "opened csv file", "path", path, "existing_bytes", info.Size())
	s.files[path] = tf
	return tf, nil
}

// Close closes every open file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for path, tf := range s.files {
		if err := tf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", path, err)
		}
	}
	s.files = nil
	return firstErr
}

// Row renders a CallLog in Header column order. Absent values are empty
// cells.
func Row(log *api.CallLog) ([]string, error) {
	params := ""
	if len(log.ResponseParams) > 0 {
		data, err := json.Marshal(log.ResponseParams)
		if err != nil {
			return nil, fmt.Errorf("encoding response params: %w", err)
		}
		params = string(data)
	}

	return []string{
		log.SubjectID,
		log.ItemID,
		str(log.ResponseText),
		integer(log.InputTokens),
		integer(log.OutputTokens),
		integer(log.InputChars),
		integer(log.OutputChars),
		float(log.TTFTMillis),
		strconv.FormatFloat(log.TotalLatencyMillis, 'f', 3, 64),
		integer(log.HTTPStatus),
		str(log.ErrorCategory),
		params,
	}, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func integer(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func float(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 3, 64)
}
