package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rhuss/vendorbench/pkg/api"
)

// Sink persists CallLogs.
type Sink interface {
	// Write stores one record. It returns once the record is durable.
	Write(ctx context.Context, log *api.CallLog) error

	// Close releases file handles or connections. Writes after Close
	// fail with ErrClosed.
	Close() error
}

// Multi writes every record to each sink in order.
type Multi []Sink

var _ Sink = Multi(nil)

// Write attempts every sink even when one fails and joins the errors.
func (m Multi) Write(ctx context.Context, log *api.CallLog) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, log); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins the errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SafeName turns an identifier such as a model name into a single path
// element. Separators and characters that are unsafe in file names become
// underscores.
func SafeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// ModelFileName names a per-model file. The provider prefix keeps models
// with the same name at different vendors apart.
func ModelFileName(provider, model string) string {
	if provider == "" {
		return SafeName(model)
	}
	return SafeName(provider) + "_" + SafeName(model)
}

// ExperimentPath returns {dir}/{experiment}/{name} with both elements
// passed through SafeName.
func ExperimentPath(dir, experimentID, name string) string {
	return filepath.Join(dir, SafeName(experimentID), SafeName(name))
}
