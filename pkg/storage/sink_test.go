package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rhuss/vendorbench/pkg/api"
)

type recordingSink struct {
	written []*api.CallLog
	err     error
	closed  bool
}

func (r *recordingSink) Write(_ context.Context, l *api.CallLog) error {
	if r.err != nil {
		return r.err
	}
	r.written = append(r.written, l)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestMulti_WritesAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("disk full")
	a := &recordingSink{}
	b := &recordingSink{err: boom}
	c := &recordingSink{}

	err := Multi{a, b, c}.Write(context.Background(), &api.CallLog{ID: "call_1"})
	if !errors.Is(err, boom) {
		t.Errorf("Write() = %v, want %v", err, boom)
	}
	if len(a.written) != 1 || len(c.written) != 1 {
		t.Error("a failing sink must not prevent the others from writing")
	}

	if err := (Multi{a, c}).Close(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !c.closed {
		t.Error("Close must reach every sink")
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gpt-4.1", "gpt-4.1"},
		{"models/gemini-2.5-pro", "models_gemini-2.5-pro"},
		{"a:b", "a_b"},
		{"..", "_"},
		{"  ", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SafeName(tt.in); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExperimentPath(t *testing.T) {
	got := ExperimentPath("out", "313", "gpt-4o.csv")
	if got != filepath.Join("out", "313", "gpt-4o.csv") {
		t.Errorf("ExperimentPath() = %q", got)
	}
}
