package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/storage"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calls.db")
	s, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("New(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeLog(exp string, offset time.Duration) *api.CallLog {
	text := "Verlagerung der Mittellinie"
	in, status := 40, 200
	ttft := 12.5
	return &api.CallLog{
		ID:                 api.NewCallID(),
		ExperimentID:       exp,
		SubjectID:          "313",
		ItemID:             "2",
		UserPrompt:         "Describe",
		Provider:           "anthropic",
		Model:              "claude-opus-4-1-20250805",
		Config:             map[string]any{"temperature": 0.2},
		InputChars:         &in,
		TTFTMillis:         &ttft,
		TotalLatencyMillis: 300,
		ResponseText:       &text,
		HTTPStatus:         &status,
		CreatedAt:          time.Date(2025, 8, 5, 9, 0, 0, 0, time.UTC).Add(offset),
	}
}

func TestNew_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calls.db")
	s, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file was not created: %v", err)
	}
}

func TestWriteAndGet(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	want := makeLog("exp-1", 0)
	if err := s.Write(ctx, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got.ResponseText != *want.ResponseText || *got.InputChars != 40 || *got.TTFTMillis != 12.5 {
		t.Errorf("got = %+v", got)
	}
	if got.InputTokens != nil || got.ErrorCategory != nil || got.ImagePath != nil || got.ResponseParams != nil {
		t.Error("NULL columns must scan back as nil")
	}
	if got.Config["temperature"] != 0.2 {
		t.Errorf("config = %v", got.Config)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Get(context.Background(), "call_missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWrite_Duplicate(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	l := makeLog("exp-1", 0)
	s.Write(ctx, l)
	if err := s.Write(ctx, l); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestListByExperiment_ConcurrentWriters(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Write(ctx, makeLog("exp-c", time.Duration(i)*time.Second)); err != nil {
				t.Errorf("Write: %v", err)
			}
		}(i)
	}
	wg.Wait()
	s.Write(ctx, makeLog("exp-other", 0))

	logs, err := s.ListByExperiment(ctx, "exp-c")
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 8 {
		t.Fatalf("got %d logs, want 8", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].CreatedAt.Before(logs[i-1].CreatedAt) {
			t.Error("logs must be ordered by creation time")
		}
	}
}

func TestWrite_AfterClose(t *testing.T) {
	s := tempStore(t)
	s.Close()
	if err := s.Write(context.Background(), makeLog("e", 0)); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
