package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/storage"
)

func record(exp, model, text string) *api.CallLog {
	return &api.CallLog{
		ID:           api.NewCallID(),
		ExperimentID: exp,
		Provider:     "openai",
		Model:        model,
		ResponseText: &text,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestSink_VisibleAfterEachWrite(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	defer s.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := s.Write(ctx, record("exp-1", "gpt-4o", fmt.Sprintf("answer %d", i))); err != nil {
			t.Fatal(err)
		}
		// An independent reader sees the record before the next write.
		if got := readLines(t, s.Path("exp-1")); len(got) != i {
			t.Fatalf("after write %d: %d lines on disk", i, len(got))
		}
	}
}

func TestSink_AppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for run := 0; run < 2; run++ {
		s := New(dir, WithSync())
		if err := s.Write(ctx, record("exp-1", "o1", "x")); err != nil {
			t.Fatal(err)
		}
		s.Close()
	}

	if got := readLines(t, New(dir).Path("exp-1")); len(got) != 2 {
		t.Errorf("lines = %d, want 2", len(got))
	}
}

func TestSink_UnicodeNotEscaped(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	defer s.Close()

	if err := s.Write(context.Background(), record("exp-1", "gpt-4o", "Mittellinie <5mm> verschoben")); err != nil {
		t.Fatal(err)
	}

	line := readLines(t, s.Path("exp-1"))[0]
	if !strings.Contains(line, "Mittellinie <5mm> verschoben") {
		t.Errorf("line = %s", line)
	}
	var back api.CallLog
	if err := json.Unmarshal([]byte(line), &back); err != nil {
		t.Fatal(err)
	}
}

func TestSink_ConcurrentWritesKeepLinesIntact(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Write(context.Background(), record("exp-1", fmt.Sprintf("m%d", i), strings.Repeat("x", 4096)))
		}(i)
	}
	wg.Wait()

	lines := readLines(t, s.Path("exp-1"))
	if len(lines) != 20 {
		t.Fatalf("lines = %d, want 20", len(lines))
	}
	for _, l := range lines {
		var rec api.CallLog
		if err := json.Unmarshal([]byte(l), &rec); err != nil {
			t.Fatalf("corrupt line: %v", err)
		}
	}
}

func TestSink_WriteAfterClose(t *testing.T) {
	s := New(t.TempDir())
	s.Close()
	if err := s.Write(context.Background(), record("e", "m", "x")); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Write() = %v, want ErrClosed", err)
	}
}
