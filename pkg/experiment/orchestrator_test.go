package experiment

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/config"
	"github.com/rhuss/vendorbench/pkg/provider"
	"github.com/rhuss/vendorbench/pkg/storage"
	"github.com/rhuss/vendorbench/pkg/storage/jsonl"
	"github.com/rhuss/vendorbench/pkg/storage/memory"
)

// scripted replays fixed events through the shared call driver.
type scripted struct {
	events []provider.Event
	err    error
	// hang keeps the stream open after the script until ctx is done.
	hang bool
}

func (s *scripted) Stream(ctx context.Context, _ *provider.GenerationRequest) (<-chan provider.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan provider.Event)
	go func() {
		defer close(ch)
		for _, ev := range s.events {
			if !provider.Send(ctx, ch, ev) {
				return
			}
		}
		if s.hang {
			<-ctx.Done()
			provider.Send(ctx, ch, provider.Failure(ctx.Err()))
		}
	}()
	return ch, nil
}

// fakeAdapter is a provider.Provider backed by a scripted stream.
type fakeAdapter struct {
	stream  *scripted
	timeout time.Duration
	panics  bool

	calls atomic.Int32
	// lastOverrides is the overrides map of the last request seen.
	lastOverrides atomic.Value
}

func (f *fakeAdapter) Name() string  { return "fake" }
func (f *fakeAdapter) Model() string { return "fake" }

func (f *fakeAdapter) Generate(ctx context.Context, req *provider.GenerationRequest) provider.ResponseContract {
	f.calls.Add(1)
	f.lastOverrides.Store(req.Overrides)
	if f.panics {
		panic("adapter bug")
	}
	timeout := f.timeout
	if timeout == 0 {
		timeout = time.Second
	}
	return provider.Generate(ctx, f.stream, req, timeout)
}

func member(prov, model string, a *fakeAdapter) Member {
	return Member{Spec: provider.ModelSpec{Provider: prov, Model: model}, Provider: a}
}

func helloAdapter() *fakeAdapter {
	return &fakeAdapter{stream: &scripted{events: []provider.Event{
		provider.TextDelta("Hello"),
		provider.TextDelta(" world"),
		provider.Terminal(),
	}}}
}

// redPNG writes a 10x10 red PNG and returns its path.
func redPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "red.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTask(image string) *api.Task {
	return &api.Task{
		ExperimentID: "exp-test",
		PromptID:     "describe",
		Request: provider.GenerationRequest{
			UserPrompt: "Describe this image",
			ImagePath:  image,
		},
	}
}

func TestNew_Validation(t *testing.T) {
	sink := memory.New(0)
	if _, err := New(nil, sink, Config{}); err == nil {
		t.Error("empty roster should be rejected")
	}
	if _, err := New([]Member{member("openai", "x", helloAdapter())}, nil, Config{}); err == nil {
		t.Error("nil sink should be rejected")
	}
	if _, err := New([]Member{{Spec: provider.ModelSpec{Provider: "openai", Model: "x"}}}, sink, Config{}); err == nil {
		t.Error("member without adapter should be rejected")
	}
}

func TestRun_HelloWorld(t *testing.T) {
	sink := memory.New(0)
	o, err := New([]Member{member("openai", "modelX", helloAdapter())}, sink, Config{})
	if err != nil {
		t.Fatal(err)
	}

	img := redPNG(t)
	logs, err := o.Run(context.Background(), newTask(img))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}

	l := logs[0]
	if l.ResponseText == nil || *l.ResponseText != "Hello world" {
		t.Errorf("response_text = %v, want %q", l.ResponseText, "Hello world")
	}
	if l.OutputChars == nil || *l.OutputChars != 11 {
		t.Errorf("output_chars = %v, want 11", l.OutputChars)
	}
	if l.ErrorCategory != nil {
		t.Errorf("error_category = %q, want nil", *l.ErrorCategory)
	}
	if l.HTTPStatus == nil || *l.HTTPStatus != 200 {
		t.Errorf("http_status = %v, want 200", l.HTTPStatus)
	}
	if l.ImagePath == nil || *l.ImagePath != img {
		t.Errorf("input_image_path = %v, want %s", l.ImagePath, img)
	}
	if l.Provider != "openai" || l.Model != "modelX" || l.ExperimentID != "exp-test" {
		t.Errorf("identity = %s/%s/%s", l.Provider, l.Model, l.ExperimentID)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("log should validate: %v", err)
	}
	if sink.Len() != 1 {
		t.Errorf("sink holds %d records, want 1", sink.Len())
	}
}

func TestRun_TimeoutMidStream(t *testing.T) {
	a := &fakeAdapter{
		stream:  &scripted{events: []provider.Event{provider.TextDelta("Partial")}, hang: true},
		timeout: 30 * time.Millisecond,
	}
	o, _ := New([]Member{member("anthropic", "slow", a)}, memory.New(0), Config{})

	logs, err := o.Run(context.Background(), newTask(""))
	if err != nil {
		t.Fatal(err)
	}

	l := logs[0]
	if l.ErrorCategory == nil || *l.ErrorCategory != string(provider.KindTimeout) {
		t.Fatalf("error_category = %v, want timeout", l.ErrorCategory)
	}
	if l.ResponseText != nil {
		t.Errorf("response_text = %q, want nil on error", *l.ResponseText)
	}
	if l.TotalLatencyMillis <= 0 {
		t.Errorf("total_latency_ms = %v, want > 0", l.TotalLatencyMillis)
	}
	if l.TTFTMillis != nil && *l.TTFTMillis > l.TotalLatencyMillis {
		t.Errorf("ttft %v exceeds latency %v", *l.TTFTMillis, l.TotalLatencyMillis)
	}
}

// TestRun_EveryAdapterFails checks that N members yield N logs in roster
// order even when each fails differently.
func TestRun_EveryAdapterFails(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency_%d", concurrency), func(t *testing.T) {
			roster := []Member{
				member("openai", "unavailable", &fakeAdapter{stream: &scripted{err: provider.StatusError(503, "overloaded")}}),
				member("anthropic", "panics", &fakeAdapter{panics: true}),
				member("grok", "vendor", &fakeAdapter{stream: &scripted{events: []provider.Event{
					provider.Failure(provider.VendorError("quota")),
				}}}),
				member("gemini", "refused", &fakeAdapter{stream: &scripted{err: errors.New("boom")}}),
			}
			sink := memory.New(0)
			o, _ := New(roster, sink, Config{Concurrency: concurrency})

			logs, err := o.Run(context.Background(), newTask(""))
			if err != nil {
				t.Fatalf("model failures must not surface as errors: %v", err)
			}
			if len(logs) != len(roster) {
				t.Fatalf("got %d logs, want %d", len(logs), len(roster))
			}

			want := []string{"http_5xx", "unknown", "vendor_error", "unknown"}
			for i, l := range logs {
				if l.Model != roster[i].Spec.Model {
					t.Errorf("logs[%d].model = %s, want %s", i, l.Model, roster[i].Spec.Model)
				}
				if l.ErrorCategory == nil || *l.ErrorCategory != want[i] {
					t.Errorf("logs[%d].error_category = %v, want %s", i, l.ErrorCategory, want[i])
				}
				if l.ResponseText != nil {
					t.Errorf("logs[%d] carries text alongside an error", i)
				}
			}
			if sink.Len() != len(roster) {
				t.Errorf("sink holds %d records, want %d", sink.Len(), len(roster))
			}
		})
	}
}

func TestRun_OverridesRecordedVerbatim(t *testing.T) {
	a := &fakeAdapter{stream: &scripted{events: []provider.Event{
		provider.Ignorable(map[string]any{"temperature": 1.0, "model": "served-model"}),
		provider.TextDelta("ok"),
		provider.Terminal(),
	}}}
	o, _ := New([]Member{member("openai", "x", a)}, memory.New(0), Config{})

	task := newTask("")
	task.Request.Overrides = map[string]any{"temperature": 0.2}
	logs, err := o.Run(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}

	l := logs[0]
	if len(l.Config) != 1 || l.Config["temperature"] != 0.2 {
		t.Errorf("config_used = %v, want {temperature: 0.2}", l.Config)
	}
	if l.Temperature == nil || *l.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", l.Temperature)
	}
	if l.ResponseParams["model"] != "served-model" {
		t.Errorf("response_params = %v", l.ResponseParams)
	}
}

func TestRun_ReportedParamsFallback(t *testing.T) {
	a := &fakeAdapter{stream: &scripted{events: []provider.Event{
		provider.Ignorable(map[string]any{"temperature": 1.0}),
		provider.Terminal(),
	}}}
	o, _ := New([]Member{member("openai", "x", a)}, memory.New(0), Config{})

	logs, _ := o.Run(context.Background(), newTask(""))
	if logs[0].Config["temperature"] != 1.0 {
		t.Errorf("config_used = %v, want vendor-reported temperature", logs[0].Config)
	}

	plain := helloAdapter()
	o, _ = New([]Member{member("openai", "x", plain)}, memory.New(0), Config{})
	logs, _ = o.Run(context.Background(), newTask(""))
	if logs[0].Config != nil || logs[0].Temperature != nil {
		t.Errorf("sampling fields should be absent, got %v", logs[0].Config)
	}
}

func TestRun_RosterOverridesMerged(t *testing.T) {
	a := helloAdapter()
	m := member("openai", "o1", a)
	m.Overrides = map[string]any{"max_output_tokens": 1024, "temperature": 1.0}
	o, _ := New([]Member{m}, memory.New(0), Config{})

	task := newTask("")
	task.Request.Overrides = map[string]any{"temperature": 0.2}
	logs, _ := o.Run(context.Background(), task)

	got := logs[0].Config
	if got["temperature"] != 0.2 || got["max_output_tokens"] != 1024 {
		t.Errorf("config_used = %v, want task temperature over roster defaults", got)
	}
	sent, _ := a.lastOverrides.Load().(map[string]any)
	if sent["max_output_tokens"] != 1024 {
		t.Errorf("adapter saw overrides %v", sent)
	}
	if len(task.Request.Overrides) != 1 {
		t.Errorf("task overrides were mutated: %v", task.Request.Overrides)
	}
}

func TestRun_RetryCountPassedThrough(t *testing.T) {
	o, _ := New([]Member{member("openai", "x", helloAdapter())}, memory.New(0), Config{RetryCount: 2})
	logs, _ := o.Run(context.Background(), newTask(""))
	if logs[0].RetryCount != 2 {
		t.Errorf("retry_count = %d, want 2", logs[0].RetryCount)
	}
}

func TestRun_MissingImageAbortsBeforeCalls(t *testing.T) {
	a := helloAdapter()
	o, _ := New([]Member{member("openai", "x", a)}, memory.New(0), Config{})

	_, err := o.Run(context.Background(), newTask(filepath.Join(t.TempDir(), "missing.png")))
	if !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("err = %v, want ErrInvalidTask", err)
	}
	if a.calls.Load() != 0 {
		t.Errorf("adapter called %d times before validation failed", a.calls.Load())
	}

	task := newTask("")
	task.ExperimentID = ""
	if _, err := o.Run(context.Background(), task); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("missing experiment id: err = %v, want ErrInvalidTask", err)
	}
}

func TestRun_SinkFailureKeepsLogs(t *testing.T) {
	sink := memory.New(0)
	sink.Close()
	o, _ := New([]Member{
		member("openai", "a", helloAdapter()),
		member("openai", "b", helloAdapter()),
	}, sink, Config{})

	logs, err := o.Run(context.Background(), newTask(""))
	if !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if len(logs) != 2 || logs[0] == nil || logs[1] == nil {
		t.Errorf("logs must be complete even when persisting fails: %v", logs)
	}
}

// TestRun_ConcurrentJSONL verifies that parallel members never interleave
// partial lines in the shared stream.
func TestRun_ConcurrentJSONL(t *testing.T) {
	dir := t.TempDir()
	sink := jsonl.New(dir)
	defer sink.Close()

	var roster []Member
	for _, m := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8"} {
		roster = append(roster, member("openai", m, helloAdapter()))
	}
	o, _ := New(roster, sink, Config{Concurrency: 4})

	if _, err := o.Run(context.Background(), newTask("")); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(sink.Path("exp-test"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	seen := map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var l api.CallLog
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("corrupt line %q: %v", sc.Text(), err)
		}
		seen[l.Model] = true
	}
	if len(seen) != len(roster) {
		t.Errorf("got records for %d models, want %d", len(seen), len(roster))
	}
}

func TestRoster(t *testing.T) {
	o, _ := New([]Member{
		member("openai", "gpt-4.1", helloAdapter()),
		member("gemini", "gemini-2.5-pro", helloAdapter()),
	}, memory.New(0), Config{})

	specs := o.Roster()
	if len(specs) != 2 || specs[1].String() != "gemini:gemini-2.5-pro" {
		t.Errorf("roster = %v", specs)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := config.Defaults()
	cfg.Experiment.Sink = "memory"
	cfg.Roster = []config.RosterEntry{{Provider: "openai", Model: "gpt-4.1"}}

	o, sink, err := FromConfig(context.Background(), &cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	if got := o.Roster(); len(got) != 1 || got[0].Model != "gpt-4.1" {
		t.Errorf("roster = %v", got)
	}

	t.Setenv("OPENAI_API_KEY", "")
	if _, _, err := FromConfig(context.Background(), &cfg); !errors.Is(err, provider.ErrMissingCredential) {
		t.Errorf("err = %v, want ErrMissingCredential", err)
	}
}
