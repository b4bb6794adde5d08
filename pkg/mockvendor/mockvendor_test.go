package mockvendor_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/config"
	"github.com/rhuss/vendorbench/pkg/experiment"
	"github.com/rhuss/vendorbench/pkg/mockvendor"
	"github.com/rhuss/vendorbench/pkg/provider"
	"github.com/rhuss/vendorbench/pkg/storage/memory"
)

// setup points every vendor at one mock server.
func setup(t *testing.T, opts mockvendor.Options) *experiment.Factory {
	t.Helper()
	srv := httptest.NewServer(mockvendor.Handler(opts))
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "sk-mock")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-mock")
	t.Setenv("GROK_API_KEY", "xai-mock")
	t.Setenv("GOOGLE_API_KEY", "g-mock")

	return &experiment.Factory{
		Timeout: 5 * time.Second,
		Vendors: map[string]config.VendorConfig{
			"openai":    {BaseURL: srv.URL + "/v1"},
			"anthropic": {BaseURL: srv.URL},
			"grok":      {BaseURL: srv.URL + "/v1"},
			"gemini":    {BaseURL: srv.URL + "/v1beta"},
		},
	}
}

func run(t *testing.T, f *experiment.Factory, entries []config.RosterEntry, req provider.GenerationRequest) []*api.CallLog {
	t.Helper()
	roster, err := f.Roster(entries)
	if err != nil {
		t.Fatal(err)
	}
	o, err := experiment.New(roster, memory.New(0), experiment.Config{Concurrency: len(roster)})
	if err != nil {
		t.Fatal(err)
	}
	logs, err := o.Run(context.Background(), &api.Task{ExperimentID: "exp-mock", PromptID: "p", Request: req})
	if err != nil {
		t.Fatal(err)
	}
	return logs
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestAllVendors_Success(t *testing.T) {
	f := setup(t, mockvendor.Options{})
	entries := []config.RosterEntry{
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
		{Provider: "grok", Model: "grok-4"},
		{Provider: "gemini", Model: "gemini-2.5-pro"},
	}
	req := provider.GenerationRequest{
		SystemPrompt: "Be brief.",
		UserPrompt:   "Please count from 1 to 5",
	}
	logs := run(t, f, entries, req)

	// The mock reports one input token per word of system and user prompt.
	wantInput := len(strings.Fields(req.SystemPrompt)) + len(strings.Fields(req.UserPrompt))

	for _, l := range logs {
		t.Run(l.Provider, func(t *testing.T) {
			if l.Failed() {
				t.Fatalf("call failed: %s %s", *l.ErrorCategory, *l.ErrorMessage)
			}
			if *l.ResponseText != "1, 2, 3, 4, 5" {
				t.Errorf("text = %q", *l.ResponseText)
			}
			if l.InputTokens == nil || *l.InputTokens != wantInput {
				t.Errorf("input tokens = %v, want %d", deref(l.InputTokens), wantInput)
			}
			if l.OutputTokens == nil || *l.OutputTokens != 9 {
				t.Errorf("output tokens = %v, want 9", deref(l.OutputTokens))
			}
			if *l.HTTPStatus != 200 {
				t.Errorf("status = %d", *l.HTTPStatus)
			}
			if l.TTFTMillis == nil || *l.TTFTMillis > l.TotalLatencyMillis {
				t.Errorf("ttft = %v, latency = %v", l.TTFTMillis, l.TotalLatencyMillis)
			}
		})
	}
}

func TestAllVendors_Image(t *testing.T) {
	f := setup(t, mockvendor.Options{})
	img := filepath.Join(t.TempDir(), "red.png")
	if err := os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var entries []config.RosterEntry
	for _, p := range config.Providers {
		entries = append(entries, config.RosterEntry{Provider: p, Model: "vision"})
	}
	logs := run(t, f, entries, provider.GenerationRequest{UserPrompt: "Describe this image", ImagePath: img})

	want := "I can see the image you shared. It appears to be a small red square."
	for _, l := range logs {
		if l.ResponseText == nil || *l.ResponseText != want {
			t.Errorf("%s: text = %v, want image description", l.Provider, l.ResponseText)
		}
	}
}

func TestAllVendors_Failures(t *testing.T) {
	f := setup(t, mockvendor.Options{})

	tests := []struct {
		model      string
		wantKind   string
		wantStatus int
	}{
		{"error-429", "http_4xx", 429},
		{"error-500", "http_5xx", 500},
		{"stream-error", "vendor_error", 0},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			var entries []config.RosterEntry
			for _, p := range config.Providers {
				entries = append(entries, config.RosterEntry{Provider: p, Model: tt.model})
			}
			logs := run(t, f, entries, provider.GenerationRequest{UserPrompt: "hi"})

			if len(logs) != len(entries) {
				t.Fatalf("got %d logs, want %d", len(logs), len(entries))
			}
			for _, l := range logs {
				if l.ErrorCategory == nil || *l.ErrorCategory != tt.wantKind {
					t.Errorf("%s: error_category = %v, want %s", l.Provider, l.ErrorCategory, tt.wantKind)
				}
				if l.ResponseText != nil {
					t.Errorf("%s: text %q kept on failure", l.Provider, *l.ResponseText)
				}
				if tt.wantStatus != 0 && (l.HTTPStatus == nil || *l.HTTPStatus != tt.wantStatus) {
					t.Errorf("%s: http_status = %v, want %d", l.Provider, l.HTTPStatus, tt.wantStatus)
				}
			}
		})
	}
}

func TestSlowModelTimesOut(t *testing.T) {
	f := setup(t, mockvendor.Options{SlowDelay: time.Second})
	f.Timeout = 100 * time.Millisecond

	logs := run(t, f, []config.RosterEntry{
		{Provider: "anthropic", Model: "slow-model"},
		{Provider: "openai", Model: "gpt-4.1"},
	}, provider.GenerationRequest{UserPrompt: "hi"})

	if logs[0].ErrorCategory == nil || *logs[0].ErrorCategory != "timeout" {
		t.Errorf("slow model: error_category = %v, want timeout", logs[0].ErrorCategory)
	}
	if logs[1].Failed() {
		t.Errorf("fast model must be unaffected: %s", *logs[1].ErrorCategory)
	}
}
