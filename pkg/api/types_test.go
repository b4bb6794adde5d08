package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/vendorbench/pkg/provider"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func testTask(overrides map[string]any) *Task {
	return &Task{
		ExperimentID:  "exp-1",
		PromptID:      "describe",
		PromptVersion: "v1",
		Request: provider.GenerationRequest{
			UserPrompt: "Describe this image",
			ImagePath:  "data/313/scan.png",
			Overrides:  overrides,
		},
	}
}

func TestNewCallLog_Success(t *testing.T) {
	c := provider.ResponseContract{
		Text:               strPtr("Hello world"),
		InputChars:         intPtr(19),
		OutputChars:        intPtr(11),
		TTFTMillis:         floatPtr(120),
		TotalLatencyMillis: 480,
		HTTPStatus:         intPtr(200),
		ReportedParams:     map[string]any{"model": "gpt-4o-2024-08-06", "temperature": 1.0},
	}
	spec := provider.ModelSpec{Provider: "openai", Model: "gpt-4o"}

	l := NewCallLog(testTask(nil), spec, c, 0, time.Now())

	if err := l.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if !ValidateCallID(l.ID) {
		t.Errorf("ID = %q", l.ID)
	}
	if *l.ResponseText != "Hello world" || *l.OutputChars != 11 || *l.HTTPStatus != 200 {
		t.Errorf("log = %+v", l)
	}
	if l.ErrorCategory != nil || l.ErrorMessage != nil {
		t.Error("successful call must not carry an error")
	}
	if l.ImagePath == nil || *l.ImagePath != "data/313/scan.png" {
		t.Errorf("image path = %v", l.ImagePath)
	}
	if l.Temperature == nil || *l.Temperature != 1.0 || l.TopP != nil {
		t.Errorf("sampling = %v %v", l.Temperature, l.TopP)
	}
}

func TestNewCallLog_Failure(t *testing.T) {
	c := provider.ResponseContract{
		InputChars:         intPtr(5),
		TotalLatencyMillis: 30000,
		ErrorKind:          provider.KindTimeout,
		ErrorMessage:       "vendor call exceeded 30s",
	}
	task := testTask(nil)
	task.Request.ImagePath = ""

	l := NewCallLog(task, provider.ModelSpec{Provider: "anthropic", Model: "claude-opus-4-20250514"}, c, 2, time.Now())

	if !l.Failed() || *l.ErrorCategory != "timeout" || *l.ErrorMessage != "vendor call exceeded 30s" {
		t.Errorf("error fields = %v %v", l.ErrorCategory, l.ErrorMessage)
	}
	if l.ResponseText != nil || l.ImagePath != nil || l.RetryCount != 2 {
		t.Errorf("log = %+v", l)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestNewCallLog_OverridesVerbatim(t *testing.T) {
	c := provider.ResponseContract{
		Text:           strPtr("ok"),
		ReportedParams: map[string]any{"temperature": 1.0, "top_p": 1.0},
	}
	l := NewCallLog(testTask(map[string]any{"temperature": 0.2}), provider.ModelSpec{Provider: "openai", Model: "gpt-4.1"}, c, 0, time.Now())

	if len(l.Config) != 1 || l.Config["temperature"] != 0.2 {
		t.Errorf("config = %v, want {temperature: 0.2}", l.Config)
	}
	if *l.Temperature != 0.2 || l.TopP != nil {
		t.Errorf("sampling = %v %v", *l.Temperature, l.TopP)
	}
}

func TestCallLog_JSONNullsAndUnicode(t *testing.T) {
	l := NewCallLog(testTask(nil), provider.ModelSpec{Provider: "gemini", Model: "gemini-2.5-pro"},
		provider.ResponseContract{Text: strPtr("Schädel")}, 0, time.Now())

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"error_category":null`, `"input_tokens":null`, `"model_provider":"gemini"`, `"config_used":null`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s: %s", want, s)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *CallLog {
		return &CallLog{Provider: "openai", Model: "o1", ExperimentID: "e", TotalLatencyMillis: 10}
	}

	tests := []struct {
		name   string
		mutate func(*CallLog)
		field  string
	}{
		{"valid", func(*CallLog) {}, ""},
		{"missing provider", func(l *CallLog) { l.Provider = "" }, "model_provider"},
		{"missing model", func(l *CallLog) { l.Model = "" }, "model_name"},
		{"missing experiment", func(l *CallLog) { l.ExperimentID = "" }, "experiment_id"},
		{"error with text", func(l *CallLog) { l.ErrorCategory = strPtr("unknown"); l.ResponseText = strPtr("x") }, "response_text"},
		{"ttft above latency", func(l *CallLog) { l.TTFTMillis = floatPtr(11) }, "ttft_ms"},
		{"negative retries", func(l *CallLog) { l.RetryCount = -1 }, "retry_count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid()
			tt.mutate(l)
			err := l.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			re, ok := err.(*RecordError)
			if !ok || re.Field != tt.field {
				t.Errorf("Validate() = %v, want field %s", err, tt.field)
			}
		})
	}
}
