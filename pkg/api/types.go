package api

import (
	"time"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// Task is one GenerationRequest together with the identifiers that place
// it in an experiment. The request is shared read-only across the roster.
type Task struct {
	ExperimentID string

	// SubjectID and ItemID identify the task in tabular output, e.g. the
	// data folder and the repetition index of a batch run.
	SubjectID string
	ItemID    string

	PromptID      string
	PromptVersion string
	SystemID      string
	SystemVersion string

	Request provider.GenerationRequest
}

// CallLog is the immutable record of one task on one model.
type CallLog struct {
	ID           string `json:"id"`
	ExperimentID string `json:"experiment_id"`
	SubjectID    string `json:"subject_id,omitempty"`
	ItemID       string `json:"item_id,omitempty"`

	PromptID      string  `json:"prompt_id"`
	PromptVersion string  `json:"prompt_version,omitempty"`
	SystemID      string  `json:"system_id,omitempty"`
	SystemVersion string  `json:"system_version,omitempty"`
	ImagePath     *string `json:"input_image_path"`
	UserPrompt    string  `json:"user_prompt"`

	Provider string `json:"model_provider"`
	Model    string `json:"model_name"`

	// Config is the effective sampling configuration, see ResolveConfig.
	Config      map[string]any `json:"config_used"`
	Temperature *float64       `json:"temperature"`
	TopP        *float64       `json:"top_p"`

	InputChars   *int `json:"input_chars"`
	InputTokens  *int `json:"input_tokens"`
	OutputChars  *int `json:"output_chars"`
	OutputTokens *int `json:"output_tokens"`

	TTFTMillis         *float64 `json:"ttft_ms"`
	TotalLatencyMillis float64  `json:"total_latency_ms"`

	ResponseText   *string        `json:"response_text"`
	RetryCount     int            `json:"retry_count"`
	HTTPStatus     *int           `json:"http_status"`
	ErrorCategory  *string        `json:"error_category"`
	ErrorMessage   *string        `json:"error_message"`
	ResponseParams map[string]any `json:"response_params,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Failed reports whether the call ended in an error.
func (l *CallLog) Failed() bool {
	return l.ErrorCategory != nil
}

// NewCallLog assembles the record for one task on one model. The
// effective configuration is resolved from the task's overrides and the
// parameters the vendor reported.
func NewCallLog(task *Task, spec provider.ModelSpec, c provider.ResponseContract, retryCount int, at time.Time) *CallLog {
	cfg := ResolveConfig(task.Request.Overrides, c.ReportedParams)
	temperature, topP := SamplingParams(cfg)

	l := &CallLog{
		ID:                 NewCallID(),
		ExperimentID:       task.ExperimentID,
		SubjectID:          task.SubjectID,
		ItemID:             task.ItemID,
		PromptID:           task.PromptID,
		PromptVersion:      task.PromptVersion,
		SystemID:           task.SystemID,
		SystemVersion:      task.SystemVersion,
		UserPrompt:         task.Request.UserPrompt,
		Provider:           spec.Provider,
		Model:              spec.Model,
		Config:             cfg,
		Temperature:        temperature,
		TopP:               topP,
		InputChars:         c.InputChars,
		InputTokens:        c.InputTokens,
		OutputChars:        c.OutputChars,
		OutputTokens:       c.OutputTokens,
		TTFTMillis:         c.TTFTMillis,
		TotalLatencyMillis: c.TotalLatencyMillis,
		ResponseText:       c.Text,
		RetryCount:         retryCount,
		HTTPStatus:         c.HTTPStatus,
		ResponseParams:     c.ReportedParams,
		CreatedAt:          at.UTC(),
	}
	if task.Request.HasImage() {
		path := task.Request.ImagePath
		l.ImagePath = &path
	}
	if c.Failed() {
		kind := string(c.ErrorKind)
		msg := c.ErrorMessage
		l.ErrorCategory = &kind
		l.ErrorMessage = &msg
	}
	return l
}
