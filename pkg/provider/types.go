package provider

import (
	"encoding/json"
)

// ModelSpec selects one adapter configuration from the roster.
type ModelSpec struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
}

// String returns "provider:model".
func (m ModelSpec) String() string {
	return m.Provider + ":" + m.Model
}

// GenerationRequest is the normalized input shared by every adapter for
// one task. Adapters must treat it as read-only.
type GenerationRequest struct {
	// SystemPrompt is optional; empty means no system turn.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// UserPrompt is the text of the single user turn.
	UserPrompt string `json:"user_prompt"`

	// ImagePath optionally points at an image inlined into the user turn.
	ImagePath string `json:"image_path,omitempty"`

	// Schema is an optional JSON Schema used for structured output where
	// the vendor supports it.
	Schema json.RawMessage `json:"schema,omitempty"`

	// Overrides are merged into the vendor request last, so they win over
	// adapter defaults.
	Overrides map[string]any `json:"overrides,omitempty"`
}

// HasImage reports whether the request carries an image reference.
func (r *GenerationRequest) HasImage() bool {
	return r.ImagePath != ""
}

// Usage holds vendor-reported token counts.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ResponseContract is the uniform result of one adapter call. Failures are
// reported in ErrorKind/ErrorMessage rather than as Go errors.
//
// Invariants: a non-empty ErrorKind implies Text == nil, and TTFTMillis,
// when present, never exceeds TotalLatencyMillis.
type ResponseContract struct {
	Text *string `json:"text"`

	InputTokens  *int `json:"input_tokens"`
	OutputTokens *int `json:"output_tokens"`
	InputChars   *int `json:"input_chars"`
	OutputChars  *int `json:"output_chars"`

	TTFTMillis         *float64 `json:"ttft_ms"`
	TotalLatencyMillis float64  `json:"total_latency_ms"`

	HTTPStatus   *int      `json:"http_status"`
	ErrorKind    ErrorKind `json:"error_category,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// ReportedParams echoes what the vendor says it served, e.g. the
	// resolved model identifier or sampling parameters.
	ReportedParams map[string]any `json:"response_params,omitempty"`
}

// Failed reports whether the call ended in an error.
func (c *ResponseContract) Failed() bool {
	return c.ErrorKind != ""
}
