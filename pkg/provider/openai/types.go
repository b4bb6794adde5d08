package openai

import "encoding/json"

// responsesRequest is the wire format for POST /responses.
type responsesRequest struct {
	Model  string         `json:"model"`
	Input  []inputMessage `json:"input"`
	Stream bool           `json:"stream"`
	Text   *textConfig    `json:"text,omitempty"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

// inputContent is an input_text or input_image part.
type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type textConfig struct {
	Format textFormat `json:"format"`
}

type textFormat struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict,omitempty"`
}

// Stream event types of the Responses API.
const (
	eventCreated    = "response.created"
	eventTextDelta  = "response.output_text.delta"
	eventCompleted  = "response.completed"
	eventIncomplete = "response.incomplete"
	eventFailed     = "response.failed"
	eventError      = "error"
	eventErrorAlt   = "response.error"
)

// streamPayload covers the fields this adapter reads from any event.
type streamPayload struct {
	Type    string `json:"type"`
	Delta   string `json:"delta"`
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
	Response *responseObject `json:"response"`
}

type responseObject struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"top_p"`
	Usage       *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
