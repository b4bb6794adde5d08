package gemini

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/provider"
)

// classify maps one streamGenerateContent chunk onto normalized events.
//
// usageMetadata is repeated on every chunk with running totals, so usage
// is only reported from the chunk that carries a finishReason. That chunk
// is also where the stream ends, after its own text.
func classify(raw provider.SSEEvent) []provider.Event {
	var c streamChunk
	if err := json.Unmarshal([]byte(raw.Data), &c); err != nil {
		slog.Warn("skipping malformed SSE event",
			"vendor", Name,
			"error", err.Error(),
			"data", debug.Truncate(raw.Data, 200),
		)
		return []provider.Event{provider.Ignorable(nil)}
	}

	if c.Error != nil {
		msg := c.Error.Message
		if msg == "" {
			msg = c.Error.Status
		}
		return []provider.Event{provider.Failure(provider.VendorError(msg))}
	}

	var params map[string]any
	if c.ModelVersion != "" {
		params = map[string]any{"model": c.ModelVersion}
	}

	var events []provider.Event
	finish := ""
	if len(c.Candidates) > 0 {
		cand := c.Candidates[0]
		if cand.Content != nil {
			var sb strings.Builder
			for _, p := range cand.Content.Parts {
				sb.WriteString(p.Text)
			}
			if sb.Len() > 0 {
				events = append(events, provider.TextDelta(sb.String()))
			}
		}
		finish = cand.FinishReason
	}

	if finish != "" {
		if c.UsageMetadata != nil {
			events = append(events, provider.UsageReported(c.UsageMetadata.PromptTokenCount, c.UsageMetadata.CandidatesTokenCount))
		}
		if finish != "STOP" && finish != "MAX_TOKENS" {
			debug.Log("providers", "stream finished early", "vendor", Name, "finish_reason", finish)
		}
		events = append(events, provider.Terminal())
	}

	if len(events) == 0 {
		return []provider.Event{provider.Ignorable(params)}
	}
	if params != nil {
		if finish != "" {
			params["finish_reason"] = finish
		}
		events[0].Params = params
	}
	return events
}
