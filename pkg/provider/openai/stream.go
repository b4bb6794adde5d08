package openai

import (
	"encoding/json"
	"log/slog"

	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/provider"
)

// classify maps one Responses API SSE event onto normalized events.
func classify(raw provider.SSEEvent) []provider.Event {
	if raw.Data == "[DONE]" {
		return []provider.Event{provider.Terminal()}
	}

	var p streamPayload
	if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
		slog.Warn("skipping malformed SSE event",
			"vendor", "openai",
			"event", raw.Name,
			"error", err.Error(),
			"data", debug.Truncate(raw.Data, 200),
		)
		return []provider.Event{provider.Ignorable(nil)}
	}

	name := raw.Name
	if name == "" {
		name = p.Type
	}

	switch name {
	case eventTextDelta:
		return []provider.Event{provider.TextDelta(p.Delta)}

	case eventCreated:
		return []provider.Event{provider.Ignorable(reportedParams(p.Response))}

	case eventCompleted, eventIncomplete:
		var events []provider.Event
		if p.Response != nil && p.Response.Usage != nil {
			events = append(events, provider.UsageReported(p.Response.Usage.InputTokens, p.Response.Usage.OutputTokens))
		}
		return append(events, provider.Terminal())

	case eventFailed:
		msg := "response failed"
		if p.Response != nil && p.Response.Error != nil && p.Response.Error.Message != "" {
			msg = p.Response.Error.Message
		}
		return []provider.Event{provider.Failure(provider.VendorError(msg))}

	case eventError, eventErrorAlt:
		msg := p.Message
		if msg == "" && p.Error != nil {
			msg = p.Error.Message
		}
		return []provider.Event{provider.Failure(provider.VendorError(msg))}

	default:
		debug.Log("providers", "ignoring SSE event", "vendor", "openai", "event", name)
		return []provider.Event{provider.Ignorable(nil)}
	}
}

// reportedParams extracts what the vendor echoes about the served request.
func reportedParams(r *responseObject) map[string]any {
	if r == nil {
		return nil
	}
	params := make(map[string]any)
	if r.Model != "" {
		params["model"] = r.Model
	}
	if r.Temperature != nil {
		params["temperature"] = *r.Temperature
	}
	if r.TopP != nil {
		params["top_p"] = *r.TopP
	}
	if len(params) == 0 {
		return nil
	}
	return params
}
