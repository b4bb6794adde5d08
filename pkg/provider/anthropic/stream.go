package anthropic

import (
	"encoding/json"
	"log/slog"

	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/provider"
)

// classifier turns Messages API events into normalized events. Input
// tokens arrive on message_start while the final output count only
// arrives on message_delta, so the input count is held until then and
// both are reported together.
type classifier struct {
	inputTokens  int
	sawInput     bool
	usageEmitted bool
}

func (c *classifier) classify(raw provider.SSEEvent) []provider.Event {
	var p streamPayload
	if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
		slog.Warn("skipping malformed SSE event",
			"vendor", "anthropic",
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
	case eventMessageStart:
		var params map[string]any
		if p.Message != nil {
			if p.Message.Model != "" {
				params = map[string]any{"model": p.Message.Model}
			}
			if p.Message.Usage.InputTokens != nil {
				c.inputTokens = *p.Message.Usage.InputTokens
				c.sawInput = true
			}
		}
		return []provider.Event{provider.Ignorable(params)}

	case eventBlockDelta:
		if p.Delta != nil && p.Delta.Type == "text_delta" {
			return []provider.Event{provider.TextDelta(p.Delta.Text)}
		}
		return []provider.Event{provider.Ignorable(nil)}

	case eventMessageDelta:
		if p.Usage == nil || p.Usage.OutputTokens == nil || c.usageEmitted {
			return []provider.Event{provider.Ignorable(nil)}
		}
		in := c.inputTokens
		if !c.sawInput && p.Usage.InputTokens != nil {
			in = *p.Usage.InputTokens
		}
		c.usageEmitted = true
		return []provider.Event{provider.UsageReported(in, *p.Usage.OutputTokens)}

	case eventMessageStop:
		return []provider.Event{provider.Terminal()}

	case eventError:
		msg := ""
		if p.Error != nil {
			msg = p.Error.Message
			if msg == "" {
				msg = p.Error.Type
			}
		}
		return []provider.Event{provider.Failure(provider.VendorError(msg))}

	case eventPing:
		return []provider.Event{provider.Ignorable(nil)}

	default:
		debug.Log("providers", "ignoring SSE event", "vendor", "anthropic", "event", name)
		return []provider.Event{provider.Ignorable(nil)}
	}
}
