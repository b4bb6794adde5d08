package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func collectSSE(t *testing.T, stream string) []SSEEvent {
	t.Helper()
	var events []SSEEvent
	err := ReadSSE(context.Background(), strings.NewReader(stream), func(ev SSEEvent) bool {
		events = append(events, ev)
		return true
	})
	if err != nil {
		t.Fatalf("ReadSSE: %v", err)
	}
	return events
}

func TestReadSSE_NamedEvents(t *testing.T) {
	stream := `: keep-alive

event: message_start
data: {"type":"message_start"}

event: content_block_delta
data: {"delta":{"text":"Hi"}}

`
	events := collectSSE(t, stream)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Name != "message_start" || events[1].Name != "content_block_delta" {
		t.Errorf("names = %q, %q", events[0].Name, events[1].Name)
	}
	if events[1].Data != `{"delta":{"text":"Hi"}}` {
		t.Errorf("data = %q", events[1].Data)
	}
}

func TestReadSSE_DataOnlyAndMultiline(t *testing.T) {
	stream := "data: {\"a\":1}\n\ndata:first\ndata: second\n\ndata: [DONE]"
	events := collectSSE(t, stream)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Name != "" {
		t.Errorf("unexpected name %q", events[0].Name)
	}
	if events[1].Data != "first\nsecond" {
		t.Errorf("multi-line data = %q", events[1].Data)
	}
	if events[2].Data != "[DONE]" {
		t.Errorf("trailing event without blank line = %q", events[2].Data)
	}
}

func TestReadSSE_StopsWhenCallbackReturnsFalse(t *testing.T) {
	stream := "data: 1\n\ndata: 2\n\ndata: 3\n\n"
	n := 0
	err := ReadSSE(context.Background(), strings.NewReader(stream), func(SSEEvent) bool {
		n++
		return n < 2
	})
	if err != nil {
		t.Fatalf("ReadSSE: %v", err)
	}
	if n != 2 {
		t.Errorf("callback ran %d times, want 2", n)
	}
}

func TestReadSSE_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReadSSE(ctx, strings.NewReader("data: 1\n\n"), func(SSEEvent) bool { return true })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
