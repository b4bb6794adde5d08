package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/rhuss/vendorbench/pkg/debug"
)

// StreamRequest describes one streaming POST to a vendor SSE endpoint.
type StreamRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte

	// Classify maps each raw SSE event onto normalized events.
	Classify func(SSEEvent) []Event
}

// PostStream sends r with client and, on a 2xx response, starts a
// goroutine that pumps the classified SSE stream into the returned
// channel. Non-2xx responses are mapped with MapHTTPError. The channel is
// closed when the stream ends or ctx is done.
func PostStream(ctx context.Context, client *http.Client, r StreamRequest) (<-chan Event, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	for k, v := range r.Headers {
		httpReq.Header.Set(k, v)
	}

	debug.Log("providers", "vendor request", "url", r.URL, "bytes", len(r.Body))
	debug.Trace("providers", "vendor request body", "body", debug.Truncate(string(r.Body), 2000))

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, MapHTTPError(resp)
	}

	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		Pump(ctx, resp.Body, ch, r.Classify)
	}()
	return ch, nil
}

// NewHTTPClient returns a client for streaming calls. The per-call
// deadline is carried by the context, so the client itself sets no
// overall timeout that could cut a long stream short.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: http.DefaultTransport}
}
