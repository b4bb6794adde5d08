package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rhuss/vendorbench/pkg/debug"
)

// DefaultTimeout bounds one vendor call when the adapter config leaves
// Timeout unset. Long structured generations can take minutes.
const DefaultTimeout = 5 * time.Minute

// Provider is one configured (vendor, model) adapter.
//
// Generate never returns a Go error: every failure is captured in the
// returned ResponseContract. Implementations must be safe for concurrent
// use by multiple goroutines.
type Provider interface {
	// Name returns the vendor identifier (e.g. "openai", "gemini").
	Name() string

	// Model returns the model identifier requests are sent for.
	Model() string

	// Generate performs one streaming round trip.
	Generate(ctx context.Context, req *GenerationRequest) ResponseContract
}

// Streamer is the vendor-specific half of an adapter. Stream builds and
// sends the vendor request, then returns a channel of classified events.
// The channel is closed by the streamer when the vendor stream ends.
// Errors returned directly (before any event) are call failures, e.g. a
// non-2xx response mapped with MapHTTPError.
type Streamer interface {
	Stream(ctx context.Context, req *GenerationRequest) (<-chan Event, error)
}

// Generate drives one call through s and reduces it into a
// ResponseContract. It applies timeout to the whole round trip, measures
// time-to-first-token and total latency, and converts every failure into
// contract error fields.
func Generate(ctx context.Context, s Streamer, req *GenerationRequest, timeout time.Duration) ResponseContract {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()

	// Cancelling on return also releases a streamer goroutine blocked on
	// a send after consumption stopped early.
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var acc Accumulator
	ch, err := s.Stream(ctx, req)
	if err == nil {
		for ev := range ch {
			debug.Trace("providers", "stream event", "kind", ev.Kind.String(), "text", debug.Truncate(ev.Text, 80))
			if !acc.Add(ev, time.Now()) {
				break
			}
		}
	}

	sum := acc.Summary()
	if err == nil && sum.Err == nil && !sum.Terminated && ctx.Err() != nil {
		// The stream channel closed because the context expired.
		err = ctx.Err()
	}
	if err == nil {
		err = sum.Err
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !isVendorSide(err) {
		err = &CallError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("vendor call exceeded %s", timeout),
			Err:     err,
		}
	}

	return sum.Contract(req, start, time.Now(), err)
}

// isVendorSide reports whether err already carries a more specific cause
// than the expired deadline (an HTTP status or an in-stream vendor error).
func isVendorSide(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind != KindTransport && ce.Kind != KindUnknown
}

// Send delivers ev on ch unless ctx is done first. It reports whether the
// event was delivered.
func Send(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Pump reads an SSE body, classifies each event with classify, and sends
// the results on ch until a terminal or error event, end of stream, or
// context cancellation. Read errors are sent as an EventError.
func Pump(ctx context.Context, body io.Reader, ch chan<- Event, classify func(SSEEvent) []Event) {
	err := ReadSSE(ctx, body, func(raw SSEEvent) bool {
		for _, ev := range classify(raw) {
			if !Send(ctx, ch, ev) {
				return false
			}
			if ev.Ends() {
				return false
			}
		}
		return true
	})
	if err != nil {
		Send(ctx, ch, Failure(err))
	}
}
