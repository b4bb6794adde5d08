package provider

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// maxSSELine bounds a single SSE line. Vendors that echo large payloads
// (e.g. a full response object on completion) exceed bufio's 64 KiB default.
const maxSSELine = 4 << 20

// SSEEvent is one dispatched server-sent event.
type SSEEvent struct {
	// Name is the value of the "event:" field, empty when the stream only
	// uses "data:" lines.
	Name string

	// Data is the joined value of the event's "data:" lines.
	Data string
}

// ReadSSE scans an event stream and calls fn for each dispatched event.
// It returns when fn returns false, the reader is exhausted, or ctx is
// done. Comment lines and unknown fields are ignored.
//
// Supported framing:
//
//	event: response.output_text.delta\n
//	data: {"delta":"Hi"}\n
//	\n
func ReadSSE(ctx context.Context, r io.Reader, fn func(SSEEvent) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	var name string
	var data []string

	dispatch := func() bool {
		if len(data) == 0 {
			name = ""
			return true
		}
		ev := SSEEvent{Name: name, Data: strings.Join(data, "\n")}
		name, data = "", data[:0]
		return fn(ev)
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		switch {
		case line == "":
			if !dispatch() {
				return nil
			}
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			v := strings.TrimPrefix(line, "data:")
			data = append(data, strings.TrimPrefix(v, " "))
		}
	}

	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	// A final event without a trailing blank line is still dispatched.
	dispatch()
	return nil
}
