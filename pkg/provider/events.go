package provider

// EventKind classifies a normalized stream event.
type EventKind int

const (
	EventTextDelta EventKind = iota // Incremental text fragment
	EventUsage                      // Token counts reported by the vendor
	EventTerminal                   // Stream finished normally
	EventError                      // Vendor or transport error inside the stream
	EventIgnorable                  // Lifecycle or unknown event, no effect
)

// String returns a short name for logs and test failures.
func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text_delta"
	case EventUsage:
		return "usage"
	case EventTerminal:
		return "terminal"
	case EventError:
		return "error"
	case EventIgnorable:
		return "ignorable"
	default:
		return "unknown"
	}
}

// Event is one classified stream event. Exactly one of Text, Usage, or
// Err is meaningful, selected by Kind.
type Event struct {
	Kind EventKind

	// Text is the fragment carried by an EventTextDelta.
	Text string

	// Usage is populated on EventUsage.
	Usage Usage

	// Err is populated on EventError.
	Err error

	// Params carries vendor-echoed request parameters (served model,
	// sampling settings). Any kind may carry them; the first value seen
	// for a key is kept.
	Params map[string]any
}

// TextDelta returns an EventTextDelta for s.
func TextDelta(s string) Event {
	return Event{Kind: EventTextDelta, Text: s}
}

// UsageReported returns an EventUsage with the given counts.
func UsageReported(input, output int) Event {
	return Event{Kind: EventUsage, Usage: Usage{InputTokens: input, OutputTokens: output}}
}

// Terminal returns an EventTerminal.
func Terminal() Event {
	return Event{Kind: EventTerminal}
}

// Failure returns an EventError wrapping err.
func Failure(err error) Event {
	return Event{Kind: EventError, Err: err}
}

// Ignorable returns an EventIgnorable, optionally carrying params.
func Ignorable(params map[string]any) Event {
	return Event{Kind: EventIgnorable, Params: params}
}

// Ends reports whether the event stops consumption of the stream.
func (e Event) Ends() bool {
	return e.Kind == EventTerminal || e.Kind == EventError
}
