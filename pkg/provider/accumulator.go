package provider

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TimedEvent pairs a classified event with its arrival time.
type TimedEvent struct {
	Event Event
	At    time.Time
}

// Summary is the result of folding a classified event sequence.
type Summary struct {
	// FirstToken is the arrival time of the first non-empty text fragment.
	// Zero when no text arrived.
	FirstToken time.Time

	// Text is the concatenation of all fragments in arrival order, not trimmed.
	Text string

	// Usage is the first usage report seen, nil when none arrived.
	Usage *Usage

	// Params merges vendor-echoed parameters, first value per key wins.
	Params map[string]any

	// Err is the error from the first EventError, if any.
	Err error

	// Terminated is set once an EventTerminal or EventError was folded.
	Terminated bool
}

// Accumulator folds classified events incrementally. It performs no I/O
// and is not safe for concurrent use; each call owns one.
type Accumulator struct {
	sum  Summary
	text strings.Builder
}

// Add folds ev, observed at the given time, and reports whether the
// caller should keep consuming. Events after a terminal or error event
// are ignored.
func (a *Accumulator) Add(ev Event, at time.Time) bool {
	if a.sum.Terminated {
		return false
	}

	for k, v := range ev.Params {
		if a.sum.Params == nil {
			a.sum.Params = make(map[string]any)
		}
		if _, seen := a.sum.Params[k]; !seen {
			a.sum.Params[k] = v
		}
	}

	switch ev.Kind {
	case EventTextDelta:
		if ev.Text == "" {
			return true
		}
		if a.sum.FirstToken.IsZero() {
			a.sum.FirstToken = at
		}
		a.text.WriteString(ev.Text)
	case EventUsage:
		if a.sum.Usage == nil {
			u := ev.Usage
			a.sum.Usage = &u
		}
	case EventTerminal:
		a.sum.Terminated = true
	case EventError:
		a.sum.Err = ev.Err
		a.sum.Terminated = true
	}
	return !a.sum.Terminated
}

// Summary returns the folded state so far.
func (a *Accumulator) Summary() Summary {
	s := a.sum
	s.Text = a.text.String()
	return s
}

// Fold reduces a complete event sequence. It is deterministic: the same
// sequence always yields the same Summary.
func Fold(events []TimedEvent) Summary {
	var acc Accumulator
	for _, te := range events {
		if !acc.Add(te.Event, te.At) {
			break
		}
	}
	return acc.Summary()
}

// Contract builds the ResponseContract for one call from the folded
// stream. start is taken just before the request was built and end after
// consumption stopped. A non-nil callErr, or an error folded from the
// stream, makes the call a failure and drops the accumulated text.
func (s Summary) Contract(req *GenerationRequest, start, end time.Time, callErr error) ResponseContract {
	c := ResponseContract{
		TotalLatencyMillis: millis(end.Sub(start)),
		ReportedParams:     s.Params,
	}

	inChars := utf8.RuneCountInString(req.UserPrompt)
	c.InputChars = &inChars

	if !s.FirstToken.IsZero() {
		ttft := millis(s.FirstToken.Sub(start))
		if ttft < 0 {
			ttft = 0
		}
		if ttft > c.TotalLatencyMillis {
			ttft = c.TotalLatencyMillis
		}
		c.TTFTMillis = &ttft
	}

	if s.Usage != nil {
		in, out := s.Usage.InputTokens, s.Usage.OutputTokens
		c.InputTokens = &in
		c.OutputTokens = &out
	}

	if callErr == nil {
		callErr = s.Err
	}
	if callErr != nil {
		ce := Classify(callErr)
		c.ErrorKind = ce.Kind
		c.ErrorMessage = ce.Message
		if ce.Status != 0 {
			status := ce.Status
			c.HTTPStatus = &status
		}
		return c
	}

	text := strings.TrimSpace(s.Text)
	outChars := utf8.RuneCountInString(text)
	status := 200
	c.Text = &text
	c.OutputChars = &outChars
	c.HTTPStatus = &status
	return c
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
