// Package mockvendor is a deterministic stand-in for the four vendor
// streaming APIs, for local end-to-end runs and adapter tests.
//
// Every endpoint streams the same reply in its own wire format. The reply
// depends on the request:
//
//   - a user prompt containing "count from 1 to 5" yields "1, 2, 3, 4, 5"
//   - a request carrying an image yields a fixed description
//   - anything else yields "Hello world"
//
// The model name selects failure scenarios: a name containing
// "error-429" or "error-500" is answered with that HTTP status,
// "stream-error" emits one fragment and then an in-stream vendor error,
// and "slow" waits Options.SlowDelay before every fragment.
package mockvendor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Options tunes the mock.
type Options struct {
	// TokenDelay is slept before every text fragment.
	TokenDelay time.Duration

	// SlowDelay is slept before every fragment for "slow" models.
	SlowDelay time.Duration
}

// Handler serves, relative to the server root:
//
//	POST /v1/responses                      openai Responses API
//	POST /v1/messages                       anthropic Messages API
//	POST /v1/chat/completions               OpenAI-compatible chat (grok)
//	POST /v1beta/models/{model}:streamGenerateContent   gemini
//	GET  /healthz
func Handler(opts Options) http.Handler {
	s := &server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/responses", s.handleResponses)
	mux.HandleFunc("POST /v1/messages", s.handleMessages)
	mux.HandleFunc("POST /v1/chat/completions", s.handleChat)
	mux.HandleFunc("POST /v1beta/models/{action}", s.handleGemini)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

type server struct {
	opts Options
}

// prompt is what the mock needs to know about any vendor request.
type prompt struct {
	model  string
	system string
	user   string
	image  bool
}

// reply returns the fragments to stream and the usage to report.
func (p *prompt) reply() (tokens []string, inputTokens int) {
	switch {
	case strings.Contains(strings.ToLower(p.user), "count from 1 to 5"):
		tokens = []string{"1", ", ", "2", ", ", "3", ", ", "4", ", ", "5"}
	case p.image:
		tokens = []string{"I can see the image you shared.", " It appears to be a small red square."}
	default:
		tokens = []string{"Hello", " world"}
	}

	inputTokens = len(strings.Fields(p.system)) + len(strings.Fields(p.user))
	if p.image {
		inputTokens += 85
	}
	return tokens, inputTokens
}

// scenario reports a forced HTTP failure status for the model, or 0.
func (p *prompt) scenario() int {
	switch {
	case strings.Contains(p.model, "error-429"):
		return http.StatusTooManyRequests
	case strings.Contains(p.model, "error-500"):
		return http.StatusInternalServerError
	}
	return 0
}

func (p *prompt) streamError() bool { return strings.Contains(p.model, "stream-error") }

// delay sleeps before a fragment. It reports false if the client left.
func (s *server) delay(r *http.Request, p *prompt) bool {
	d := s.opts.TokenDelay
	if strings.Contains(p.model, "slow") {
		d += s.opts.SlowDelay
	}
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-r.Context().Done():
		return false
	}
}

// writeError sends the {"error":{...}} body shared by all four vendors.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"type": kind, "message": message, "code": status},
	})
}

// failIfScripted answers with the model's forced status, if any.
func failIfScripted(w http.ResponseWriter, p *prompt) bool {
	switch p.scenario() {
	case http.StatusTooManyRequests:
		writeError(w, http.StatusTooManyRequests, "rate_limit_error", "rate limit exceeded (mock)")
		return true
	case http.StatusInternalServerError:
		writeError(w, http.StatusInternalServerError, "api_error", "internal error (mock)")
		return true
	}
	return false
}

// sse writes server-sent events, flushing after each one.
type sse struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSE(w http.ResponseWriter) (*sse, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sse{w: w, flusher: flusher}, true
}

// event writes a named event; an empty name writes a data-only event.
func (s *sse) event(name string, v any) {
	data, _ := json.Marshal(v)
	if name != "" {
		fmt.Fprintf(s.w, "event: %s\n", name)
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *sse) done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
