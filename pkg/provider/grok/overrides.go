package grok

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rhuss/vendorbench/pkg/provider"
)

type overridesKey struct{}

// withOverrides attaches body overrides to the request context. The
// typed go-openai request drops zero values such as temperature 0, so
// overrides are merged into the encoded body instead.
func withOverrides(ctx context.Context, overrides map[string]any) context.Context {
	if len(overrides) == 0 {
		return ctx
	}
	return context.WithValue(ctx, overridesKey{}, overrides)
}

// overrideTransport merges context overrides into outgoing JSON bodies.
type overrideTransport struct {
	next http.RoundTripper
}

func (t overrideTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	overrides, _ := req.Context().Value(overridesKey{}).(map[string]any)
	if len(overrides) == 0 || req.Body == nil {
		return t.next.RoundTrip(req)
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	body, err := provider.EncodeBody(rawJSON(data), overrides)
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.ContentLength = int64(len(body))
	return t.next.RoundTrip(out)
}

// rawJSON marshals to itself.
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) { return r, nil }

// withOverrideTransport returns a copy of c that applies context overrides.
func withOverrideTransport(c *http.Client) *http.Client {
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped := *c
	wrapped.Transport = overrideTransport{next: next}
	return &wrapped
}
