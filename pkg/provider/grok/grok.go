// Package grok implements the benchmark adapter for xAI's Grok models
// through their OpenAI-compatible chat completions endpoint, using the
// go-openai client. Usage arrives on the final chunk when
// stream_options.include_usage is set.
package grok

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// Name is the vendor identifier used in rosters and logs.
const Name = "grok"

// Provider is the xAI chat completions adapter.
type Provider struct {
	cfg    Config
	client *openai.Client
}

var _ provider.Provider = (*Provider)(nil)
var _ provider.Streamer = (*Provider)(nil)

// New creates an adapter. It fails when the API key or model is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("grok: api key: %w", provider.ErrMissingCredential)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("grok: model is required")
	}
	cfg.defaults()

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = withOverrideTransport(cfg.HTTPClient)

	return &Provider{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}, nil
}

func (p *Provider) Name() string  { return Name }
func (p *Provider) Model() string { return p.cfg.Model }

// Generate performs one streaming call.
func (p *Provider) Generate(ctx context.Context, req *provider.GenerationRequest) provider.ResponseContract {
	return provider.Generate(ctx, p, req, p.cfg.Timeout)
}

// Stream opens a chat completion stream and classifies its chunks.
func (p *Provider) Stream(ctx context.Context, req *provider.GenerationRequest) (<-chan provider.Event, error) {
	chatReq, err := buildRequest(p.cfg.Model, req)
	if err != nil {
		return nil, err
	}

	stream, err := p.client.CreateChatCompletionStream(withOverrides(ctx, wireOverrides(req.Overrides)), chatReq)
	if err != nil {
		return nil, mapError(err)
	}

	ch := make(chan provider.Event, 16)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				provider.Send(ctx, ch, provider.Terminal())
				return
			}
			if err != nil {
				provider.Send(ctx, ch, provider.Failure(mapError(err)))
				return
			}
			for _, ev := range classify(chunk) {
				if !provider.Send(ctx, ch, ev) {
					return
				}
			}
		}
	}()
	return ch, nil
}

// classify maps one chat completion chunk onto normalized events. A chunk
// can carry a text delta and usage at once.
func classify(chunk openai.ChatCompletionStreamResponse) []provider.Event {
	var params map[string]any
	if chunk.Model != "" {
		params = map[string]any{"model": chunk.Model}
	}

	var events []provider.Event
	if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
		events = append(events, provider.TextDelta(chunk.Choices[0].Delta.Content))
	}
	if chunk.Usage != nil {
		events = append(events, provider.UsageReported(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens))
	}
	if len(events) == 0 {
		return []provider.Event{provider.Ignorable(params)}
	}
	events[0].Params = params
	return events
}

// mapError converts go-openai errors into CallErrors. APIErrors without
// an HTTP status were delivered inside the stream.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 0 {
			return provider.VendorError(apiErr.Message)
		}
		return provider.StatusError(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		ce := provider.StatusError(reqErr.HTTPStatusCode, reqErr.Error())
		ce.Err = err
		return ce
	}

	return provider.Classify(err)
}
