// Package anthropic implements the benchmark adapter for the Anthropic
// Messages API (POST /v1/messages with stream=true).
//
// The Messages API has no structured-output mode, so a schema on the
// request is ignored.
package anthropic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/provider"
)

// Name is the vendor identifier used in rosters and logs.
const Name = "anthropic"

// Provider is the Anthropic Messages API adapter.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ provider.Provider = (*Provider)(nil)
var _ provider.Streamer = (*Provider)(nil)

// New creates an adapter. It fails when the API key or model is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api key: %w", provider.ErrMissingCredential)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic: model is required")
	}
	cfg.defaults()
	return &Provider{cfg: cfg, client: cfg.HTTPClient}, nil
}

func (p *Provider) Name() string  { return Name }
func (p *Provider) Model() string { return p.cfg.Model }

// Generate performs one streaming call.
func (p *Provider) Generate(ctx context.Context, req *provider.GenerationRequest) provider.ResponseContract {
	return provider.Generate(ctx, p, req, p.cfg.Timeout)
}

// Stream sends the request and returns the classified event stream.
func (p *Provider) Stream(ctx context.Context, req *provider.GenerationRequest) (<-chan provider.Event, error) {
	body, err := p.buildBody(req)
	if err != nil {
		return nil, err
	}
	c := &classifier{}
	return provider.PostStream(ctx, p.client, provider.StreamRequest{
		URL: p.cfg.BaseURL + "/v1/messages",
		Headers: map[string]string{
			"x-api-key":         p.cfg.APIKey,
			"anthropic-version": APIVersion,
		},
		Body:     body,
		Classify: c.classify,
	})
}

func (p *Provider) buildBody(req *provider.GenerationRequest) ([]byte, error) {
	wire := messagesRequest{
		Model:     p.cfg.Model,
		MaxTokens: p.cfg.MaxTokens,
		System:    req.SystemPrompt,
		Stream:    true,
	}

	user := message{Role: "user"}
	if req.HasImage() {
		img, err := provider.EncodeImage(req.ImagePath)
		if err != nil {
			return nil, err
		}
		user.Content = append(user.Content, contentBlock{
			Type:   "image",
			Source: &imageSource{Type: "base64", MediaType: img.MIMEType, Data: img.Base64},
		})
	}
	user.Content = append(user.Content, contentBlock{Type: "text", Text: req.UserPrompt})
	wire.Messages = []message{user}

	if len(req.Schema) > 0 {
		debug.Log("providers", "structured output not supported, schema ignored", "vendor", Name, "model", p.cfg.Model)
	}

	return provider.EncodeBody(wire, req.Overrides)
}
