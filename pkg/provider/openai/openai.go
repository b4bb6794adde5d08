// Package openai implements the benchmark adapter for the OpenAI
// Responses API (POST /responses with stream=true). Text arrives as
// response.output_text.delta events and usage on response.completed.
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// Name is the vendor identifier used in rosters and logs.
const Name = "openai"

// Provider is the OpenAI Responses API adapter.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ provider.Provider = (*Provider)(nil)
var _ provider.Streamer = (*Provider)(nil)

// New creates an adapter. It fails when the API key or model is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key: %w", provider.ErrMissingCredential)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
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
	return provider.PostStream(ctx, p.client, provider.StreamRequest{
		URL:      p.cfg.BaseURL + "/responses",
		Headers:  map[string]string{"Authorization": "Bearer " + p.cfg.APIKey},
		Body:     body,
		Classify: classify,
	})
}

func (p *Provider) buildBody(req *provider.GenerationRequest) ([]byte, error) {
	wire := responsesRequest{Model: p.cfg.Model, Stream: true}

	if req.SystemPrompt != "" {
		wire.Input = append(wire.Input, inputMessage{
			Role:    "system",
			Content: []inputContent{{Type: "input_text", Text: req.SystemPrompt}},
		})
	}

	user := inputMessage{Role: "user", Content: []inputContent{{Type: "input_text", Text: req.UserPrompt}}}
	if req.HasImage() {
		img, err := provider.EncodeImage(req.ImagePath)
		if err != nil {
			return nil, err
		}
		user.Content = append(user.Content, inputContent{Type: "input_image", ImageURL: img.DataURL()})
	}
	wire.Input = append(wire.Input, user)

	if len(req.Schema) > 0 {
		name, schema, strict := provider.SchemaParts(req.Schema)
		wire.Text = &textConfig{Format: textFormat{Type: "json_schema", Name: name, Schema: schema, Strict: strict}}
	}

	return provider.EncodeBody(wire, req.Overrides)
}
