// Package gemini implements the benchmark adapter for Google's Gemini
// models over the streamGenerateContent REST endpoint with SSE framing.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// Name is the vendor identifier used in rosters and logs.
const Name = "gemini"

// Provider is the Gemini adapter.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ provider.Provider = (*Provider)(nil)
var _ provider.Streamer = (*Provider)(nil)

// New creates an adapter. It fails when the API key or model is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key: %w", provider.ErrMissingCredential)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: model is required")
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
		URL:      fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.cfg.BaseURL, url.PathEscape(p.cfg.Model)),
		Headers:  map[string]string{"x-goog-api-key": p.cfg.APIKey},
		Body:     body,
		Classify: classify,
	})
}

// buildBody places image before text in the user turn. Overrides are
// merged into generationConfig, where Gemini expects sampling settings.
func (p *Provider) buildBody(req *provider.GenerationRequest) ([]byte, error) {
	wire := generateRequest{}
	if req.SystemPrompt != "" {
		wire.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	user := content{Role: "user"}
	if req.HasImage() {
		img, err := provider.EncodeImage(req.ImagePath)
		if err != nil {
			return nil, err
		}
		user.Parts = append(user.Parts, part{InlineData: &inlineData{MIMEType: img.MIMEType, Data: img.Base64}})
	}
	user.Parts = append(user.Parts, part{Text: req.UserPrompt})
	wire.Contents = []content{user}

	gen := make(map[string]any)
	if len(req.Schema) > 0 {
		_, schema, _ := provider.SchemaParts(req.Schema)
		gen["responseMimeType"] = "application/json"
		gen["responseSchema"] = schema
	}
	provider.MergeOverrides(gen, req.Overrides)
	if len(gen) > 0 {
		wire.GenerationConfig = gen
	}

	return provider.EncodeBody(wire, nil)
}
