package experiment

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rhuss/vendorbench/pkg/config"
	"github.com/rhuss/vendorbench/pkg/provider"
	"github.com/rhuss/vendorbench/pkg/provider/anthropic"
	"github.com/rhuss/vendorbench/pkg/provider/gemini"
	"github.com/rhuss/vendorbench/pkg/provider/grok"
	"github.com/rhuss/vendorbench/pkg/provider/openai"
)

// Member is one roster entry bound to its adapter.
type Member struct {
	Spec     provider.ModelSpec
	Provider provider.Provider

	// Overrides apply to every task sent to this member. Task overrides
	// take precedence key by key.
	Overrides map[string]any
}

// Factory builds adapters from configuration.
type Factory struct {
	Vendors map[string]config.VendorConfig
	Timeout time.Duration

	// Client is shared by all adapters; nil gives each adapter its own
	// default client.
	Client *http.Client
}

// NewFactory returns a Factory for cfg. The client is typically wrapped
// with observability.InstrumentClient.
func NewFactory(cfg *config.Config, client *http.Client) *Factory {
	return &Factory{
		Vendors: cfg.Vendors,
		Timeout: cfg.Experiment.CallTimeout,
		Client:  client,
	}
}

// Roster builds every entry up front. Missing credentials and unknown
// providers are reported together so a run fails before any call is made.
func (f *Factory) Roster(entries []config.RosterEntry) ([]Member, error) {
	var (
		members []Member
		errs    []error
	)
	for i, e := range entries {
		p, err := f.Build(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("roster[%d] %s:%s: %w", i, e.Provider, e.Model, err))
			continue
		}
		members = append(members, Member{
			Spec:      provider.ModelSpec{Provider: e.Provider, Model: e.Model},
			Provider:  p,
			Overrides: e.Overrides,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return members, nil
}

// Build constructs the adapter for one roster entry. The key comes from
// the vendor's api_key_env when configured, else from the vendor's
// default environment variables.
func (f *Factory) Build(e config.RosterEntry) (provider.Provider, error) {
	v := f.Vendors[e.Provider]

	key, err := customKey(v)
	if err != nil {
		return nil, err
	}

	switch e.Provider {
	case openai.Name:
		cfg := openai.Config{Model: e.Model, APIKey: key, BaseURL: v.BaseURL}
		if key == "" {
			if cfg, err = openai.ConfigFromEnv(e.Model, v.BaseURL, 0); err != nil {
				return nil, err
			}
		}
		cfg.Timeout, cfg.HTTPClient = f.Timeout, f.Client
		return openai.New(cfg)

	case anthropic.Name:
		cfg := anthropic.Config{Model: e.Model, APIKey: key, BaseURL: v.BaseURL}
		if key == "" {
			if cfg, err = anthropic.ConfigFromEnv(e.Model, v.BaseURL, 0); err != nil {
				return nil, err
			}
		}
		cfg.MaxTokens = v.MaxTokens
		cfg.Timeout, cfg.HTTPClient = f.Timeout, f.Client
		return anthropic.New(cfg)

	case grok.Name:
		cfg := grok.Config{Model: e.Model, APIKey: key, BaseURL: v.BaseURL}
		if key == "" {
			if cfg, err = grok.ConfigFromEnv(e.Model, v.BaseURL, 0); err != nil {
				return nil, err
			}
		}
		cfg.Timeout, cfg.HTTPClient = f.Timeout, f.Client
		return grok.New(cfg)

	case gemini.Name:
		cfg := gemini.Config{Model: e.Model, APIKey: key, BaseURL: v.BaseURL}
		if key == "" {
			if cfg, err = gemini.ConfigFromEnv(e.Model, v.BaseURL, 0); err != nil {
				return nil, err
			}
		}
		cfg.Timeout, cfg.HTTPClient = f.Timeout, f.Client
		return gemini.New(cfg)

	default:
		return nil, fmt.Errorf("unknown provider %q", e.Provider)
	}
}

// customKey reads the key from the vendor's api_key_env. It returns ""
// when no custom variable is configured.
func customKey(v config.VendorConfig) (string, error) {
	if v.APIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(v.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s: %w", v.APIKeyEnv, provider.ErrMissingCredential)
	}
	return key, nil
}
