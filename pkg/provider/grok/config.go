package grok

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// DefaultBaseURL is the xAI OpenAI-compatible API root.
const DefaultBaseURL = "https://api.x.ai/v1"

// Config holds adapter settings for one Grok model.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// HTTPClient is used for vendor requests, default provider.NewHTTPClient().
	HTTPClient *http.Client
}

// ConfigFromEnv reads GROK_API_KEY and the optional XAI_API_BASE.
func ConfigFromEnv(model, baseURL string, timeout time.Duration) (Config, error) {
	key := os.Getenv("GROK_API_KEY")
	if key == "" {
		return Config{}, fmt.Errorf("grok: GROK_API_KEY: %w", provider.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = os.Getenv("XAI_API_BASE")
	}
	return Config{Model: model, APIKey: key, BaseURL: baseURL, Timeout: timeout}, nil
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = provider.DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = provider.NewHTTPClient()
	}
}
