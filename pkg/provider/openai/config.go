package openai

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds adapter settings for one OpenAI model.
type Config struct {
	// Model is the model identifier (e.g. "gpt-4.1").
	Model string

	// APIKey is sent as a Bearer token. Required.
	APIKey string

	// BaseURL is the API root, default DefaultBaseURL.
	BaseURL string

	// Timeout bounds one call, default provider.DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is used for vendor requests, default provider.NewHTTPClient().
	HTTPClient *http.Client
}

// ConfigFromEnv reads OPENAI_API_KEY and the optional OPENAI_BASE_URL.
// A non-empty baseURL argument wins over the environment.
func ConfigFromEnv(model, baseURL string, timeout time.Duration) (Config, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return Config{}, fmt.Errorf("openai: OPENAI_API_KEY: %w", provider.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
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
