package anthropic

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rhuss/vendorbench/pkg/provider"
)

const (
	// DefaultBaseURL is the public Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	// DefaultMaxTokens is required by the Messages API; overrides may raise it.
	DefaultMaxTokens = 4096
)

// Config holds adapter settings for one Claude model.
type Config struct {
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration

	// HTTPClient is used for vendor requests, default provider.NewHTTPClient().
	HTTPClient *http.Client
}

// ConfigFromEnv reads ANTHROPIC_API_KEY and the optional ANTHROPIC_BASE_URL.
// ANTHROPIC_OPENAI_BASE_URL is accepted as a fallback; it names the
// OpenAI-compatible root, so a trailing /v1 is dropped.
func ConfigFromEnv(model, baseURL string, timeout time.Duration) (Config, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return Config{}, fmt.Errorf("anthropic: ANTHROPIC_API_KEY: %w", provider.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = os.Getenv("ANTHROPIC_BASE_URL")
	}
	if baseURL == "" {
		if legacy := os.Getenv("ANTHROPIC_OPENAI_BASE_URL"); legacy != "" {
			baseURL = strings.TrimSuffix(strings.TrimRight(legacy, "/"), "/v1")
		}
	}
	return Config{Model: model, APIKey: key, BaseURL: baseURL, Timeout: timeout}, nil
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = provider.DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = provider.NewHTTPClient()
	}
}
