package gemini

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rhuss/vendorbench/pkg/provider"
)

// DefaultBaseURL is the Generative Language API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds adapter settings for one Gemini model.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// HTTPClient is used for vendor requests, default provider.NewHTTPClient().
	HTTPClient *http.Client
}

// ConfigFromEnv reads GOOGLE_API_KEY, falling back to GEMINI_API_KEY, and
// the optional GEMINI_BASE_URL.
func ConfigFromEnv(model, baseURL string, timeout time.Duration) (Config, error) {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return Config{}, fmt.Errorf("gemini: GOOGLE_API_KEY or GEMINI_API_KEY: %w", provider.ErrMissingCredential)
	}
	if baseURL == "" {
		baseURL = os.Getenv("GEMINI_BASE_URL")
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
