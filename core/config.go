package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIBaseURL      = "https://api.kick.com/public/v1"
	DefaultOAuthBaseURL    = "https://id.kick.com/oauth"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultWebhookAddr     = ":3000"
	DefaultWebhookPath     = "/"
	DefaultWebhookBodySize = int64(1 << 20)
	DefaultCategoryTTL     = 10 * time.Minute
)

type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `koanf:"burst" mapstructure:"burst"`
}

func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0
}

type WebhookConfig struct {
	Addr         string `koanf:"addr" mapstructure:"addr"`
	Path         string `koanf:"path" mapstructure:"path"`
	PublicKeyURL string `koanf:"public_key_url" mapstructure:"public_key_url"`
	MaxBodyBytes int64  `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
}

type Config struct {
	ServiceName      string          `koanf:"service_name" mapstructure:"service_name"`
	APIBaseURL       string          `koanf:"api_base_url" mapstructure:"api_base_url"`
	OAuthBaseURL     string          `koanf:"oauth_base_url" mapstructure:"oauth_base_url"`
	ClientID         string          `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret     string          `koanf:"client_secret" mapstructure:"client_secret"`
	RedirectURI      string          `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	RequestTimeout   time.Duration   `koanf:"request_timeout" mapstructure:"request_timeout"`
	CategoryCacheTTL time.Duration   `koanf:"category_cache_ttl" mapstructure:"category_cache_ttl"`
	RateLimit        RateLimitConfig `koanf:"rate_limit" mapstructure:"rate_limit"`
	Webhook          WebhookConfig   `koanf:"webhook" mapstructure:"webhook"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:      "kick",
		APIBaseURL:       DefaultAPIBaseURL,
		OAuthBaseURL:     DefaultOAuthBaseURL,
		RequestTimeout:   DefaultRequestTimeout,
		CategoryCacheTTL: DefaultCategoryTTL,
		Webhook: WebhookConfig{
			Addr:         DefaultWebhookAddr,
			Path:         DefaultWebhookPath,
			MaxBodyBytes: DefaultWebhookBodySize,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if err := validateBaseURL("api_base_url", c.APIBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("oauth_base_url", c.OAuthBaseURL); err != nil {
		return err
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must not be negative")
	}
	if c.CategoryCacheTTL < 0 {
		return fmt.Errorf("core: category_cache_ttl must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("core: rate_limit values must not be negative")
	}
	if c.Webhook.MaxBodyBytes < 0 {
		return fmt.Errorf("core: webhook.max_body_bytes must not be negative")
	}
	if strings.TrimSpace(c.Webhook.PublicKeyURL) != "" {
		if err := validateBaseURL("webhook.public_key_url", c.Webhook.PublicKeyURL); err != nil {
			return err
		}
	}
	return nil
}

// PublicKeyURL falls back to the public-key endpoint under the API origin.
func (c Config) PublicKeyURL() string {
	if value := strings.TrimSpace(c.Webhook.PublicKeyURL); value != "" {
		return value
	}
	return JoinURL(c.APIBaseURL, "public-key")
}

func JoinURL(base string, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

func validateBaseURL(field string, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("core: %s is required", field)
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: %s must be an absolute url", field)
	}
	return nil
}
