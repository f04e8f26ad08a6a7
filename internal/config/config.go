// Package config loads router client settings from X402_* environment
// variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/port402/x402-router/internal/tokens"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "X402"

// ErrMissingPrivateKey is returned when a paid request has no key source.
var ErrMissingPrivateKey = errors.New("no private key configured (set X402_PRIVATE_KEY or X402_KEYSTORE)")

// Config holds the resolved settings.
type Config struct {
	RouterURL        string        `mapstructure:"router_url"`
	PrivateKey       string        `mapstructure:"private_key"`
	Keystore         string        `mapstructure:"keystore"`
	KeystorePassword string        `mapstructure:"keystore_password"`
	Network          string        `mapstructure:"network"`
	PermitCap        string        `mapstructure:"permit_cap"`
	PermitTTL        time.Duration `mapstructure:"permit_ttl"`
	PaymentHeader    string        `mapstructure:"payment_header"`
	PaymentSignature string        `mapstructure:"payment_signature"`
	ModelID          string        `mapstructure:"model_id"`
	ModelName        string        `mapstructure:"model_name"`
	RPCURL           string        `mapstructure:"rpc_url"`
	ConfigTTL        time.Duration `mapstructure:"config_ttl"`
}

var defaults = map[string]interface{}{
	"router_url":        "http://localhost:8080",
	"private_key":       "",
	"keystore":          "",
	"keystore_password": "",
	"network":           "eip155:8453",
	"permit_cap":        "10000000",
	"permit_ttl":        time.Hour,
	"payment_header":    "PAYMENT-SIGNATURE",
	"payment_signature": "",
	"model_id":          "auto",
	"model_name":        "x402 Router",
	"rpc_url":           "",
	"config_ttl":        5 * time.Minute,
}

// Load reads the configuration. Environment variables override values from
// the file at path; an empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.RouterURL = strings.TrimRight(strings.TrimSpace(cfg.RouterURL), "/")
	cfg.PermitCap = strings.TrimSpace(cfg.PermitCap)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the router URL and the permit cap.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RouterURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid router URL %q: must include scheme and host", c.RouterURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid router URL %q: scheme must be http or https", c.RouterURL)
	}

	if _, err := tokens.ParseCap(c.PermitCap); err != nil {
		return fmt.Errorf("invalid permit cap: %w", err)
	}

	if c.PermitTTL <= 0 {
		return fmt.Errorf("invalid permit TTL %s: must be positive", c.PermitTTL)
	}
	if c.ConfigTTL < 0 {
		return fmt.Errorf("invalid config TTL %s: must not be negative", c.ConfigTTL)
	}
	return nil
}

// ProviderBaseURL is the OpenAI-compatible base URL served by the router.
func (c *Config) ProviderBaseURL() string {
	return c.RouterURL + "/v1"
}

// StaticHeaders returns the headers sent with every request. A configured
// payment signature is pre-seeded under the payment header.
func (c *Config) StaticHeaders() http.Header {
	h := http.Header{}
	if c.PaymentSignature != "" {
		h.Set(c.PaymentHeader, c.PaymentSignature)
	}
	return h
}
