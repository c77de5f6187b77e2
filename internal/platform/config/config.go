package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultCMSTimeout   = 10 * time.Second
	defaultSessionTTL   = 7 * 24 * time.Hour
	defaultCookieName   = "pratshop_session"
	defaultCartTTL      = 24 * time.Hour
	defaultTaxRate      = 0.10
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	CMS     CMSConfig
	Session SessionConfig
	Cart    CartConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CMSConfig stores the oneentry project endpoint credentials.
type CMSConfig struct {
	BaseURL  string
	AppToken string
	Timeout  time.Duration
}

// SessionConfig controls the storefront session cookie.
type SessionConfig struct {
	SigningSecret string
	CookieName    string
	TTL           time.Duration
	SecureCookies bool
}

// CartConfig selects and tunes the cart store backend. An empty RedisAddr
// keeps carts in process memory.
type CartConfig struct {
	RedisAddr string
	TTL       time.Duration
	TaxRate   float64
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups.
// Values in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on
// provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "STORE_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "STORE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STORE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STORE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		CMS: CMSConfig{
			BaseURL:  stringWithDefault(lookup, "STORE_ONEENTRY_URL", ""),
			AppToken: stringWithDefault(lookup, "STORE_ONEENTRY_APP_TOKEN", ""),
			Timeout:  durationWithDefault(lookup, "STORE_ONEENTRY_TIMEOUT", defaultCMSTimeout),
		},
		Session: SessionConfig{
			SigningSecret: stringWithDefault(lookup, "STORE_SESSION_SECRET", ""),
			CookieName:    stringWithDefault(lookup, "STORE_SESSION_COOKIE", defaultCookieName),
			TTL:           durationWithDefault(lookup, "STORE_SESSION_TTL", defaultSessionTTL),
			SecureCookies: boolWithDefault(lookup, "STORE_SESSION_SECURE", true),
		},
		Cart: CartConfig{
			RedisAddr: stringWithDefault(lookup, "STORE_CART_REDIS_ADDR", ""),
			TTL:       durationWithDefault(lookup, "STORE_CART_TTL", defaultCartTTL),
			TaxRate:   floatWithDefault(lookup, "STORE_CART_TAX_RATE", defaultTaxRate),
		},
	}

	var missing []string
	if cfg.CMS.BaseURL == "" {
		missing = append(missing, "CMS.BaseURL")
	}
	if cfg.CMS.AppToken == "" {
		missing = append(missing, "CMS.AppToken")
	}
	if cfg.Session.SigningSecret == "" {
		missing = append(missing, "Session.SigningSecret")
	}
	if cfg.Cart.TaxRate < 0 {
		missing = append(missing, "Cart.TaxRate")
	}
	if len(missing) > 0 {
		return Config{}, &ValidationError{fields: missing}
	}

	return cfg, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: open env file %q: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %q: %w", path, err)
	}
	return values, nil
}

type lookupFunc func(string) (string, bool)

func stringWithDefault(lookup lookupFunc, key, fallback string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func durationWithDefault(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup lookupFunc, key string, fallback bool) bool {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(lookup lookupFunc, key string, fallback float64) float64 {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}
