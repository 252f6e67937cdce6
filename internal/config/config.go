// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (CLASSISTANT_ prefix, runtime override)
//  2. Config file (~/.classistant/config.yaml)
//  3. Default values
//
// Security: the auth token is only ever read from the environment and is
// masked in MarshalJSON; it is never written back to the config file.
//
// Error handling uses sentinel errors checked with errors.Is(), wrapped
// with fmt.Errorf("%w: details", ErrXxx) where extra context helps.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingBaseURL indicates no backend base URL is configured.
	ErrMissingBaseURL = errors.New("missing backend base URL")

	// ErrInvalidBaseURL indicates the configured base URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("invalid backend base URL")

	// ErrMissingToken indicates no auth token is available.
	ErrMissingToken = errors.New("missing auth token")

	// ErrInvalidTimeout indicates the request timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid request timeout")
)

// Timeout bounds for backend requests. Generation calls are slow (the
// backend renders images and audio for summaries), hence the generous max.
const (
	MinRequestTimeout     = 5 * time.Second
	MaxRequestTimeout     = 10 * time.Minute
	DefaultRequestTimeout = 2 * time.Minute
)

const (
	configDirName  = ".classistant"
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "CLASSISTANT"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON. When
// adding new secrets, update MarshalJSON.
type Config struct {
	// BaseURL is the Classistant backend root, e.g. "https://api.classistant.app".
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Token is the bearer token presented on every request.
	// Read from CLASSISTANT_TOKEN only, never from the config file.
	Token string `mapstructure:"token" json:"token"`

	// TokenCommand is an optional external command that prints a fresh
	// bearer token, e.g. "gcloud auth print-identity-token". When set the
	// token is re-fetched periodically so long sessions outlive expiry.
	TokenCommand string `mapstructure:"token_command" json:"token_command"`

	// UserID is the backend identity of the current user. Messages whose
	// senderId matches UserID render as the user's own.
	UserID string `mapstructure:"user_id" json:"user_id"`

	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`

	// AudioCommand is the external player used for summary narration,
	// e.g. "afplay" or "mpg123". Empty disables audio playback.
	AudioCommand string `mapstructure:"audio_command" json:"audio_command"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel string `mapstructure:"log_level" json:"log_level"`

	// LogJSON switches log output to JSON format.
	LogJSON bool `mapstructure:"log_json" json:"log_json"`

	// OTLPEndpoint enables request tracing when set (host:port of an
	// OTLP/HTTP collector). Empty disables tracing entirely.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
}

// MarshalJSON masks sensitive fields so configs can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(c)
	if masked.Token != "" {
		masked.Token = "***"
	}
	return json.Marshal(masked)
}

// Load reads configuration from defaults, the config file, and environment
// variables, then validates the result.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env must suffice.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for required values and sane ranges.
// The token is validated separately (see ValidateToken) so read-only
// commands like "version" work without credentials.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	if c.RequestTimeout < MinRequestTimeout || c.RequestTimeout > MaxRequestTimeout {
		return fmt.Errorf("%w: %s (allowed %s..%s)",
			ErrInvalidTimeout, c.RequestTimeout, MinRequestTimeout, MaxRequestTimeout)
	}
	return nil
}

// ValidateToken ensures a bearer token is present for authenticated commands.
func (c *Config) ValidateToken() error {
	if c.Token == "" {
		return fmt.Errorf("%w: set %s_TOKEN", ErrMissingToken, envPrefix)
	}
	return nil
}

// Dir returns the config directory (~/.classistant), creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("audio_command", defaultAudioCommand())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

func defaultAudioCommand() string {
	if runtime.GOOS == "darwin" {
		return "afplay"
	}
	return "mpg123"
}
