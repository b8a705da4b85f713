// Package config provides YAML and environment configuration for the
// healthmonitor binary.
//
// Settings come from three layers, later ones winning: built-in defaults, an
// optional YAML file, and environment variables.
//
// Example configuration:
//
//	title: App1 Health Monitor
//	port: 5001
//	peer_url: ${APP2_URL:-http://localhost:5002}
//	call_interval: 45s
//	call_timeout: 10s
//	warmup_delay: 15s
//
// Environment variables PEER_URL, CALL_INTERVAL, CALL_TIMEOUT, WARMUP_DELAY,
// PORT and TITLE override the file. APP2_URL is accepted for the peer URL
// when PEER_URL is unset. Durations in the environment are whole seconds.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// minCallInterval prevents accidental hammering of the peer.
	minCallInterval = 1 * time.Second

	defaultTitle        = "Health Monitor"
	defaultPort         = 5001
	defaultPeerURL      = "http://localhost:5002"
	defaultCallInterval = 45 * time.Second
	defaultCallTimeout  = 10 * time.Second
	defaultWarmupDelay  = 15 * time.Second
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load], [Parse] or [FromEnv] to create a Config.
type Config struct {
	// Title is the service name shown on the status page and in /health.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 5001.
	Port int `yaml:"port"`

	// PeerURL is the base URL of the verified peer.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	PeerURL string `yaml:"peer_url"`

	// CallInterval is the pause between verification calls. Defaults to 45s.
	CallInterval Duration `yaml:"call_interval"`

	// CallTimeout bounds each verification call. Defaults to 10s.
	CallTimeout Duration `yaml:"call_timeout"`

	// WarmupDelay postpones the first verification call. Defaults to 15s.
	WarmupDelay Duration `yaml:"warmup_delay"`
}

// envOverrides mirrors Config for the environment layer. Unset variables
// leave the pointers nil so file values survive.
type envOverrides struct {
	Title        *string `env:"TITLE"`
	Port         *int    `env:"PORT"`
	PeerURL      *string `env:"PEER_URL"`
	App2URL      *string `env:"APP2_URL"`
	CallInterval *int    `env:"CALL_INTERVAL"`
	CallTimeout  *int    `env:"CALL_TIMEOUT"`
	WarmupDelay  *int    `env:"WARMUP_DELAY"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a Config holding the built-in defaults.
func Default() *Config {
	return &Config{
		Title:        defaultTitle,
		Port:         defaultPort,
		PeerURL:      defaultPeerURL,
		CallInterval: Duration(defaultCallInterval),
		CallTimeout:  Duration(defaultCallTimeout),
		WarmupDelay:  Duration(defaultWarmupDelay),
	}
}

// Load reads and parses a YAML configuration file, then applies
// environment overrides.
//
// Returns an error if the file cannot be read or parsed, or if the resulting
// configuration is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data over the defaults, then applies
// environment overrides and validates the result.
//
// Keys missing from data keep their default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(cfg)
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() (*Config, error) {
	return finish(Default())
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays set environment variables onto c.
func (c *Config) applyEnv() error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if ov.Title != nil {
		c.Title = *ov.Title
	}
	if ov.Port != nil {
		c.Port = *ov.Port
	}
	switch {
	case ov.PeerURL != nil:
		c.PeerURL = *ov.PeerURL
	case ov.App2URL != nil:
		c.PeerURL = *ov.App2URL
	}
	if ov.CallInterval != nil {
		c.CallInterval = seconds(*ov.CallInterval)
	}
	if ov.CallTimeout != nil {
		c.CallTimeout = seconds(*ov.CallTimeout)
	}
	if ov.WarmupDelay != nil {
		c.WarmupDelay = seconds(*ov.WarmupDelay)
	}
	return nil
}

func seconds(n int) Duration {
	return Duration(time.Duration(n) * time.Second)
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Title == "" {
		c.Title = defaultTitle
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	expanded, err := expandEnvVars(c.PeerURL)
	if err != nil {
		return fmt.Errorf("peer_url: %w", err)
	}
	c.PeerURL = expanded
	if err := validatePeerURL(c.PeerURL); err != nil {
		return err
	}

	if c.CallInterval.Duration() < minCallInterval {
		return fmt.Errorf("call_interval must be at least %s, got %s", minCallInterval, c.CallInterval.Duration())
	}
	if c.CallTimeout.Duration() <= 0 {
		return fmt.Errorf("call_timeout must be positive, got %s", c.CallTimeout.Duration())
	}
	if c.WarmupDelay.Duration() < 0 {
		return fmt.Errorf("warmup_delay cannot be negative, got %s", c.WarmupDelay.Duration())
	}
	return nil
}

func validatePeerURL(raw string) error {
	if raw == "" {
		return errors.New("peer_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("peer_url %q is invalid: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("peer_url %q must use http or https scheme", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("peer_url %q has no host", raw)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		if hasDefault {
			return submatches[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", varName)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}
