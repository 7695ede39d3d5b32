// Package config loads the settings shared by the pages CLI and the dev
// server: a YAML (or JSON) file overlaid by PAGES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Server configures the admin pages API server.
type Server struct {
	Addr          string        `yaml:"addr"`
	Database      string        `yaml:"database"`
	Templates     string        `yaml:"templates"`
	Uploads       string        `yaml:"uploads"`
	ShutdownGrace time.Duration `yaml:"shutdownGrace"`
	SEOKeywords   bool          `yaml:"seoKeywords"`
}

// Client configures the API client used by the CLI.
type Client struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the full configuration.
type Config struct {
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:          ":8080",
			Database:      "pages.db",
			Templates:     "templates",
			Uploads:       "uploads",
			ShutdownGrace: 5 * time.Second,
		},
		Client: Client{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// when path is empty; otherwise it is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays PAGES_* variables read through lookup, usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	strs := map[string]*string{
		"PAGES_ADDR":      &c.Server.Addr,
		"PAGES_DATABASE":  &c.Server.Database,
		"PAGES_TEMPLATES": &c.Server.Templates,
		"PAGES_UPLOADS":   &c.Server.Uploads,
		"PAGES_BASE_URL":  &c.Client.BaseURL,
	}
	for key, target := range strs {
		if value, ok := lookup(key); ok {
			*target = strings.TrimSpace(value)
		}
	}

	durations := map[string]*time.Duration{
		"PAGES_SHUTDOWN_GRACE": &c.Server.ShutdownGrace,
		"PAGES_TIMEOUT":        &c.Client.Timeout,
	}
	for key, target := range durations {
		value, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*target = d
	}

	if value, ok := lookup("PAGES_SEO_KEYWORDS"); ok {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes":
			c.Server.SEOKeywords = true
		case "0", "false", "no", "":
			c.Server.SEOKeywords = false
		default:
			return fmt.Errorf("config: PAGES_SEO_KEYWORDS: invalid boolean %q", value)
		}
	}
	return c.Validate()
}

// Validate checks the settings that have no usable zero value.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Database == "" {
		errs = append(errs, errors.New("server.database is required"))
	}
	if c.Server.ShutdownGrace < 0 {
		errs = append(errs, errors.New("server.shutdownGrace must not be negative"))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client.timeout must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
