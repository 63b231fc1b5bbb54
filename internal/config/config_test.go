package config

import (
	"testing"
	"time"
)

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if !cfg.Protection.Enabled {
		t.Error("protection must default to enabled")
	}
	if cfg.Protection.Placeholder != "[REDACTED]" {
		t.Errorf("placeholder = %q", cfg.Protection.Placeholder)
	}
	if cfg.Moltbook.BaseURL != "https://www.moltbook.com/api/v1" {
		t.Errorf("base_url = %q", cfg.Moltbook.BaseURL)
	}
	if cfg.Moltbook.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Moltbook.Timeout)
	}
	if cfg.Cache.Enabled {
		t.Error("cache must default to disabled")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}

	if err := validateConfig(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too small", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty base url", func(c *Config) { c.Moltbook.BaseURL = "" }},
		{"zero rate limit", func(c *Config) { c.Moltbook.RequestsPerMin = 0 }},
		{"empty placeholder", func(c *Config) { c.Protection.Placeholder = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := GetDefaults()
			tc.mutate(cfg)
			if err := validateConfig(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
