package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Creator    CreatorConfig    `yaml:"creator" mapstructure:"creator"`
	Protection ProtectionConfig `yaml:"protection" mapstructure:"protection"`
	Moltbook   MoltbookConfig   `yaml:"moltbook" mapstructure:"moltbook"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	WebSocket  WebSocketConfig  `yaml:"websocket" mapstructure:"websocket"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// CreatorConfig is the typed creator identity fed into the PII detector.
// Every field is optional. The struct is passed by value into detector
// construction and never retained elsewhere; keep it out of logs.
type CreatorConfig struct {
	Name           string   `yaml:"name" mapstructure:"name"`
	Handle         string   `yaml:"handle" mapstructure:"handle"`
	Location       string   `yaml:"location" mapstructure:"location"`
	Employer       string   `yaml:"employer" mapstructure:"employer"`
	Family         []string `yaml:"family" mapstructure:"family"`
	Phone          string   `yaml:"phone" mapstructure:"phone"`
	Email          string   `yaml:"email" mapstructure:"email"`
	Address        string   `yaml:"address" mapstructure:"address"`
	CustomPatterns []string `yaml:"custom_patterns" mapstructure:"custom_patterns"`
}

// ProtectionConfig controls the safe-posting policy. Protection is on by
// default; disabling it is an explicit opt-in.
type ProtectionConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Placeholder string `yaml:"placeholder" mapstructure:"placeholder"`
}

// MoltbookConfig contains Moltbook API client configuration. The API key
// is deliberately absent: it comes from the MOLTBOOK_API_KEY environment
// variable only.
type MoltbookConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerMin int           `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// CacheConfig contains the optional Redis response cache configuration.
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

// ServerConfig contains guard server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// WebSocketConfig contains the event hub configuration
type WebSocketConfig struct {
	Enabled         bool     `yaml:"enabled" mapstructure:"enabled"`
	Path            string   `yaml:"path" mapstructure:"path"`
	ReadBufferSize  int      `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int      `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Events          struct {
		BroadcastDecisions   bool `yaml:"broadcast_decisions" mapstructure:"broadcast_decisions"`
		BroadcastSystem      bool `yaml:"broadcast_system" mapstructure:"broadcast_system"`
		BroadcastConnections bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
	} `yaml:"events" mapstructure:"events"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
		Path     string `yaml:"path" mapstructure:"path"`
		MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
		MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
		Compress bool   `yaml:"compress" mapstructure:"compress"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Creator: CreatorConfig{},
		Protection: ProtectionConfig{
			Enabled:     true,
			Placeholder: "[REDACTED]",
		},
		Moltbook: MoltbookConfig{
			BaseURL:        "https://www.moltbook.com/api/v1",
			Timeout:        30 * time.Second,
			RequestsPerMin: 60,
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			DefaultTTL:     60 * time.Second,
			KeyPrefix:      "moltbook",
			MaxConnections: 10,
			MinIdleConns:   2,
		},
		Server: ServerConfig{
			Port:         8090,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		WebSocket: WebSocketConfig{
			Enabled:         true,
			Path:            "/ws",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			AllowedOrigins:  []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	cfg.WebSocket.Events.BroadcastDecisions = true
	cfg.WebSocket.Events.BroadcastSystem = true
	cfg.WebSocket.Events.BroadcastConnections = true

	cfg.Logging.File.Path = "logs/moltbook.log"
	cfg.Logging.File.MaxSize = 100 // MB
	cfg.Logging.File.MaxAge = 30   // days
	cfg.Logging.File.Compress = true

	return cfg
}
