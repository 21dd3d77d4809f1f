package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the console configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Waitlist WaitlistConfig `yaml:"waitlist"`
	Sessions SessionsConfig `yaml:"sessions"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains web listener settings
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AllowedIPs     []string      `yaml:"allowed_ips"`
	TrustedProxies []string      `yaml:"trusted_proxies"` // peers allowed to set X-Forwarded-For
	TLS            TLSConfig     `yaml:"tls"`
}

// TLSConfig contains TLS certificate paths for the web listener
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APIConfig points the console at the remote admin REST API
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// WaitlistConfig contains the document store read path settings
type WaitlistConfig struct {
	MongoURI     string        `yaml:"mongo_uri"`
	Database     string        `yaml:"database"`
	Collection   string        `yaml:"collection"`
	DefaultLimit int           `yaml:"default_limit"`
	SearchCap    int           `yaml:"search_cap"`
	ServerSearch bool          `yaml:"server_search"`
	Timeout      time.Duration `yaml:"timeout"`
}

// SessionsConfig contains browser session and token storage settings
type SessionsConfig struct {
	Backend string        `yaml:"backend"` // bbolt, redis
	Path    string        `yaml:"path"`
	Secret  string        `yaml:"secret"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MetricsConfig contains Prometheus exporter settings
type MetricsConfig struct {
	Enabled    bool     `yaml:"enabled"`
	ListenAddr string   `yaml:"listen_addr"`
	Path       string   `yaml:"path"`
	AllowedIPs     []string `yaml:"allowed_ips"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file. A .env file next to the working
// directory is applied first and ${VAR} references in the YAML are expanded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8090"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	if c.Waitlist.Collection == "" {
		c.Waitlist.Collection = "waitlist"
	}
	if c.Waitlist.DefaultLimit == 0 {
		c.Waitlist.DefaultLimit = 100
	}
	if c.Waitlist.SearchCap == 0 {
		c.Waitlist.SearchCap = 1000
	}
	if c.Waitlist.Timeout == 0 {
		c.Waitlist.Timeout = 10 * time.Second
	}

	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "bbolt"
	}
	if c.Sessions.Path == "" {
		c.Sessions.Path = "/var/lib/backoffice/sessions.db"
	}
	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = 12 * time.Hour
	}
	if c.Sessions.Redis.Prefix == "" {
		c.Sessions.Redis.Prefix = "backoffice:session:"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9091"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must start with http:// or https://")
	}

	if c.Waitlist.MongoURI != "" && c.Waitlist.Database == "" {
		return fmt.Errorf("waitlist.database is required when waitlist.mongo_uri is set")
	}
	if c.Waitlist.DefaultLimit < 0 || c.Waitlist.SearchCap < 0 {
		return fmt.Errorf("waitlist limits must not be negative")
	}

	switch c.Sessions.Backend {
	case "bbolt":
	case "redis":
		if c.Sessions.Redis.Addr == "" {
			return fmt.Errorf("sessions.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid sessions.backend: %s (must be bbolt or redis)", c.Sessions.Backend)
	}
	if len(c.Sessions.Secret) < 32 {
		return fmt.Errorf("sessions.secret must be at least 32 characters")
	}

	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.cert_file and server.tls.key_file are required when TLS is enabled")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
