package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Paths     PathsConfig     `yaml:"paths" toml:"paths"`
	Remote    RemoteConfig    `yaml:"remote" toml:"remote"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Process   ProcessConfig   `yaml:"process" toml:"process"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"TASKDOCK_PORT" default:"8001" yaml:"port" toml:"port"`
	Host string `envconfig:"TASKDOCK_HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
}

// PathsConfig holds the on-device install roots. A leading ~ is expanded.
type PathsConfig struct {
	CLIBin  string `envconfig:"TASKDOCK_CLI_DIR" default:"~/usr/local/bin" yaml:"cli_bin" toml:"cli_bin"`
	Lib     string `envconfig:"TASKDOCK_LIB_DIR" default:"~/usr/local/lib" yaml:"lib" toml:"lib"`
	WebApps string `envconfig:"TASKDOCK_WEB_DIR" default:"~/apps" yaml:"web_apps" toml:"web_apps"`
	Profile string `envconfig:"TASKDOCK_PROFILE" default:"~/.profile" yaml:"profile" toml:"profile"`
}

// RemoteConfig holds the remote store roots.
type RemoteConfig struct {
	CLIURL    string        `envconfig:"TASKDOCK_CLI_URL" default:"http://berrystore.sw7ft.com/bins/" yaml:"cli_url" toml:"cli_url"`
	WebURL    string        `envconfig:"TASKDOCK_WEB_URL" default:"http://berrystore.sw7ft.com/apps/" yaml:"web_url" toml:"web_url"`
	ExtrasURL string        `envconfig:"TASKDOCK_EXTRAS_URL" default:"http://berrystore.sw7ft.com/apks/" yaml:"extras_url" toml:"extras_url"`
	Timeout   time.Duration `envconfig:"TASKDOCK_FETCH_TIMEOUT" default:"10s" yaml:"timeout" toml:"timeout"`
	Retries   int           `envconfig:"TASKDOCK_FETCH_RETRIES" default:"1" yaml:"retries" toml:"retries"`
}

// CacheConfig holds freshness windows for the two caches.
type CacheConfig struct {
	RemoteTTL    time.Duration `envconfig:"TASKDOCK_REMOTE_TTL" default:"5m" yaml:"remote_ttl" toml:"remote_ttl"`
	InstalledTTL time.Duration `envconfig:"TASKDOCK_INSTALLED_TTL" default:"1m" yaml:"installed_ttl" toml:"installed_ttl"`
}

// ProcessConfig holds launch and detection settings.
type ProcessConfig struct {
	Interpreter  string        `envconfig:"TASKDOCK_INTERPRETER" default:"python3" yaml:"interpreter" toml:"interpreter"`
	StartGrace   time.Duration `envconfig:"TASKDOCK_START_GRACE" default:"2s" yaml:"start_grace" toml:"start_grace"`
	ProbeTimeout time.Duration `envconfig:"TASKDOCK_PROBE_TIMEOUT" default:"100ms" yaml:"probe_timeout" toml:"probe_timeout"`
	SelfName     string        `envconfig:"TASKDOCK_SELF_NAME" default:"taskapp" yaml:"self_name" toml:"self_name"`
	Lister       string        `envconfig:"TASKDOCK_LISTER" default:"gopsutil" yaml:"lister" toml:"lister"` // "gopsutil" or "command"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20" yaml:"rps" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads environment configuration and then applies the file at
// path on top. Files ending in .toml are read as TOML, anything else as YAML.
// Keys present in the file win. TOML has no duration literal, so durations in
// a TOML file are integer nanoseconds.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		unmarshal = toml.Unmarshal
	}
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from TASKDOCK_CONFIG (if set) and the
// environment, or returns defaults.
func LoadOrDefault() *Config {
	var (
		cfg *Config
		err error
	)
	if path := os.Getenv("TASKDOCK_CONFIG"); path != "" {
		cfg, err = LoadFile(path)
	} else {
		cfg, err = Load()
	}
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8001",
			Host: "0.0.0.0",
		},
		Paths: PathsConfig{
			CLIBin:  "~/usr/local/bin",
			Lib:     "~/usr/local/lib",
			WebApps: "~/apps",
			Profile: "~/.profile",
		},
		Remote: RemoteConfig{
			CLIURL:    "http://berrystore.sw7ft.com/bins/",
			WebURL:    "http://berrystore.sw7ft.com/apps/",
			ExtrasURL: "http://berrystore.sw7ft.com/apks/",
			Timeout:   10 * time.Second,
			Retries:   1,
		},
		Cache: CacheConfig{
			RemoteTTL:    5 * time.Minute,
			InstalledTTL: time.Minute,
		},
		Process: ProcessConfig{
			Interpreter:  "python3",
			StartGrace:   2 * time.Second,
			ProbeTimeout: 100 * time.Millisecond,
			SelfName:     "taskapp",
			Lister:       "gopsutil",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
