package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com"
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultImageModel  = "imagen-4.0-generate-001"
	DefaultTimeout     = 60
	DefaultSettleDelay = 500
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	AI        AIConfig        `yaml:"ai"`
	Journal   JournalConfig   `yaml:"journal"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Students  []string        `yaml:"students"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TextModel      string `yaml:"text_model"`
	ImageModel     string `yaml:"image_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// SettleDelayMs is nil when the key is absent; an explicit 0 disables
	// the pause.
	SettleDelayMs *int `yaml:"settle_delay_ms"`
}

// Timeout bounds every AI call.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// SettleDelay is the pause before an exercise analysis starts.
func (a AIConfig) SettleDelay() time.Duration {
	if a.SettleDelayMs == nil {
		return DefaultSettleDelay * time.Millisecond
	}
	return time.Duration(*a.SettleDelayMs) * time.Millisecond
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig points at an optional YAML catalog replacing the built-in one.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Load reads config from a YAML file, fills defaults, then applies
// environment variable overrides. Env vars use the prefix FICHATREINO_:
//
//	FICHATREINO_SERVER_HOST, FICHATREINO_SERVER_PORT,
//	FICHATREINO_AI_API_KEY, FICHATREINO_AI_BASE_URL,
//	FICHATREINO_AI_TEXT_MODEL, FICHATREINO_AI_IMAGE_MODEL,
//	FICHATREINO_AI_TIMEOUT_SECONDS, FICHATREINO_AI_SETTLE_DELAY_MS,
//	FICHATREINO_JOURNAL_PATH,
//	FICHATREINO_CATALOG_PATH, FICHATREINO_TAILSCALE_ENABLED,
//	FICHATREINO_TAILSCALE_HOSTNAME
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = DefaultBaseURL
	}
	if cfg.AI.TextModel == "" {
		cfg.AI.TextModel = DefaultTextModel
	}
	if cfg.AI.ImageModel == "" {
		cfg.AI.ImageModel = DefaultImageModel
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = DefaultTimeout
	}
	if cfg.AI.SettleDelayMs == nil {
		ms := DefaultSettleDelay
		cfg.AI.SettleDelayMs = &ms
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "fichatreino"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FICHATREINO_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FICHATREINO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FICHATREINO_AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("FICHATREINO_AI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("FICHATREINO_AI_TEXT_MODEL"); v != "" {
		cfg.AI.TextModel = v
	}
	if v := os.Getenv("FICHATREINO_AI_IMAGE_MODEL"); v != "" {
		cfg.AI.ImageModel = v
	}
	if v := os.Getenv("FICHATREINO_AI_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.AI.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("FICHATREINO_AI_SETTLE_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.AI.SettleDelayMs = &ms
		}
	}
	if v := os.Getenv("FICHATREINO_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("FICHATREINO_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("FICHATREINO_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("FICHATREINO_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	if c.AI.TimeoutSeconds < 0 {
		return fmt.Errorf("ai.timeout_seconds must not be negative")
	}
	if c.AI.SettleDelayMs != nil && *c.AI.SettleDelayMs < 0 {
		return fmt.Errorf("ai.settle_delay_ms must not be negative")
	}
	if c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required")
	}
	for i, s := range c.Students {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("students[%d] is blank", i)
		}
	}
	return nil
}
