// Package config provides configuration management for noteagent.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultListenAddr = ":8080"
	DefaultDBDriver   = "sqlite"
	DefaultDBPath     = "noteagent.db"
	DefaultLLMBaseURL = "https://api.openai.com"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 30 * time.Second
)

// Config is the full runtime configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	DB struct {
		Driver   string `yaml:"driver"` // sqlite | postgres
		Path     string `yaml:"path"`   // sqlite file
		DSN      string `yaml:"dsn"`    // postgres DSN
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"db"`

	LLM struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	RedisAddr     string `yaml:"redis_addr"`     // empty disables the nutrition cache
	OverridesPath string `yaml:"overrides_path"` // empty disables normalizer overrides

	Debug bool `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{ListenAddr: DefaultListenAddr}
	cfg.DB.Driver = DefaultDBDriver
	cfg.DB.Path = DefaultDBPath
	cfg.DB.MaxConns = 4
	cfg.LLM.BaseURL = DefaultLLMBaseURL
	cfg.LLM.Model = DefaultLLMModel
	cfg.LLM.Timeout = DefaultLLMTimeout
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; an unreadable or
// invalid file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
	return cfg, nil
}

// applyEnv overrides fields from NOTEAGENT_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("NOTEAGENT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("NOTEAGENT_DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := os.Getenv("NOTEAGENT_DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("NOTEAGENT_DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("NOTEAGENT_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("NOTEAGENT_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("NOTEAGENT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("NOTEAGENT_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv("NOTEAGENT_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("NOTEAGENT_OVERRIDES_PATH"); v != "" {
		cfg.OverridesPath = v
	}
	if v := os.Getenv("NOTEAGENT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}
