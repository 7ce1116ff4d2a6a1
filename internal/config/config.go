// Package config provides YAML-based configuration loading for AgroFrota.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level AgroFrota configuration, loaded from agrofrota.yaml.
// API keys and other secrets are not part of the file; see Secrets.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	LLM      LLMConfig      `yaml:"llm"`
	Audio    AudioConfig    `yaml:"audio"`
}

// HTTPConfig holds settings for the web server.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects and configures the store driver. The default is a
// local SQLite file; MySQL is available for shared deployments.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file path
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// ScheduleConfig controls the daily background jobs.
type ScheduleConfig struct {
	GenerateCron        string `yaml:"generate_cron"`
	RunOnStart          bool   `yaml:"run_on_start"`
	AssignAfterGenerate bool   `yaml:"assign_after_generate"`
}

// LLMConfig configures the maintenance-task generation model. BaseURL points
// at any OpenAI-compatible endpoint (Together by default).
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// AudioConfig controls the spoken checklist rendition.
type AudioConfig struct {
	Enabled bool   `yaml:"enabled"`
	Voice   string `yaml:"voice"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "agrofrota.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "agrofrota"
		}
	}
	if c.Schedule.GenerateCron == "" {
		c.Schedule.GenerateCron = "0 6 * * *"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.together.xyz/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Audio.Voice == "" {
		c.Audio.Voice = "pt-BR-MacerioMultilingualNeural"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		errs = append(errs, "database.path is required for the sqlite driver")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port %d out of range", c.HTTP.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
