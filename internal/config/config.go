package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tanq16/splitdl/internal/utils"
	"gopkg.in/yaml.v3"
)

// Config defines the settings shared by every download the CLI starts.
type Config struct {
	SaveDir   string        `yaml:"save_dir"`
	Workers   int           `yaml:"workers"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	RateLimit int64         `yaml:"rate_limit"` // bytes per second, 0 = unlimited
	Debug     bool          `yaml:"debug"`
}

// Default returns a Config that saves into the working directory with as many
// workers as the machine allows.
func Default() Config {
	return Config{
		Workers:   utils.MaxWorkers(),
		Timeout:   3 * time.Minute,
		UserAgent: utils.ToolUserAgent,
	}
}

// yamlConfig accepts human-readable sizes and durations.
type yamlConfig struct {
	SaveDir   string `yaml:"save_dir"`
	Workers   int    `yaml:"workers"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
	RateLimit string `yaml:"rate_limit"`
	Debug     bool   `yaml:"debug"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.SaveDir != "" {
		cfg.SaveDir = yc.SaveDir
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if yc.RateLimit != "" {
		limit, err := utils.ParseBytes(yc.RateLimit)
		if err != nil {
			return Config{}, fmt.Errorf("parse rate_limit: %w", err)
		}
		cfg.RateLimit = limit
	}
	cfg.Debug = yc.Debug
	return cfg, nil
}

// LoadFromEnv applies SPLITDL_ environment variables to c.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SPLITDL_SAVE_DIR"); v != "" {
		c.SaveDir = v
	}
	if v := os.Getenv("SPLITDL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SPLITDL_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("SPLITDL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SPLITDL_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("SPLITDL_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("SPLITDL_RATE_LIMIT"); v != "" {
		limit, err := utils.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse SPLITDL_RATE_LIMIT: %w", err)
		}
		c.RateLimit = limit
	}
	if v := os.Getenv("SPLITDL_DEBUG"); v != "" {
		c.Debug = v == "true" || v == "1"
	}
	return nil
}

// Merge returns c with the non-zero fields of override applied.
func (c Config) Merge(override Config) Config {
	if override.SaveDir != "" {
		c.SaveDir = override.SaveDir
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	if override.RateLimit != 0 {
		c.RateLimit = override.RateLimit
	}
	if override.Debug {
		c.Debug = override.Debug
	}
	return c
}

// Validate checks the settings that do not depend on a particular URL.
func (c *Config) Validate() error {
	if _, err := ResolveSaveDir(c.SaveDir); err != nil {
		return err
	}
	if err := ValidateWorkers(c.Workers); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return &utils.ValidationError{Field: "timeout", Reason: "must not be negative"}
	}
	if c.RateLimit < 0 {
		return &utils.ValidationError{Field: "rate limit", Reason: "must not be negative"}
	}
	return nil
}
