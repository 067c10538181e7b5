// Package config loads service configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"fieldnav/internal/opt"
)

type Server struct {
	Port      int     `yaml:"port"`
	RateRPS   float64 `yaml:"rateRps"`
	RateBurst int     `yaml:"rateBurst"`
}

type Config struct {
	Server    Server     `yaml:"server"`
	Optimizer opt.Config `yaml:"optimizer"`
}

func Default() Config {
	return Config{
		Server:    Server{Port: 8080, RateRPS: 50, RateBurst: 100},
		Optimizer: opt.DefaultConfig(),
	}
}

// Load reads the YAML file at path (or CONFIG_PATH, or skips the file when
// neither is set), then applies environment overrides and validates the
// optimizer section.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Optimizer.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return cfg, fmt.Errorf("config: invalid port %d", cfg.Server.Port)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Server.RateRPS = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.RateBurst = n
		}
	}
}
