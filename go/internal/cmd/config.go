package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the competition tunables. Values come from an optional
// YAML file, overridden by environment variables.
type Config struct {
	Port        string
	JWTSecret   string
	TokenExpiry time.Duration
	RateWindow  time.Duration
	GraderTick  time.Duration
	NATSURL     string
	NATSSubject string
}

type fileConfig struct {
	Competition struct {
		RateWindowSec  int `yaml:"rate_window_sec"`
		GraderTickSec  int `yaml:"grader_tick_sec"`
		TokenExpiryMin int `yaml:"token_expiry_min"`
	} `yaml:"competition"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenExpiry: 2 * time.Hour,
		RateWindow:  30 * time.Second,
		GraderTick:  60 * time.Second,
		NATSURL:     os.Getenv("NATS_URL"),
		NATSSubject: getEnv("NATS_SUBJECT", "competition.solutions"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if err := applyFileConfig(cfg, getEnv("CONFIG_PATH", "config.yaml")); err != nil {
		return nil, err
	}

	// Env beats file for the same tunables.
	if v := getEnvAsInt("RATE_WINDOW_SEC", 0); v > 0 {
		cfg.RateWindow = time.Duration(v) * time.Second
	}
	if v := getEnvAsInt("GRADER_TICK_SEC", 0); v > 0 {
		cfg.GraderTick = time.Duration(v) * time.Second
	}
	if v := getEnvAsInt("TOKEN_EXPIRY_MIN", 0); v > 0 {
		cfg.TokenExpiry = time.Duration(v) * time.Minute
	}

	return cfg, nil
}

// applyFileConfig folds a YAML file into cfg. A missing file is fine;
// a present but unparsable one is not.
func applyFileConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.Competition.RateWindowSec > 0 {
		cfg.RateWindow = time.Duration(fc.Competition.RateWindowSec) * time.Second
	}
	if fc.Competition.GraderTickSec > 0 {
		cfg.GraderTick = time.Duration(fc.Competition.GraderTickSec) * time.Second
	}
	if fc.Competition.TokenExpiryMin > 0 {
		cfg.TokenExpiry = time.Duration(fc.Competition.TokenExpiryMin) * time.Minute
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
