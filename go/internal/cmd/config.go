package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the console client configuration, loaded from an optional
// yaml file with environment variable overrides.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
	Feed struct {
		URL             string `yaml:"url"`
		BaseDelayMillis int    `yaml:"base_delay_millis"`
		MaxAttempts     int    `yaml:"max_attempts"`
		PingSeconds     int    `yaml:"ping_seconds"`
	} `yaml:"feed"`
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

func loadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.API.BaseURL = getEnv("COURTSIDE_API_URL", defaultString(config.API.BaseURL, "http://localhost:8080/api"))
	config.Feed.URL = getEnv("COURTSIDE_FEED_URL", defaultString(config.Feed.URL, "ws://localhost:8081/ws/feed"))
	config.Feed.BaseDelayMillis = getEnvAsInt("COURTSIDE_FEED_BASE_DELAY_MS", defaultInt(config.Feed.BaseDelayMillis, 1000))
	config.Feed.MaxAttempts = getEnvAsInt("COURTSIDE_FEED_MAX_ATTEMPTS", defaultInt(config.Feed.MaxAttempts, 5))
	config.Feed.PingSeconds = getEnvAsInt("COURTSIDE_FEED_PING_SECONDS", defaultInt(config.Feed.PingSeconds, 30))

	return &config, nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func defaultInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

// BaseDelay returns the reconnect base delay as a duration.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.Feed.BaseDelayMillis) * time.Millisecond
}

// PingInterval returns the feed ping interval as a duration.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Feed.PingSeconds) * time.Second
}
