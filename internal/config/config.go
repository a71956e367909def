// Load envs from .env
// Load YAML config
// Apply env overrides
// Provide default values

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"devconnect/internal/models"
)

// configPath is the optional yaml config file next to the binary.
const configPath = "configs/config.yaml"

// fileConfig is the yaml projection of the config; durations are
// written as strings ("15s") and parsed here.
type fileConfig struct {
	APIBaseURL            string `yaml:"api_base_url"`
	DatabasePath          string `yaml:"database_path"`
	RequestTimeout        string `yaml:"request_timeout"`
	MaxConcurrentRequests int64  `yaml:"max_concurrent_requests"`
	AlertTimeout          string `yaml:"alert_timeout"`
}

// Default returns the default configuration for the client.
func Default() models.Config {
	return models.Config{
		APIBaseURL:            "http://localhost:8080/api",
		DatabasePath:          "devconnect.db",
		RequestTimeout:        15 * time.Second,
		MaxConcurrentRequests: 10,
		AlertTimeout:          3 * time.Second,
	}
}

// Load builds the runtime configuration: defaults, overridden by the
// yaml file if present, overridden by environment variables.
func Load() (models.Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if data, err := os.ReadFile(configPath); err == nil {
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
		if file.APIBaseURL != "" {
			cfg.APIBaseURL = file.APIBaseURL
		}
		if file.DatabasePath != "" {
			cfg.DatabasePath = file.DatabasePath
		}
		if file.MaxConcurrentRequests > 0 {
			cfg.MaxConcurrentRequests = file.MaxConcurrentRequests
		}
		if file.RequestTimeout != "" {
			d, err := time.ParseDuration(file.RequestTimeout)
			if err != nil {
				return cfg, fmt.Errorf("invalid request_timeout in %s: %w", configPath, err)
			}
			cfg.RequestTimeout = d
		}
		if file.AlertTimeout != "" {
			d, err := time.ParseDuration(file.AlertTimeout)
			if err != nil {
				return cfg, fmt.Errorf("invalid alert_timeout in %s: %w", configPath, err)
			}
			cfg.AlertTimeout = d
		}
	}

	if base := os.Getenv("DEVCONNECT_API_URL"); base != "" {
		cfg.APIBaseURL = base
	}
	if path := os.Getenv("DEVCONNECT_DB_PATH"); path != "" {
		cfg.DatabasePath = path
	}
	if timeout := os.Getenv("DEVCONNECT_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid DEVCONNECT_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if cfg.APIBaseURL == "" {
		return cfg, fmt.Errorf("api_base_url is required")
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = Default().MaxConcurrentRequests
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = Default().RequestTimeout
	}

	return cfg, nil
}
