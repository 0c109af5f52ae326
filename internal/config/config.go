package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"chatvault/internal/constants"
	"chatvault/internal/models"
	"chatvault/internal/security"
)

// LoadConfig reads the JSON configuration file at path, applies
// environment overrides and defaults, and validates the result.
func LoadConfig(path string) (*models.Config, error) {
	if err := security.ValidateConfigPath(path); err != nil {
		return nil, &models.ConfigError{Message: fmt.Sprintf("invalid config path: %v", err)}
	}

	data, err := os.ReadFile(path) // #nosec G304 - path validated above
	if err != nil {
		return nil, &models.ConfigError{Message: fmt.Sprintf("failed to read config file: %v", err)}
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &models.ConfigError{Message: fmt.Sprintf("failed to parse config file: %v", err)}
	}

	applyEnvironmentOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvironmentOverrides(cfg *models.Config) {
	if v := os.Getenv("CHATVAULT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CHATVAULT_STORAGE_URL"); v != "" {
		cfg.Storage.BaseURL = v
	}
	if v := os.Getenv("CHATVAULT_STORAGE_API_KEY"); v != "" {
		cfg.Storage.APIKey = v
	}
	if v := os.Getenv("CHATVAULT_STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("CHATVAULT_EMBEDDING_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("CHATVAULT_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("CHATVAULT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *models.Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = constants.DefaultServerPort
	}
	if cfg.Server.ImportTimeoutSec == 0 {
		cfg.Server.ImportTimeoutSec = constants.DefaultImportTimeoutSec
	}
	if cfg.Server.MaxUploadSizeMB == 0 {
		cfg.Server.MaxUploadSizeMB = constants.DefaultMaxUploadSizeMB
	}
	if cfg.Storage.TimeoutSec == 0 {
		cfg.Storage.TimeoutSec = constants.DefaultStorageTimeoutSec
	}
	if cfg.Storage.UploadConcurrency == 0 {
		cfg.Storage.UploadConcurrency = constants.DefaultUploadConcurrency
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = constants.DefaultEmbedBatchSize
	}
	if cfg.Embedding.BatchDelayMs == 0 {
		cfg.Embedding.BatchDelayMs = constants.DefaultBatchDelayMs
	}
	if cfg.Embedding.TimeoutSec == 0 {
		cfg.Embedding.TimeoutSec = constants.DefaultEmbeddingTimeoutSec
	}
	if cfg.Retry.InitialBackoffMs == 0 {
		cfg.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func validate(cfg *models.Config) error {
	if cfg.Database.Path == "" {
		return &models.ConfigError{Message: "database path is required"}
	}
	if cfg.Embedding.BaseURL == "" {
		return &models.ConfigError{Message: "embedding base URL is required"}
	}
	if cfg.Storage.BaseURL != "" {
		if cfg.Storage.Bucket == "" {
			return &models.ConfigError{Message: "storage bucket is required when storage URL is set"}
		}
		if !strings.HasPrefix(cfg.Storage.BaseURL, "http://") && !strings.HasPrefix(cfg.Storage.BaseURL, "https://") {
			return &models.ConfigError{Message: "storage base URL must be an http(s) URL"}
		}
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return &models.ConfigError{Message: fmt.Sprintf("invalid server port: %d", cfg.Server.Port)}
	}
	return nil
}
