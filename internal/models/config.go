package models

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Storage   StorageConfig   `json:"storage"`
	Embedding EmbeddingConfig `json:"embedding"`
	Tracing   TracingConfig   `json:"tracing"`
	Retry     RetryConfig     `json:"retry"`
	LogLevel  string          `json:"log_level"`
}

// ServerConfig holds HTTP server related configurations
type ServerConfig struct {
	Port             int `json:"port"`
	ImportTimeoutSec int `json:"importTimeoutSec"`
	MaxUploadSizeMB  int `json:"maxUploadSizeMB"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path string `json:"path"`
}

// StorageConfig holds object storage related configurations
type StorageConfig struct {
	BaseURL           string `json:"base_url"`
	Bucket            string `json:"bucket"`
	APIKey            string `json:"api_key"`
	TimeoutSec        int    `json:"timeoutSec"`
	UploadConcurrency int    `json:"uploadConcurrency"`
}

// EmbeddingConfig holds embedding service related configurations
type EmbeddingConfig struct {
	BaseURL      string `json:"base_url"`
	Model        string `json:"model"`
	APIKey       string `json:"api_key"`
	BatchSize    int    `json:"batchSize"`
	BatchDelayMs int    `json:"batchDelayMs"`
	TimeoutSec   int    `json:"timeoutSec"`
}

// TracingConfig holds OpenTelemetry related configurations
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

// RetryConfig holds retry related configurations
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
