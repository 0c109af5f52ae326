package constants

// Default server configuration values
const (
	DefaultServerPort           = 8082
	DefaultImportTimeoutSec     = 300
	DefaultMaxUploadSizeMB      = 64
	DefaultServerReadTimeoutSec = 15
	DefaultServerIdleTimeoutSec = 60
	DefaultGracefulShutdownSec  = 30
)

// Default pipeline configuration values
const (
	DefaultEmbedBatchSize      = 100
	DefaultBatchDelayMs        = 300
	DefaultUploadConcurrency   = 5
	DefaultStorageTimeoutSec   = 30
	DefaultEmbeddingTimeoutSec = 60
	MinPDFTextLength           = 20
)

// Default retry configuration values
const (
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultMaxAttempts           = 5
	DefaultDatabaseRetryAttempts = 3
)

// Encryption salt (application-specific, combined with the secret from env)
const EncryptionSalt = "chatvault-db-v1"
