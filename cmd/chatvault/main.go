package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatvault/internal/config"
	"chatvault/internal/constants"
	"chatvault/internal/database"
	"chatvault/internal/models"
	"chatvault/internal/retry"
	"chatvault/internal/service"
	"chatvault/internal/tracing"
	"chatvault/pkg/embedding"
	"chatvault/pkg/storage"

	"github.com/sirupsen/logrus"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("ChatVault %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting ChatVault")

	tracingManager := tracing.NewManager(tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		UseStdout:      cfg.Tracing.UseStdout,
	}, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var storageClient storage.Client
	if cfg.Storage.BaseURL != "" {
		storageClient = storage.NewClient(cfg.Storage)
		logger.WithField("bucket", cfg.Storage.Bucket).Info("Object storage configured")
	} else {
		logger.Info("Object storage not configured, media uploads disabled")
	}

	embedder, err := embedding.NewClient(cfg.Embedding, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	importer := service.NewImportService(db, storageClient, embedder, cfg, logger)
	server := NewServer(cfg, importer, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		return logger
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", level)
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

// openDatabase retries the open because the data directory may still be
// coming up (network volume, container start order).
func openDatabase(ctx context.Context, cfg *models.Config, logger *logrus.Logger) (*database.Database, error) {
	policy := retry.Policy{
		Base:     time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
		Cap:      time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Factor:   2.0,
		Attempts: constants.DefaultDatabaseRetryAttempts,
		Jitter:   true,
	}

	var db *database.Database
	err := policy.Do(ctx, func() error {
		var openErr error
		db, openErr = database.New(cfg.Database.Path)
		if openErr != nil {
			logger.Warnf("Failed to open database: %v", openErr)
		}
		return openErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database after retries: %w", err)
	}
	return db, nil
}
