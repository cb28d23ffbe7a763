package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/config"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/storage"
)

// loadServiceConfig layers configuration sources: built-in defaults under
// a config file (when given) under environment variables. CLI flags are
// applied on top by each command.
func loadServiceConfig(configPath string) (config.Config, error) {
	envCfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}

	merged := *envCfg
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		merged = merged.MergeWithDefaults(*fileCfg)
	}
	merged = merged.MergeWithDefaults(config.Defaults())

	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// buildStore constructs the blob storage backend the config selects.
func buildStore(cfg config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3(storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		return storage.NewLocal(cfg.LocalStorageDir)
	}
}

// buildLLM constructs the model client, or returns nil when no API key is
// configured. Callers degrade gracefully: guideline extraction and model
// validation are skipped without a client.
func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Warning: GEMINI_API_KEY is not set; model validation and guideline extraction are disabled")
		return nil, nil
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return client, nil
}

func browserTimeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.ScrapeTimeout) * time.Millisecond
}
