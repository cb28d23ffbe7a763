// Package config provides configuration loading and validation for the content validation service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents service configuration that can be loaded from a JSON
// file, the environment, or both. All fields are optional; missing values
// use defaults or must be provided via CLI flags.
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`         // HTTP listen port
	CORSOrigins string `json:"cors_origins,omitempty"` // Comma-separated allowed origins

	// Database
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// LLM
	APIKey string `json:"api_key,omitempty"` // Gemini API key

	// Crawl limits
	MaxCrawlPages int   `json:"max_crawl_pages,omitempty"`   // Maximum pages per discovery run
	MaxCrawlDepth int   `json:"max_crawl_depth,omitempty"`   // Maximum BFS depth for crawl fallback
	MaxCrawlBytes int64 `json:"max_crawl_bytes,omitempty"`   // Total bytes fetched per job
	ScrapeTimeout int   `json:"scrape_timeout_ms,omitempty"` // Per-page scrape timeout in ms
	CrawlTimeout  int   `json:"crawl_timeout_ms,omitempty"`  // Whole-crawl timeout in ms

	// Upload limits
	MaxUploadSizeMB   int    `json:"max_upload_size_mb,omitempty"`
	AllowedExtensions string `json:"allowed_extensions,omitempty"` // Comma-separated, with dots

	// Storage
	StorageBackend  string `json:"storage_backend,omitempty"` // local | s3
	LocalStorageDir string `json:"local_storage_dir,omitempty"`
	S3Endpoint      string `json:"s3_endpoint,omitempty"`
	S3Bucket        string `json:"s3_bucket,omitempty"`
	S3Region        string `json:"s3_region,omitempty"`
	S3AccessKey     string `json:"s3_access_key,omitempty"`
	S3SecretKey     string `json:"s3_secret_key,omitempty"`
	S3UseSSL        bool   `json:"s3_use_ssl,omitempty"`

	// Worker
	WorkerConcurrency int `json:"worker_concurrency,omitempty"`  // Jobs processed in parallel
	MaxJobAttempts    int `json:"max_job_attempts,omitempty"`    // Attempts before a stale job is failed
	StaleJobAfterMin  int `json:"stale_job_after_min,omitempty"` // Minutes before a running job counts as stale
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Port:              8080,
		CORSOrigins:       "http://localhost:5173,http://localhost:3000",
		MaxCrawlPages:     50,
		MaxCrawlDepth:     3,
		MaxCrawlBytes:     50_000_000,
		ScrapeTimeout:     30000,
		CrawlTimeout:      60000,
		MaxUploadSizeMB:   50,
		AllowedExtensions: ".pdf,.docx,.txt,.md,.xlsx,.csv",
		StorageBackend:    "local",
		LocalStorageDir:   "./storage",
		WorkerConcurrency: 2,
		MaxJobAttempts:    3,
		StaleJobAfterMin:  15,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Callers that want
// .env files honored should load them first (godotenv in main).
func FromEnv() (*Config, error) {
	cfg := &Config{
		CORSOrigins:       os.Getenv("CORS_ORIGINS"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		APIKey:            os.Getenv("GEMINI_API_KEY"),
		AllowedExtensions: os.Getenv("ALLOWED_UPLOAD_EXTENSIONS"),
		StorageBackend:    os.Getenv("STORAGE_BACKEND"),
		LocalStorageDir:   os.Getenv("LOCAL_STORAGE_DIR"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          os.Getenv("S3_REGION"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
	}

	intVars := []struct {
		name string
		dst  *int
	}{
		{"PORT", &cfg.Port},
		{"MAX_CRAWL_PAGES", &cfg.MaxCrawlPages},
		{"MAX_CRAWL_DEPTH", &cfg.MaxCrawlDepth},
		{"SCRAPE_TIMEOUT_MS", &cfg.ScrapeTimeout},
		{"CRAWL_TIMEOUT_MS", &cfg.CrawlTimeout},
		{"MAX_UPLOAD_SIZE_MB", &cfg.MaxUploadSizeMB},
		{"WORKER_CONCURRENCY", &cfg.WorkerConcurrency},
		{"MAX_JOB_ATTEMPTS", &cfg.MaxJobAttempts},
		{"STALE_JOB_AFTER_MIN", &cfg.StaleJobAfterMin},
	}
	for _, v := range intVars {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.name, err)
		}
		*v.dst = n
	}

	if raw := os.Getenv("MAX_CRAWL_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_CRAWL_BYTES: %w", err)
		}
		cfg.MaxCrawlBytes = n
	}
	if raw := os.Getenv("S3_USE_SSL"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid S3_USE_SSL: %w", err)
		}
		cfg.S3UseSSL = b
	}

	return cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.MaxCrawlPages < 0 {
		return fmt.Errorf("config error: 'max_crawl_pages' must be non-negative")
	}
	if c.MaxCrawlDepth < 0 {
		return fmt.Errorf("config error: 'max_crawl_depth' must be non-negative")
	}
	if c.WorkerConcurrency < 0 {
		return fmt.Errorf("config error: 'worker_concurrency' must be non-negative")
	}
	if c.StorageBackend != "" && c.StorageBackend != "local" && c.StorageBackend != "s3" {
		return fmt.Errorf("config error: 'storage_backend' must be 'local' or 's3'")
	}
	if c.StorageBackend == "s3" {
		if c.S3Bucket == "" {
			return fmt.Errorf("config error: 's3_bucket' is required when storage_backend is 's3'")
		}
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("config error: s3 credentials are required when storage_backend is 's3'")
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer config file values over built-in defaults, and CLI
// flag values over both.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.CORSOrigins == "" {
		result.CORSOrigins = defaults.CORSOrigins
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.AllowedExtensions == "" {
		result.AllowedExtensions = defaults.AllowedExtensions
	}
	if result.StorageBackend == "" {
		result.StorageBackend = defaults.StorageBackend
	}
	if result.LocalStorageDir == "" {
		result.LocalStorageDir = defaults.LocalStorageDir
	}
	if result.S3Endpoint == "" {
		result.S3Endpoint = defaults.S3Endpoint
	}
	if result.S3Bucket == "" {
		result.S3Bucket = defaults.S3Bucket
	}
	if result.S3Region == "" {
		result.S3Region = defaults.S3Region
	}
	if result.S3AccessKey == "" {
		result.S3AccessKey = defaults.S3AccessKey
	}
	if result.S3SecretKey == "" {
		result.S3SecretKey = defaults.S3SecretKey
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxCrawlPages == 0 {
		result.MaxCrawlPages = defaults.MaxCrawlPages
	}
	if result.MaxCrawlDepth == 0 {
		result.MaxCrawlDepth = defaults.MaxCrawlDepth
	}
	if result.MaxCrawlBytes == 0 {
		result.MaxCrawlBytes = defaults.MaxCrawlBytes
	}
	if result.ScrapeTimeout == 0 {
		result.ScrapeTimeout = defaults.ScrapeTimeout
	}
	if result.CrawlTimeout == 0 {
		result.CrawlTimeout = defaults.CrawlTimeout
	}
	if result.MaxUploadSizeMB == 0 {
		result.MaxUploadSizeMB = defaults.MaxUploadSizeMB
	}
	if result.WorkerConcurrency == 0 {
		result.WorkerConcurrency = defaults.WorkerConcurrency
	}
	if result.MaxJobAttempts == 0 {
		result.MaxJobAttempts = defaults.MaxJobAttempts
	}
	if result.StaleJobAfterMin == 0 {
		result.StaleJobAfterMin = defaults.StaleJobAfterMin
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// CORSOriginsList splits the comma-separated origins setting.
func (c *Config) CORSOriginsList() []string {
	return splitTrimmed(c.CORSOrigins)
}

// AllowedExtensionsList splits the comma-separated upload extensions setting.
func (c *Config) AllowedExtensionsList() []string {
	return splitTrimmed(c.AllowedExtensions)
}

func splitTrimmed(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
