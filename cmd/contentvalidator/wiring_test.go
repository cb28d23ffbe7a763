package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadServiceConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("MAX_CRAWL_PAGES", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg, err := loadServiceConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, 50, cfg.MaxCrawlPages)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
}

func TestLoadServiceConfig_FileValues(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MAX_CRAWL_PAGES", "")
	t.Setenv("MAX_CRAWL_DEPTH", "")
	path := writeConfigFile(t, `{"port": 9000, "max_crawl_pages": 10}`)

	cfg, err := loadServiceConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 10, cfg.MaxCrawlPages)
	// Unset fields still fall back to defaults.
	assert.Equal(t, 3, cfg.MaxCrawlDepth)
}

func TestLoadServiceConfig_EnvWinsOverFile(t *testing.T) {
	t.Setenv("PORT", "7001")
	path := writeConfigFile(t, `{"port": 9000}`)

	cfg, err := loadServiceConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Port)
}

func TestLoadServiceConfig_InvalidBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	path := writeConfigFile(t, `{"storage_backend": "ftp"}`)

	_, err := loadServiceConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage_backend")
}

func TestLoadServiceConfig_MissingFile(t *testing.T) {
	_, err := loadServiceConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBuildStore_Local(t *testing.T) {
	cfg, err := loadServiceConfig("")
	require.NoError(t, err)
	cfg.StorageBackend = "local"
	cfg.LocalStorageDir = t.TempDir()

	store, err := buildStore(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)
}
