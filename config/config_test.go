package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	assert := require.New(t)

	cfg, err := Load("test")
	assert.NoError(err)

	assert.Equal("8081", cfg.GetPort())
	assert.Equal("debug", cfg.GetLogLevel())
	assert.Equal("./storage_test/findlines.db", cfg.GetKVDBPath())
	assert.Equal(2, cfg.GetMaxSearchWorkers())
	assert.Equal(int64(1024*1024), cfg.GetMaxFileSize())
	assert.Equal(2, cfg.GetSearchQueueSize())
	assert.Equal([]string{"zip", "tar", "gz"}, cfg.GetArchiveExtensions())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	assert := require.New(t)
	t.Setenv("PORT", "9999")
	t.Setenv("ARCHIVE_EXTENSIONS", " rar, 7z ,")
	t.Setenv("MAX_SEARCH_WORKERS", "16")

	cfg, err := Load("test")
	assert.NoError(err)

	assert.Equal("9999", cfg.GetPort())
	assert.Equal([]string{"rar", "7z"}, cfg.GetArchiveExtensions())
	assert.Equal(16, cfg.GetMaxSearchWorkers())
}

func TestDefaultsWithoutConfigFile(t *testing.T) {
	assert := require.New(t)

	cfg, err := Load("does-not-exist")
	assert.NoError(err)

	assert.Equal(defaultPort, cfg.GetPort())
	assert.Equal(defaultLogLevel, cfg.GetLogLevel())
	assert.Equal(defaultMaxSearchWorkers, cfg.GetMaxSearchWorkers())
	assert.Equal(int64(defaultMaxFileSizeMB*1024*1024), cfg.GetMaxFileSize())
	assert.Equal(defaultSearchQueueSize, cfg.GetSearchQueueSize())
	assert.Nil(cfg.GetArchiveExtensions())
}
