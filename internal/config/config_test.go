package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/filedeck/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.NotEmpty(t, cfg.API.BaseURL)
	assert.Positive(t, cfg.API.Timeout)
	assert.Positive(t, cfg.Navigation.RequestTimeout)
	assert.Equal(t, int64(1), cfg.Navigation.StartFolderID)
	assert.Positive(t, cfg.Upload.MaxConcurrent)
	assert.NotEmpty(t, cfg.Storage.DataDir)
	assert.Equal(t, "json", cfg.Storage.StateBackend)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(c *config.Config) {},
			wantErr: "",
		},
		{
			name: "missing base URL",
			modify: func(c *config.Config) {
				c.API.BaseURL = ""
			},
			wantErr: "api.base_url is required",
		},
		{
			name: "negative timeout",
			modify: func(c *config.Config) {
				c.API.Timeout = -1
			},
			wantErr: "api.timeout must be positive",
		},
		{
			name: "zero request timeout",
			modify: func(c *config.Config) {
				c.Navigation.RequestTimeout = 0
			},
			wantErr: "navigation.request_timeout must be positive",
		},
		{
			name: "virtual start folder",
			modify: func(c *config.Config) {
				c.Navigation.StartFolderID = -1
			},
			wantErr: "navigation.start_folder_id must be positive",
		},
		{
			name: "no upload workers",
			modify: func(c *config.Config) {
				c.Upload.MaxConcurrent = 0
			},
			wantErr: "upload.max_concurrent must be positive",
		},
		{
			name: "unknown state backend",
			modify: func(c *config.Config) {
				c.Storage.StateBackend = "redis"
			},
			wantErr: "invalid state backend",
		},
		{
			name: "no download size",
			modify: func(c *config.Config) {
				c.Storage.MaxDownloadSize = 0
			},
			wantErr: "storage.max_download_size must be positive",
		},
		{
			name: "changes without url",
			modify: func(c *config.Config) {
				c.Changes.Enabled = true
			},
			wantErr: "changes.url is required",
		},
		{
			name: "invalid log level",
			modify: func(c *config.Config) {
				c.Log.Level = "invalid"
			},
			wantErr: "invalid log level",
		},
		{
			name: "invalid log format",
			modify: func(c *config.Config) {
				c.Log.Format = "xml"
			},
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoaderEnv(t *testing.T) {
	t.Setenv("FILEDECK_API_BASE_URL", "https://files.example.com/api/filesystem")
	t.Setenv("FILEDECK_API_TIMEOUT", "45s")
	t.Setenv("FILEDECK_API_TOKEN", "secret-token")
	t.Setenv("FILEDECK_LOG_LEVEL", "DEBUG")
	t.Setenv("FILEDECK_UPLOAD_MAX_CONCURRENT", "10")

	loader := config.NewLoader("")
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/api/filesystem", cfg.API.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.Equal(t, "secret-token", cfg.API.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Upload.MaxConcurrent)
}

func TestLoaderFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "filedeck.json")

	configJSON := `{
		"api": {
			"base_url": "https://file.example.com/api/filesystem",
			"timeout": "10s"
		},
		"storage": {
			"data_dir": "/tmp/filedeck-data",
			"state_backend": "sqlite"
		},
		"log": {
			"level": "warn",
			"format": "json"
		}
	}`

	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, configPath, loader.ConfigFile())
	assert.Equal(t, "https://file.example.com/api/filesystem", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.StateBackend)
	assert.Equal(t, filepath.Join("/tmp/filedeck-data", "state"), cfg.Storage.StateDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	// Untouched sections keep defaults.
	assert.Equal(t, 30*time.Second, cfg.Navigation.RequestTimeout)
}

func TestLoaderOverride(t *testing.T) {
	t.Setenv("FILEDECK_API_BASE_URL", "https://env.example.com")

	loader := config.NewLoader("")
	loader.Override("api.base_url", "https://flag.example.com")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.API.BaseURL)
}

func TestLoaderDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("FILEDECK_API_USER_AGENT=dotenv-agent\nFILEDECK_LOG_FORMAT=json\n"), 0644))
	t.Setenv("FILEDECK_LOG_FORMAT", "text")
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("FILEDECK_API_USER_AGENT") })

	cfg, err := config.NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "dotenv-agent", cfg.API.UserAgent)
	// Variables already set win over the file.
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoaderInvalid(t *testing.T) {
	t.Setenv("FILEDECK_LOG_FORMAT", "xml")

	_, err := config.NewLoader("").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestConfigEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(tmpDir, "data")
	cfg.Storage.StateDir = filepath.Join(tmpDir, "data", "state")
	cfg.Log.File = filepath.Join(tmpDir, "logs", "app.log")

	err := cfg.EnsureDirectories()
	require.NoError(t, err)

	assert.DirExists(t, cfg.Storage.DataDir)
	assert.DirExists(t, cfg.Storage.StateDir)
	assert.DirExists(t, filepath.Dir(cfg.Log.File))
}
