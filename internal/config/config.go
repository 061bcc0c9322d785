package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Backend API
	API APIConfig `json:"api" mapstructure:"api"`

	// Navigation behavior
	Navigation NavigationConfig `json:"navigation" mapstructure:"navigation"`

	// Upload batching
	Upload UploadConfig `json:"upload" mapstructure:"upload"`

	// Local paths and session persistence
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Server change feed
	Changes ChangesConfig `json:"changes" mapstructure:"changes"`

	// Prometheus endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// APIConfig for server communication.
type APIConfig struct {
	BaseURL    string        `json:"base_url" mapstructure:"base_url"`
	Token      string        `json:"token,omitempty" mapstructure:"token"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"`
	UserAgent  string        `json:"user_agent" mapstructure:"user_agent"`
}

// NavigationConfig controls listing requests.
type NavigationConfig struct {
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`
	StartFolderID  int64         `json:"start_folder_id" mapstructure:"start_folder_id"`
}

// UploadConfig controls upload batches.
type UploadConfig struct {
	MaxConcurrent int   `json:"max_concurrent" mapstructure:"max_concurrent"`
	MaxFileSize   int64 `json:"max_file_size" mapstructure:"max_file_size"` // bytes
}

// StorageConfig for local file paths.
type StorageConfig struct {
	DataDir      string `json:"data_dir" mapstructure:"data_dir"`           // Base directory for all data
	StateDir     string `json:"state_dir" mapstructure:"state_dir"`         // Session state
	DownloadDir  string `json:"download_dir" mapstructure:"download_dir"`   // Downloaded files
	StateBackend string `json:"state_backend" mapstructure:"state_backend"` // json, sqlite, memory
	OnConflict   string `json:"on_conflict" mapstructure:"on_conflict"`     // rename, overwrite, error, skip

	MaxDownloadSize int64 `json:"max_download_size" mapstructure:"max_download_size"` // bytes
}

// ChangesConfig for the WebSocket change feed.
type ChangesConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
}

// MetricsConfig for the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stderr)
	Color  bool   `json:"color" mapstructure:"color"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".filedeck"

	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:5089/api/filesystem",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			UserAgent:  "filedeck/1.0",
		},
		Navigation: NavigationConfig{
			RequestTimeout: 30 * time.Second,
			StartFolderID:  1,
		},
		Upload: UploadConfig{
			MaxConcurrent: 4,
			MaxFileSize:   100 * 1024 * 1024, // 100MB
		},
		Storage: StorageConfig{
			DataDir:      dataDir,
			StateDir:     filepath.Join(dataDir, "state"),
			DownloadDir:  "downloads",
			StateBackend: "json",
			OnConflict:   "rename",

			MaxDownloadSize: 1 << 30, // 1GiB
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Color:  true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}

	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must not be negative")
	}

	if c.Navigation.RequestTimeout <= 0 {
		return errors.New("navigation.request_timeout must be positive")
	}

	if c.Navigation.StartFolderID <= 0 {
		return errors.New("navigation.start_folder_id must be positive")
	}

	if c.Upload.MaxConcurrent <= 0 {
		return errors.New("upload.max_concurrent must be positive")
	}

	if c.Upload.MaxFileSize <= 0 {
		return errors.New("upload.max_file_size must be positive")
	}

	validBackends := map[string]bool{"json": true, "sqlite": true, "memory": true}
	if !validBackends[c.Storage.StateBackend] {
		return fmt.Errorf("invalid state backend: %s", c.Storage.StateBackend)
	}

	validConflicts := map[string]bool{"rename": true, "overwrite": true, "error": true, "skip": true}
	if !validConflicts[c.Storage.OnConflict] {
		return fmt.Errorf("invalid storage.on_conflict: %s", c.Storage.OnConflict)
	}

	if c.Storage.MaxDownloadSize <= 0 {
		return errors.New("storage.max_download_size must be positive")
	}

	if c.Changes.Enabled && c.Changes.URL == "" {
		return errors.New("changes.url is required when changes are enabled")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.Storage.StateDir,
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
