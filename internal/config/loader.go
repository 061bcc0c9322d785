package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (FILEDECK_API_BASE_URL, ...).
const EnvPrefix = "FILEDECK"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	v          *viper.Viper
}

// NewLoader creates a config loader.
func NewLoader(configPath string) *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	return &Loader{
		configPath: configPath,
		v:          v,
	}
}

// Override sets a value that takes precedence over file and environment.
func (l *Loader) Override(key string, value interface{}) {
	l.v.Set(key, value)
}

// ConfigFile returns the file the configuration was read from, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Load reads configuration from file and environment.
func (l *Loader) Load() (*Config, error) {
	// A .env file in the working directory fills in unset variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		l.v.SetConfigName("filedeck")
		for _, dir := range l.defaultPaths() {
			l.v.AddConfigPath(dir)
		}
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file %s: %w", l.v.ConfigFileUsed(), err)
			}
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	// State dir follows a relocated data dir unless set explicitly.
	defaults := DefaultConfig()
	if cfg.Storage.DataDir != defaults.Storage.DataDir && cfg.Storage.StateDir == defaults.Storage.StateDir {
		cfg.Storage.StateDir = filepath.Join(cfg.Storage.DataDir, "state")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "filedeck"),
			filepath.Join(homeDir, ".filedeck"),
		)
	}

	return paths
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.token", cfg.API.Token)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("navigation.request_timeout", cfg.Navigation.RequestTimeout)
	v.SetDefault("navigation.start_folder_id", cfg.Navigation.StartFolderID)

	v.SetDefault("upload.max_concurrent", cfg.Upload.MaxConcurrent)
	v.SetDefault("upload.max_file_size", cfg.Upload.MaxFileSize)

	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.state_dir", cfg.Storage.StateDir)
	v.SetDefault("storage.download_dir", cfg.Storage.DownloadDir)
	v.SetDefault("storage.state_backend", cfg.Storage.StateBackend)
	v.SetDefault("storage.on_conflict", cfg.Storage.OnConflict)
	v.SetDefault("storage.max_download_size", cfg.Storage.MaxDownloadSize)

	v.SetDefault("changes.enabled", cfg.Changes.Enabled)
	v.SetDefault("changes.url", cfg.Changes.URL)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.color", cfg.Log.Color)
}
