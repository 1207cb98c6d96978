package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags "-X .../config.Version=...".
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Downloads DownloadsConfig `mapstructure:"downloads" yaml:"downloads"`
	Catalog   CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DownloadsConfig holds download scheduler configuration.
type DownloadsConfig struct {
	Path             string        `mapstructure:"path" yaml:"path"`
	MaxConcurrent    int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	MaxRetries       int           `mapstructure:"max_retries" yaml:"max_retries"`
	AutoStart        bool          `mapstructure:"auto_start" yaml:"auto_start"`
	ProgressInterval time.Duration `mapstructure:"progress_interval" yaml:"progress_interval"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// CatalogConfig holds remote catalog configuration.
type CatalogConfig struct {
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
	Collection        string  `mapstructure:"collection" yaml:"collection"`
	PageSize          int     `mapstructure:"page_size" yaml:"page_size"`
	SyncCron          string  `mapstructure:"sync_cron" yaml:"sync_cron"`
	SyncOnStart       bool    `mapstructure:"sync_on_start" yaml:"sync_on_start"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MetadataWorkers   int     `mapstructure:"metadata_workers" yaml:"metadata_workers"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/reelvault.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Downloads: DownloadsConfig{
			Path:             "./downloads",
			MaxConcurrent:    2,
			MaxRetries:       3,
			AutoStart:        true,
			ProgressInterval: 500 * time.Millisecond,
			ConnectTimeout:   30 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://archive.org",
			Collection:        "feature_films",
			PageSize:          100,
			SyncCron:          "0 3 * * *",
			RequestsPerSecond: 4,
			MetadataWorkers:   4,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.reelvault")
	}

	// Environment variable settings
	v.SetEnvPrefix("REELVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default so that every key is known to viper and can be
// overridden from the environment.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("downloads.path", d.Downloads.Path)
	v.SetDefault("downloads.max_concurrent", d.Downloads.MaxConcurrent)
	v.SetDefault("downloads.max_retries", d.Downloads.MaxRetries)
	v.SetDefault("downloads.auto_start", d.Downloads.AutoStart)
	v.SetDefault("downloads.progress_interval", d.Downloads.ProgressInterval)
	v.SetDefault("downloads.connect_timeout", d.Downloads.ConnectTimeout)

	v.SetDefault("catalog.base_url", d.Catalog.BaseURL)
	v.SetDefault("catalog.collection", d.Catalog.Collection)
	v.SetDefault("catalog.page_size", d.Catalog.PageSize)
	v.SetDefault("catalog.sync_cron", d.Catalog.SyncCron)
	v.SetDefault("catalog.sync_on_start", d.Catalog.SyncOnStart)
	v.SetDefault("catalog.requests_per_second", d.Catalog.RequestsPerSecond)
	v.SetDefault("catalog.metadata_workers", d.Catalog.MetadataWorkers)
}

// Validate checks value ranges that the rest of the application relies on.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Downloads.Path == "" {
		errs = append(errs, errors.New("downloads.path is required"))
	}
	if c.Downloads.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("downloads.max_concurrent must be at least 1, got %d", c.Downloads.MaxConcurrent))
	}
	if c.Downloads.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("downloads.max_retries must not be negative, got %d", c.Downloads.MaxRetries))
	}
	if c.Catalog.PageSize < 1 {
		errs = append(errs, fmt.Errorf("catalog.page_size must be at least 1, got %d", c.Catalog.PageSize))
	}
	if c.Catalog.MetadataWorkers < 1 {
		errs = append(errs, fmt.Errorf("catalog.metadata_workers must be at least 1, got %d", c.Catalog.MetadataWorkers))
	}

	return errors.Join(errs...)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
