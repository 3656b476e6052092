package config

import (
	"fmt"
	"os"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Vision     VisionConfig     `mapstructure:"vision"`
	Events     EventsConfig     `mapstructure:"events"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
}

type DatabaseConfig struct {
	DSN                  string `mapstructure:"dsn"`
	Slaves               string `mapstructure:"slaves"`
	MaxOpenConns         int    `mapstructure:"max_open_conns"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec   int    `mapstructure:"conn_max_lifetime_sec"`
	ConnectRetries       int    `mapstructure:"connect_retries"`
	ConnectRetryDelaySec int    `mapstructure:"connect_retry_delay_sec"`
}

type MigrationsConfig struct {
	Path string `mapstructure:"path"`
}

type StorageConfig struct {
	Type       string `mapstructure:"type"`
	LocalPath  string `mapstructure:"local_path"`
	GalleryDir string `mapstructure:"gallery_dir"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type IngestConfig struct {
	MaxUploadSizeMB int      `mapstructure:"max_upload_size_mb"`
	AllowedTypes    []string `mapstructure:"allowed_types"`
	LargeWidth      int      `mapstructure:"large_width"`
	MediumWidth     int      `mapstructure:"medium_width"`
	ThumbnailWidth  int      `mapstructure:"thumbnail_width"`
	OutputQuality   int      `mapstructure:"output_quality"`
}

type VisionConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	Style        string `mapstructure:"style"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
	MaxDimension int    `mapstructure:"max_dimension"`
}

type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("storage_type", appConfig.Storage.Type).
		Int("max_upload_size_mb", appConfig.Ingest.MaxUploadSizeMB).
		Bool("vision_key_configured", appConfig.Vision.APIKey != "").
		Msg("Config loaded successfully")

	return appConfig, nil
}

// validateConfig fails fast at bootstrap; a missing vision API key is not an
// error because the pipeline has a deterministic fallback for that case.
func validateConfig(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be non-negative")
	}

	if cfg.Migrations.Path == "" {
		return fmt.Errorf("migrations.path is required")
	}

	if cfg.Storage.Type != "local" && cfg.Storage.Type != "s3" {
		return fmt.Errorf("storage.type must be 'local' or 's3'")
	}
	if cfg.Storage.Type == "local" && cfg.Storage.LocalPath == "" {
		return fmt.Errorf("storage.local_path is required for local storage")
	}
	if cfg.Storage.Type == "s3" {
		if cfg.Storage.S3Endpoint == "" {
			return fmt.Errorf("storage.s3_endpoint is required for s3 storage")
		}
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
		if cfg.Storage.S3AccessKey == "" || cfg.Storage.S3SecretKey == "" {
			return fmt.Errorf("storage.s3_access_key and storage.s3_secret_key are required for s3 storage")
		}
	}

	if cfg.Ingest.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("ingest.max_upload_size_mb must be positive")
	}
	if len(cfg.Ingest.AllowedTypes) == 0 {
		return fmt.Errorf("ingest.allowed_types must contain at least one content type")
	}
	if cfg.Ingest.LargeWidth <= 0 || cfg.Ingest.MediumWidth <= 0 || cfg.Ingest.ThumbnailWidth <= 0 {
		return fmt.Errorf("ingest rendition widths must be positive")
	}
	if cfg.Ingest.OutputQuality <= 0 || cfg.Ingest.OutputQuality > 100 {
		return fmt.Errorf("ingest.output_quality must be in (0, 100]")
	}

	if cfg.Vision.BaseURL == "" {
		return fmt.Errorf("vision.base_url is required")
	}
	if cfg.Vision.Model == "" {
		return fmt.Errorf("vision.model is required")
	}
	if cfg.Vision.TimeoutSec <= 0 {
		return fmt.Errorf("vision.timeout_sec must be positive")
	}
	if cfg.Vision.MaxDimension <= 0 {
		return fmt.Errorf("vision.max_dimension must be positive")
	}

	if cfg.Events.Enabled {
		if len(cfg.Events.Brokers) == 0 {
			return fmt.Errorf("events.brokers must contain at least one broker when events are enabled")
		}
		if cfg.Events.Topic == "" {
			return fmt.Errorf("events.topic is required when events are enabled")
		}
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}
