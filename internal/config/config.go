package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Sync      SyncConfig      `mapstructure:"sync"`
	Probe     ProbeConfig     `mapstructure:"probe"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type SyncConfig struct {
	CloudURL       string        `mapstructure:"cloud_url"`
	Interval       time.Duration `mapstructure:"interval_seconds"`
	RetryDelay     time.Duration `mapstructure:"retry_delay_seconds"`
	RequestTimeout time.Duration `mapstructure:"request_timeout_seconds"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BatchSize      int           `mapstructure:"batch_size"`
	ArchiveDir     string        `mapstructure:"archive_dir"`
}

type ProbeConfig struct {
	Target          string        `mapstructure:"target"`
	Interval        time.Duration `mapstructure:"interval_seconds"`
	OfflineInterval time.Duration `mapstructure:"offline_interval_seconds"`
	Timeout         time.Duration `mapstructure:"timeout_seconds"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("CLASSROOM")
	viper.AutomaticEnv()

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Database
	viper.BindEnv("database.path", "DATABASE_PATH")

	// Sync / Probe
	viper.BindEnv("sync.cloud_url", "CLOUD_DB_URL")
	viper.BindEnv("probe.target", "PROBE_TARGET")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.path", "db/classroom.db")
	viper.SetDefault("sync.cloud_url", "http://your-cloud-api.com/api")
	viper.SetDefault("sync.interval_seconds", 60)
	viper.SetDefault("sync.retry_delay_seconds", 5)
	viper.SetDefault("sync.request_timeout_seconds", 10)
	viper.SetDefault("sync.max_retries", 3)
	viper.SetDefault("sync.batch_size", 100)
	viper.SetDefault("sync.archive_dir", "archives")
	viper.SetDefault("probe.target", "http://8.8.8.8")
	viper.SetDefault("probe.interval_seconds", 30)
	viper.SetDefault("probe.offline_interval_seconds", 60)
	viper.SetDefault("probe.timeout_seconds", 5)
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_path", "uploads")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// *_seconds 字段按秒配置
	cfg.Sync.Interval *= time.Second
	cfg.Sync.RetryDelay *= time.Second
	cfg.Sync.RequestTimeout *= time.Second
	cfg.Probe.Interval *= time.Second
	cfg.Probe.OfflineInterval *= time.Second
	cfg.Probe.Timeout *= time.Second

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
