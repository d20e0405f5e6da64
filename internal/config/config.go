package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal = "local"
	StorageS3    = "s3"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	// Database
	DBDriver          string        `mapstructure:"db_driver"`
	DBHost            string        `mapstructure:"db_host"`
	DBPort            string        `mapstructure:"db_port"`
	DBUser            string        `mapstructure:"db_user"`
	DBPassword        string        `mapstructure:"db_password"`
	DBName            string        `mapstructure:"db_name"`
	DBSSLMode         string        `mapstructure:"db_sslmode"`
	DBPath            string        `mapstructure:"db_path"`
	DBConnectRetries  int           `mapstructure:"db_connect_retries"`
	DBConnectInterval time.Duration `mapstructure:"db_connect_interval"`

	// Server
	Port                   string `mapstructure:"port"`
	CORSOrigins            string `mapstructure:"cors_origins"`
	BodyLimitMB            int    `mapstructure:"body_limit_mb"`
	RateLimitPerMinute     int    `mapstructure:"rate_limit_per_minute"`
	AuthRateLimitPerMinute int    `mapstructure:"auth_rate_limit_per_minute"`

	// Media storage
	StorageBackend    string `mapstructure:"storage_backend"`
	MediaRoot         string `mapstructure:"media_root"`
	MediaURLPrefix    string `mapstructure:"media_url_prefix"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3Region          string `mapstructure:"s3_region"`
	S3Bucket          string `mapstructure:"s3_bucket"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3UsePathStyle    bool   `mapstructure:"s3_use_path_style"`
	ImageMaxDimension int    `mapstructure:"image_max_dimension"`

	// Token cache
	CacheBackend   string        `mapstructure:"cache_backend"`
	CacheRedisAddr string        `mapstructure:"cache_redis_addr"`
	TokenCacheTTL  time.Duration `mapstructure:"token_cache_ttl"`

	// Observability
	LogLevel         string `mapstructure:"log_level"`
	LogRetentionDays int    `mapstructure:"log_retention_days"`
	DBLogSink        bool   `mapstructure:"db_log_sink"`
	SentryDSN        string `mapstructure:"sentry_dsn"`
	AppEnv           string `mapstructure:"app_env"`
}

// Load reads configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "recipe_db")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_path", "./data/recipe.db")
	v.SetDefault("db_connect_retries", 30)
	v.SetDefault("db_connect_interval", "1s")

	v.SetDefault("port", "8080")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("body_limit_mb", 10)
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("auth_rate_limit_per_minute", 10)

	v.SetDefault("storage_backend", StorageLocal)
	v.SetDefault("media_root", "./data/media")
	v.SetDefault("media_url_prefix", "/media")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_access_key_id", "")
	v.SetDefault("s3_secret_access_key", "")
	v.SetDefault("s3_use_path_style", true)
	v.SetDefault("image_max_dimension", 2048)

	v.SetDefault("cache_backend", CacheMemory)
	v.SetDefault("cache_redis_addr", "localhost:6379")
	v.SetDefault("token_cache_ttl", "5m")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_retention_days", 30)
	v.SetDefault("db_log_sink", true)
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("app_env", "development")
}

// Validate rejects combinations that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required for postgres")
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.MediaRoot == "" {
			return errors.New("MEDIA_ROOT is required for local storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.ImageMaxDimension < 0 {
		return errors.New("IMAGE_MAX_DIMENSION must not be negative")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
