package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/yungbote/tabula-backend/internal/data/db"
	"github.com/yungbote/tabula-backend/internal/observability"
	"github.com/yungbote/tabula-backend/internal/platform/objectstore"
	"github.com/yungbote/tabula-backend/internal/platform/redis"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port            string        `env:"PORT" envDefault:"5000"`
	LogMode         string        `env:"LOG_MODE" envDefault:"development"`
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	Version         string        `env:"APP_VERSION" envDefault:"dev"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	JWTSecretKey          string `env:"JWT_SECRET_KEY" envDefault:"defaultsecret"`
	AccessTokenTTLSeconds int    `env:"ACCESS_TOKEN_TTL" envDefault:"3600"`

	DBDriver         string        `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string        `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string        `env:"POSTGRES_PASSWORD"`
	PostgresName     string        `env:"POSTGRES_NAME" envDefault:"tabula"`
	PostgresSSLMode  string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath       string        `env:"SQLITE_PATH" envDefault:"tabula.db"`
	DBMaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBMaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBSlowQuery      time.Duration `env:"DB_SLOW_QUERY" envDefault:"200ms"`
	DBAutoMigrate    bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	MaxUploadBytes     int64    `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	AggregateCacheTTL time.Duration `env:"AGGREGATE_CACHE_TTL" envDefault:"10m"`

	ArchiveBackend     string `env:"ARCHIVE_BACKEND" envDefault:"none"`
	ArchiveBucket      string `env:"ARCHIVE_BUCKET"`
	ArchivePrefix      string `env:"ARCHIVE_PREFIX" envDefault:"datasets"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
	GCSEmulatorHost    string `env:"STORAGE_EMULATOR_HOST"`
	S3Region           string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	S3AccessKey        string `env:"S3_ACCESS_KEY"`
	S3SecretKey        string `env:"S3_SECRET_KEY"`
	S3UsePathStyle     bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	OtelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtelServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"tabula"`
	OtelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	OtelSampleRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"0.1"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.AccessTokenTTLSeconds <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %d", c.AccessTokenTTLSeconds)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be negative, got %d", c.MaxUploadBytes)
	}
	return nil
}

func (c Config) UsesDefaultJWTSecret() bool { return c.JWTSecretKey == defaultJWTSecret }

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSeconds) * time.Second
}

func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) DBConfig() db.Config {
	return db.Config{
		Driver:      c.DBDriver,
		DatabaseURL: c.DatabaseURL,
		Host:        c.PostgresHost,
		Port:        c.PostgresPort,
		User:        c.PostgresUser,
		Password:    c.PostgresPassword,
		Name:        c.PostgresName,
		SSLMode:     c.PostgresSSLMode,
		SQLitePath:  c.SQLitePath,
		MaxOpen:     c.DBMaxOpenConns,
		MaxIdle:     c.DBMaxIdleConns,
		SlowQuery:   c.DBSlowQuery,
	}
}

func (c Config) ObjectStoreConfig() objectstore.Config {
	return objectstore.Config{
		Backend:            objectstore.Backend(c.ArchiveBackend),
		Bucket:             strings.TrimSpace(c.ArchiveBucket),
		GCSCredentialsFile: c.GCSCredentialsFile,
		GCSEmulatorHost:    c.GCSEmulatorHost,
		S3Region:           c.S3Region,
		S3Endpoint:         c.S3Endpoint,
		S3AccessKey:        c.S3AccessKey,
		S3SecretKey:        c.S3SecretKey,
		S3UsePathStyle:     c.S3UsePathStyle,
	}
}

func (c Config) RedisOptions() redis.Options {
	return redis.Options{
		Addr:     strings.TrimSpace(c.RedisAddr),
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TTL:      c.AggregateCacheTTL,
	}
}

func (c Config) OtelConfig() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.OtelEnabled,
		ServiceName: c.OtelServiceName,
		Environment: c.Environment,
		Version:     c.Version,
		Endpoint:    c.OtelEndpoint,
		Headers:     observability.ParseHeaders(c.OtelHeaders),
		Insecure:    c.OtelInsecure,
		SampleRatio: c.OtelSampleRatio,
	}
}
