package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Incidents   IncidentsConfig
	Attachments AttachmentsConfig
	Exports     ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IncidentsConfig carries the fallback values substituted for omitted
// incident fields and the cache tuning for aggregate reads.
type IncidentsConfig struct {
	DefaultCategoryID int
	DefaultLocationID int
	DefaultTime       string
	InitialStatusID   int
	DefaultCreatedBy  int64
	CacheTTL          time.Duration
}

// AttachmentsConfig controls attachment storage & validation.
type AttachmentsConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// ExportsConfig configures asynchronous incident export generation.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Incidents = IncidentsConfig{
		DefaultCategoryID: v.GetInt("INCIDENT_DEFAULT_CATEGORY_ID"),
		DefaultLocationID: v.GetInt("INCIDENT_DEFAULT_LOCATION_ID"),
		DefaultTime:       v.GetString("INCIDENT_DEFAULT_TIME"),
		InitialStatusID:   v.GetInt("INCIDENT_INITIAL_STATUS_ID"),
		DefaultCreatedBy:  v.GetInt64("INCIDENT_DEFAULT_CREATED_BY"),
		CacheTTL:          parseDuration(v.GetString("INCIDENT_CACHE_TTL"), 5*time.Minute),
	}

	maxAttachmentSize := v.GetInt64("ATTACHMENTS_MAX_FILE_SIZE")
	if maxAttachmentSize <= 0 {
		maxAttachmentSize = 10 * 1024 * 1024
	}
	cfg.Attachments = AttachmentsConfig{
		StorageDir:       v.GetString("ATTACHMENTS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("ATTACHMENTS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("ATTACHMENTS_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxAttachmentSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("ATTACHMENTS_ALLOWED_MIME_TYPES")),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "safeguard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("INCIDENT_DEFAULT_CATEGORY_ID", 1)
	v.SetDefault("INCIDENT_DEFAULT_LOCATION_ID", 1)
	v.SetDefault("INCIDENT_DEFAULT_TIME", "12:00:00")
	v.SetDefault("INCIDENT_INITIAL_STATUS_ID", 1)
	v.SetDefault("INCIDENT_DEFAULT_CREATED_BY", 1)
	v.SetDefault("INCIDENT_CACHE_TTL", "5m")

	v.SetDefault("ATTACHMENTS_STORAGE_DIR", "./attachments")
	v.SetDefault("ATTACHMENTS_SIGNED_URL_SECRET", "dev_attachments_secret")
	v.SetDefault("ATTACHMENTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("ATTACHMENTS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("ATTACHMENTS_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png,application/vnd.openxmlformats-officedocument.wordprocessingml.document")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
