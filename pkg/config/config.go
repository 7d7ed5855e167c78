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

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Mail     MailConfig
	Uploads  UploadsConfig
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

// AuthConfig carries the signing secrets and lifetimes for each token kind.
// Access and email tokens share the 256-bit secret (HS256); refresh tokens
// sign with a separate 512-bit secret (HS512) so kinds are not interchangeable.
type AuthConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessExpiry   time.Duration
	RefreshExpiry  time.Duration
	EmailExpiry    time.Duration
	Issuer         string
	BlacklistPrune time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig configures the SMTP relay used for confirmation emails.
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// UploadsConfig controls photo storage and validation.
type UploadsConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	ThumbnailSize    int
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

	cfg.Auth = AuthConfig{
		AccessSecret:   v.GetString("AUTH_ACCESS_SECRET"),
		RefreshSecret:  v.GetString("AUTH_REFRESH_SECRET"),
		AccessExpiry:   parseDuration(v.GetString("AUTH_ACCESS_EXPIRY"), 24*time.Hour),
		RefreshExpiry:  parseDuration(v.GetString("AUTH_REFRESH_EXPIRY"), 7*24*time.Hour),
		EmailExpiry:    parseDuration(v.GetString("AUTH_EMAIL_EXPIRY"), 12*time.Hour),
		Issuer:         v.GetString("AUTH_ISSUER"),
		BlacklistPrune: parseDuration(v.GetString("AUTH_BLACKLIST_PRUNE_INTERVAL"), time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		Enabled:  v.GetBool("MAIL_ENABLED"),
		Host:     v.GetString("MAIL_HOST"),
		Port:     v.GetInt("MAIL_PORT"),
		Username: v.GetString("MAIL_USER"),
		Password: v.GetString("MAIL_PASS"),
		From:     v.GetString("MAIL_FROM"),
		BaseURL:  v.GetString("MAIL_BASE_URL"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 24*time.Hour),
		MaxFileSizeBytes: maxUploadSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
		ThumbnailSize:    v.GetInt("UPLOADS_THUMBNAIL_SIZE"),
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
	v.SetDefault("DB_NAME", "photoshare")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_ACCESS_SECRET", "dev_secret_256")
	v.SetDefault("AUTH_REFRESH_SECRET", "dev_secret_512")
	v.SetDefault("AUTH_ACCESS_EXPIRY", "24h")
	v.SetDefault("AUTH_REFRESH_EXPIRY", "168h")
	v.SetDefault("AUTH_EMAIL_EXPIRY", "12h")
	v.SetDefault("AUTH_ISSUER", "photoshare-api")
	v.SetDefault("AUTH_BLACKLIST_PRUNE_INTERVAL", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("MAIL_HOST", "localhost")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USER", "")
	v.SetDefault("MAIL_PASS", "")
	v.SetDefault("MAIL_FROM", "noreply@photoshare.local")
	v.SetDefault("MAIL_BASE_URL", "http://localhost:8080")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "24h")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/gif,image/webp")
	v.SetDefault("UPLOADS_THUMBNAIL_SIZE", 256)
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
