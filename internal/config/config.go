package config

import (
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	BaseURL string

	Storage StorageConfig
	SMTP    SMTPConfig
}

// StorageConfig controls where uploads land and how nodes are sized.
type StorageConfig struct {
	ContentDir          string
	DefaultNodeCapacity datasize.ByteSize
	MaxUploadSize       datasize.ByteSize
	InlinePreviewLimit  datasize.ByteSize
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		Storage: StorageConfig{
			ContentDir:          getEnv("CONTENT_DIR", "./data/uploads"),
			DefaultNodeCapacity: getSize("DEFAULT_NODE_CAPACITY", datasize.GB),
			MaxUploadSize:       getSize("MAX_UPLOAD_SIZE", 32*datasize.MB),
			InlinePreviewLimit:  getSize("INLINE_PREVIEW_LIMIT", 200*datasize.KB),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getSize parses values like "1GB" or "200KB"; malformed input falls back.
func getSize(key string, fallback datasize.ByteSize) datasize.ByteSize {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	size, err := datasize.ParseString(value)
	if err != nil {
		return fallback
	}
	return size
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
