package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Blob backends.
const (
	BlobLocal    = "local"
	BlobSupabase = "supabase"
	BlobGCS      = "gcs"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Storage
	StoreBackend   string
	DatabaseDSN    string
	DBMaxOpenConns int
	RunMigrations  bool

	// Redis (cache + numbering lock). Empty disables both.
	RedisAddress string
	CacheTTL     time.Duration
	LockTTL      time.Duration

	// Documents
	BlobBackend    string
	UploadDir      string
	MaxUploadBytes int64

	// Supabase Storage
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	// Google Cloud Storage
	GCSBucket          string
	GCSCredentialsFile string

	// Domain events. Empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	// HTTP
	CORSAllowedOrigins []string

	// Rendering
	CompanyName        string
	CompanyAddress     string
	CompanyTIN         string
	CompanyPhone       string
	CompanyBankAccount string

	// Profile
	DefaultPhoneRegion string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:   getEnv("STORE_BACKEND", StoreMemory),
		DatabaseDSN:    getEnv("DATABASE_DSN", ""),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
		RunMigrations:  getEnvBool("RUN_MIGRATIONS", true),

		RedisAddress: getEnv("REDIS_ADDRESS", ""),
		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
		LockTTL:      getEnvDuration("LOCK_TTL", 10*time.Second),

		BlobBackend:    getEnv("BLOB_BACKEND", BlobLocal),
		UploadDir:      getEnv("UPLOAD_DIR", "./media"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 1<<20)),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "documents"),

		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finbackend.events"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret:     getEnv("JWT_SECRET", "finbackend-default-dev-secret-change-me"),
		JWTAccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 60*time.Minute),
		JWTRefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 24*time.Hour),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		CompanyName:        getEnv("COMPANY_NAME", "GINYE NIFFER"),
		CompanyAddress:     getEnv("COMPANY_ADDRESS", "P.O.BOX 13275, DAR ES SALAAM"),
		CompanyTIN:         getEnv("COMPANY_TIN", ""),
		CompanyPhone:       getEnv("COMPANY_PHONE", ""),
		CompanyBankAccount: getEnv("COMPANY_BANK_ACCOUNT", ""),

		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "TZ"),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreMySQL:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORE_BACKEND=%s", StoreMySQL)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.BlobBackend {
	case BlobLocal:
	case BlobSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required when BLOB_BACKEND=%s", BlobSupabase)
		}
	case BlobGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when BLOB_BACKEND=%s", BlobGCS)
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
