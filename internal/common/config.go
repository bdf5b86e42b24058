package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// Config holds all application configuration
type Config struct {
	Cache    CacheConfig
	Server   ServerConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Ingest   IngestConfig
	LogLevel string
}

// CacheConfig selects and configures the analysis cache backend
type CacheConfig struct {
	Backend            string
	SQLitePath         string
	DSN                string
	MaxConns           int32
	MinConns           int32
	MaxConnLifetime    time.Duration
	DialTimeout        time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	FirestoreProjectID string
}

// ServerConfig holds daemon listener configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Enabled     bool
	Binary      string
	Language    string
	TessdataDir string
	Timeout     time.Duration
}

// LLMConfig holds remote provider configuration
type LLMConfig struct {
	Preference string

	OpenAIModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	GeminiModel  string
	GeminiAPIKey string

	VertexProjectID string
	VertexRegion    string
	VertexModel     string

	Temperature float32
	Timeout     time.Duration
}

// IngestConfig holds the daemon inbox configuration
type IngestConfig struct {
	InboxDir    string
	DocType     string
	AllowRemote bool
	Workers     int
	QueueSize   int
}

// LoadDotEnv loads a .env file when present. A missing file is not an error.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:            strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			SQLitePath:         getEnv("SQLITE_PATH", "./inventory-cache.db"),
			DSN:                getEnv("DB_URL", ""),
			MaxConns:           getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:           getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:    getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:        getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:      getEnv("REDIS_PASSWORD", ""),
			RedisDB:            getEnvAsInt("REDIS_DB", 0),
			FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		OCR: OCRConfig{
			Enabled:     getEnvAsBool("OCR_ENABLED", true),
			Binary:      getEnv("TESSERACT_BIN", "tesseract"),
			Language:    getEnv("TESSERACT_LANG", "spa"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			Preference:      getEnv("AI_PROVIDER_PREFERENCE", constants.DefaultProviderPreference),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			VertexProjectID: getEnv("VERTEX_PROJECT_ID", ""),
			VertexRegion:    getEnv("VERTEX_REGION", ""),
			VertexModel:     getEnv("VERTEX_MODEL", "gemini-1.5-flash-002"),
			Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Ingest: IngestConfig{
			InboxDir:    getEnv("INBOX_DIR", "./inbox"),
			DocType:     getEnv("INBOX_DOC_TYPE", string(constants.DocTransactionOutcome)),
			AllowRemote: getEnvAsBool("INBOX_ALLOW_REMOTE", true),
			Workers:     getEnvAsInt("INBOX_WORKERS", 2),
			QueueSize:   getEnvAsInt("INBOX_QUEUE_SIZE", 100),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory":
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			return NewAppError("CONFIG_ERROR", "SQLITE_PATH is required for the sqlite cache", ErrInvalidInput)
		}
	case "postgres":
		if c.Cache.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres cache", ErrInvalidInput)
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return NewAppError("CONFIG_ERROR", "REDIS_ADDR is required for the redis cache", ErrInvalidInput)
		}
	case "firestore":
		if c.Cache.FirestoreProjectID == "" {
			return NewAppError("CONFIG_ERROR", "FIRESTORE_PROJECT_ID is required for the firestore cache", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown CACHE_BACKEND "+c.Cache.Backend, ErrInvalidInput)
	}
	if c.OCR.Enabled && c.OCR.Binary == "" {
		return NewAppError("CONFIG_ERROR", "TESSERACT_BIN is required when OCR is enabled", ErrInvalidInput)
	}
	if (c.LLM.VertexProjectID == "") != (c.LLM.VertexRegion == "") {
		return NewAppError("CONFIG_ERROR", "VERTEX_PROJECT_ID and VERTEX_REGION must be set together", ErrInvalidInput)
	}
	return nil
}
