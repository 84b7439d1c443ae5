package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string

	// Redis Configuration (event relay broker, rate limiting, asynq)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Document store processing
	FileStorageDir      string
	MaxFileSize         int64
	MaxChunkSize        int
	ChunkOverlap        int
	PreviewPageLimit    int
	ChunkPageSize       int
	WorkerConcurrency   int
	StuckStateThreshold int // minutes before a SYNCING/UPSERTING store is reported

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Embeddings configuration
	GeminiAPIKey          string
	GoogleEmbeddingsModel string

	// Tracing
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/docstore_platform"),
		DBName:      getEnv("DB_NAME", "docstore_platform"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./storage"),
		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
		MaxChunkSize:        getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 200),
		PreviewPageLimit:    getEnvInt("PREVIEW_PAGE_LIMIT", 3),
		ChunkPageSize:       getEnvInt("CHUNK_PAGE_SIZE", 50),
		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 20),
		StuckStateThreshold: getEnvInt("STUCK_STATE_THRESHOLD", 30),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
