package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Session SessionConfig
	Events  EventsConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	LocalAccessSecret  string
}

type BackendConfig struct {
	APIBaseURL     string
	WorkerBaseURL  string
	RequestTimeout time.Duration
	MetadataCache  time.Duration
}

type SessionConfig struct {
	RedisURL string
	TTL      time.Duration
}

type EventsConfig struct {
	NatsURL      string
	RefreshTopic string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/freightchat.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			LocalAccessSecret:  getEnv("LOCAL_ACCESS_SECRET", ""),
		},
		Backend: BackendConfig{
			APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
			WorkerBaseURL:  strings.TrimRight(getEnv("WORKER_BASE_URL", "http://localhost:8001"), "/"),
			RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 90)) * time.Second,
			MetadataCache:  time.Duration(getEnvAsInt("METADATA_CACHE_SECONDS", 30)) * time.Second,
		},
		Session: SessionConfig{
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
			TTL:      time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 720)) * time.Minute,
		},
		Events: EventsConfig{
			NatsURL:      getEnv("NATS_URL", "nats://localhost:4222"),
			RefreshTopic: getEnv("REFRESH_TOPIC", "FREIGHTCHAT_REFRESH"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
