package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config is the storefront process configuration, read from the environment
// with an optional .env file.
type Config struct {
	ListenAddr      string
	LogMode         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	APIBaseURL string
	APITimeout time.Duration

	BoltPath string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	SessionTTL time.Duration

	SensorInterval     time.Duration
	StatusInterval     time.Duration
	StatusMaxAttempts  int
	ConsultQuestionMax int
}

// Load reads the configuration. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogMode:         getEnv("LOG_MODE", "production"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:5000/api"),
		APITimeout: getDuration("API_TIMEOUT", 15*time.Second),

		BoltPath: getEnv("BOLT_PATH", "storefront.db"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      getDuration("CACHE_TTL", 24*time.Hour),

		SessionTTL: getDuration("SESSION_TTL", 2*time.Hour),

		SensorInterval:     getDuration("SENSOR_INTERVAL", 10*time.Second),
		StatusInterval:     getDuration("STATUS_INTERVAL", 5*time.Second),
		StatusMaxAttempts:  getInt("STATUS_MAX_ATTEMPTS", 24),
		ConsultQuestionMax: getInt("CONSULT_QUESTION_MAX", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return defaultValue
	}
	return n
}
