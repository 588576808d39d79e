package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Env             string
	PostgresConnStr string
	RedisAddr       string
	PageSize        int
	FeedCacheTTL    time.Duration
	LoginURL        string
	JWTSecret       string
	UploadDir       string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		PageSize:        getEnvInt("PAGE_SIZE", 10),
		FeedCacheTTL:    getEnvDuration("FEED_CACHE_TTL", 20*time.Second),
		LoginURL:        getEnv("LOGIN_URL", "/auth/login/"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
