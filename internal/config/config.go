package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pharmacare/backend/internal/snapshot"
)

type Config struct {
	Port             string
	AllowedOrigin    string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	AutosavePath     string
	AutosaveInterval time.Duration
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	interval, err := strconv.Atoi(getEnv("AUTOSAVE_INTERVAL_SECONDS", "300"))
	if err != nil || interval < 1 {
		interval = 300
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		AutosavePath:     getEnv("AUTOSAVE_PATH", snapshot.DefaultPath()),
		AutosaveInterval: time.Duration(interval) * time.Second,
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
