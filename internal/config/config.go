package config

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Environment string
	LogLevel    slog.Level

	ScriptPath  string // story script started by "new game"
	CatalogPath string // item definitions file
	SavePath    string // save file location for the file backend
	SaveBackend string // "file" or "redis"
	RedisURL    string
	ProfileID   string // stable player profile uuid for the redis backend
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		ScriptPath:  getEnv("SCRIPT_PATH", "data/scripts/intro.json"),
		CatalogPath: getEnv("CATALOG_PATH", "data/items/items.json"),
		SavePath:    getEnv("SAVE_PATH", "data/save_data.json"),
		SaveBackend: getEnv("SAVE_BACKEND", "file"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		ProfileID:   getEnv("PROFILE_ID", ""),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
