package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	TMDBToken       string
	TMDBBaseURL     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	SearchDebounce  time.Duration
	TrendingLimit   int
	TrendingRefresh time.Duration
	CatalogTimeout  time.Duration
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
		TMDBToken:       strings.TrimSpace(os.Getenv("TMDB_API_TOKEN")),
		TMDBBaseURL:     getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		MongoURI:        strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:   getEnv("MONGO_DB", "moviescout"),
		MongoCollection: getEnv("MONGO_COLLECTION", "searches"),
		SearchDebounce:  time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 500)) * time.Millisecond,
		TrendingLimit:   getEnvInt("TRENDING_LIMIT", 5),
		TrendingRefresh: time.Duration(getEnvInt("TRENDING_REFRESH_MS", 15000)) * time.Millisecond,
		CatalogTimeout:  time.Duration(getEnvInt("CATALOG_TIMEOUT_MS", 10000)) * time.Millisecond,
	}
}

// Validate reports every missing required setting at once so a bad
// deployment fails on startup instead of on the first request.
func (c Config) Validate() error {
	var missing []string
	if c.TMDBToken == "" {
		missing = append(missing, "TMDB_API_TOKEN")
	}
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.SearchDebounce <= 0 {
		return errors.New("SEARCH_DEBOUNCE_MS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
