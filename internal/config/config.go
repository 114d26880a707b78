// Package config reads service settings from the environment
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dataset source kinds
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds every runtime setting
type Config struct {
	Port     string
	Env      string
	LogLevel string

	OpenWeatherAPIKey string
	WeatherBaseURL    string
	WeatherTimeout    time.Duration
	WeatherCacheTTL   time.Duration

	DatasetSource   string
	DatasetPath     string
	DatasetTable    string
	DatasetCacheTTL time.Duration

	DatabaseURL   string
	RunMigrations bool

	ModelPath    string
	MLServiceURL string

	KafkaBrokers []string
	KafkaTopic   string

	OverpassURL       string
	RoadLookupTimeout time.Duration

	GridPoints int
}

// Load reads .env when present, then the environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool) {
	found := godotenv.Load() == nil

	return &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("GO_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		WeatherBaseURL:    getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherTimeout:    getDuration("WEATHER_TIMEOUT", 5*time.Second),
		WeatherCacheTTL:   getDuration("WEATHER_CACHE_TTL", 10*time.Minute),

		DatasetSource:   strings.ToLower(getEnv("DATASET_SOURCE", SourceCSV)),
		DatasetPath:     getEnv("DATASET_PATH", "data"),
		DatasetTable:    getEnv("DATASET_TABLE", "accidents"),
		DatasetCacheTTL: getDuration("DATASET_CACHE_TTL", 30*time.Minute),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RunMigrations: getBool("RUN_MIGRATIONS", true),

		ModelPath:    getEnv("MODEL_PATH", "accident_prediction_model.json"),
		MLServiceURL: getEnv("ML_SERVICE_URL", ""),

		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "accident-events"),

		OverpassURL:       getEnv("OVERPASS_URL", ""),
		RoadLookupTimeout: getDuration("ROAD_LOOKUP_TIMEOUT", 3*time.Second),

		GridPoints: getInt("GRID_POINTS", 10),
	}, found
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
