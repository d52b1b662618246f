package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultMatchesSource = "https://github.com/MaartenGr/boardgame/blob/master/files/matches.xlsx?raw=true"

type Config struct {
	DBPath    string
	OutputDir string

	MatchesSource string
	MatchesSheet  string

	HTTPTimeoutMs    int
	HTTPRateLimitRPS int
	HTTPMaxAttempts  int

	HTTPAddr           string
	CORSAllowedOrigins []string
	RefreshIntervalSec int

	LogLevel string

	SignificanceMinMatches int
	SignificanceAlpha      float64
	BreaksTopN             int
	ActivityBucketDays     int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "boardgame.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		MatchesSource: getEnv("MATCHES_SOURCE", DefaultMatchesSource),
		MatchesSheet:  getEnv("MATCHES_SHEET", ""),

		HTTPTimeoutMs:    getEnvInt("HTTP_TIMEOUT_MS", 30000),
		HTTPRateLimitRPS: getEnvInt("HTTP_RATE_LIMIT_RPS", 5),
		HTTPMaxAttempts:  getEnvInt("HTTP_MAX_ATTEMPTS", 5),

		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RefreshIntervalSec: getEnvInt("REFRESH_INTERVAL_SEC", 600),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		SignificanceMinMatches: getEnvInt("SIGNIFICANCE_MIN_MATCHES", 15),
		SignificanceAlpha:      getEnvFloat("SIGNIFICANCE_ALPHA", 0.05),
		BreaksTopN:             getEnvInt("BREAKS_TOP_N", 5),
		ActivityBucketDays:     getEnvInt("ACTIVITY_BUCKET_DAYS", 3),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
