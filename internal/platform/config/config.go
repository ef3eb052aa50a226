package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	Environment         string
	DatabaseURL         string
	RunMigrations       bool
	RunSeed             bool
	InsuranceConfigFile string
	DefaultCity         string
	JWTSecret           string
	MaxBodyBytes        int64
	BatchWorkers        int
	MaxBatchRows        int
	PayslipFontPath     string
	MetricsEnabled      bool
	ShutdownTimeout     time.Duration
	ScheduleReload      time.Duration
}

// Load reads the environment, after applying a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("load .env failed", "err", err)
	}
	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		Environment:         getEnv("APP_ENV", "development"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:             getEnvBool("RUN_SEED", true),
		InsuranceConfigFile: getEnv("INSURANCE_CONFIG_FILE", ""),
		DefaultCity:         getEnv("DEFAULT_CITY", "杭州"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 8<<20)),
		BatchWorkers:        getEnvInt("BATCH_WORKERS", 4),
		MaxBatchRows:        getEnvInt("MAX_BATCH_ROWS", 10000),
		PayslipFontPath:     getEnv("PAYSLIP_FONT_PATH", ""),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ScheduleReload:      getEnvDuration("SCHEDULE_RELOAD_INTERVAL", 0),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("APP_ADDR is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.DatabaseURL != "" && c.InsuranceConfigFile != "" {
		return fmt.Errorf("DATABASE_URL and INSURANCE_CONFIG_FILE are mutually exclusive")
	}
	if strings.TrimSpace(c.DefaultCity) == "" {
		return fmt.Errorf("DEFAULT_CITY must not be empty")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive")
	}
	if c.MaxBatchRows <= 0 {
		return fmt.Errorf("MAX_BATCH_ROWS must be positive")
	}
	if c.ScheduleReload < 0 {
		return fmt.Errorf("SCHEDULE_RELOAD_INTERVAL must not be negative")
	}
	return nil
}
