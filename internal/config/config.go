package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Dedup policies understood by the validator.
const (
	DedupBroad  = "broad"
	DedupStrict = "strict"
	DedupOff    = "off"
)

// Config holds all application configuration
type Config struct {
	LogLevel string

	Parser   ParserConfig
	Pipeline PipelineConfig
	Server   ServerConfig
}

type ParserConfig struct {
	// CategoriesFile is a JSON or YAML category catalog. Empty means the
	// embedded catalog.
	CategoriesFile string
	// DefaultDialect skips detection when set.
	DefaultDialect string
}

type PipelineConfig struct {
	BasePath           string
	Workers            int
	LargeAmountCeiling int64
	DedupPolicy        string
}

type ServerConfig struct {
	Addr           string
	MetricsEnabled bool
	MaxUploadBytes int
}

// Load reads configuration from environment variables. Variables are first
// loaded from the given .env files, or from ./.env when none are given and
// it exists. Values already present in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Parser: ParserConfig{
			CategoriesFile: getEnv("CATEGORIES_FILE", ""),
			DefaultDialect: getEnv("STATEMENT_DIALECT", ""),
		},
		Pipeline: PipelineConfig{
			BasePath:           getEnv("STATEMENTS_BASE_PATH", "statements"),
			Workers:            getEnvAsInt("WORKERS", 4),
			LargeAmountCeiling: int64(getEnvAsInt("LARGE_AMOUNT_CEILING", 50000)),
			DedupPolicy:        strings.ToLower(getEnv("DEDUP_POLICY", DedupBroad)),
		},
		Server: ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":8080"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MaxUploadBytes: getEnvAsInt("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Pipeline.DedupPolicy {
	case DedupBroad, DedupStrict, DedupOff:
	default:
		return fmt.Errorf("DEDUP_POLICY must be one of %s, %s, %s; got %q",
			DedupBroad, DedupStrict, DedupOff, c.Pipeline.DedupPolicy)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.LargeAmountCeiling <= 0 {
		return fmt.Errorf("LARGE_AMOUNT_CEILING must be positive, got %d", c.Pipeline.LargeAmountCeiling)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
