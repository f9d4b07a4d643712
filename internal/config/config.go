package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Extractor selection values.
const (
	ExtractorHeuristic = "heuristic"
	ExtractorParser    = "parser"
)

type Config struct {
	// Database connection.
	DatabaseURL string

	// Schema scope. The advisor only attributes usage to, and creates
	// indexes in, these schemas.
	Schemas []string

	// Workload sampling thresholds.
	MinCalls      int64
	MinMeanTimeMS float64
	SampleLimit   int

	// Candidate generation.
	PatternsFile       string // optional path to composite-pattern YAML
	TopSuggestions     int
	RowCountAssumption float64

	// Creation.
	MaxCreate        int
	StatementTimeout time.Duration // zero disables the per-statement timeout

	// Extraction backend: "heuristic" (default) or "parser".
	Extractor string

	// Logging.
	LogLevel slog.Level

	// Observability.
	OTelEnabled bool

	// CLI-only fields (not settable via env vars).
	AuditLog string
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	DatabaseURL      *string
	Schemas          *string
	MinCalls         *int64
	MinMeanTimeMS    *float64
	SampleLimit      *int
	PatternsFile     *string
	TopSuggestions   *int
	MaxCreate        *int
	StatementTimeout *time.Duration
	Extractor        *string
	LogLevel         *string
	OTelEnabled      bool
	AuditLog         string
}

// Load builds a Config from environment variables, then applies CLI
// overrides, then validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values. The default
// schema set matches the CEDS warehouse layout this tool grew up on.
func defaults() *Config {
	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Schemas:            []string{"rds", "staging", "ceds"},
		MinCalls:           10,
		MinMeanTimeMS:      100,
		SampleLimit:        100,
		TopSuggestions:     50,
		RowCountAssumption: 1_000_000,
		MaxCreate:          20,
		Extractor:          ExtractorHeuristic,
	}
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config) error {
	if v := os.Getenv("SCHEMAS"); v != "" {
		cfg.Schemas = splitSchemas(v)
	}

	if v := os.Getenv("MIN_CALLS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid MIN_CALLS value %q: must be a non-negative integer", v)
		}
		cfg.MinCalls = n
	}

	if v := os.Getenv("MIN_MEAN_TIME_MS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid MIN_MEAN_TIME_MS value %q: must be a non-negative number", v)
		}
		cfg.MinMeanTimeMS = f
	}

	if v := os.Getenv("SAMPLE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid SAMPLE_LIMIT value %q: must be a positive integer", v)
		}
		cfg.SampleLimit = n
	}

	cfg.PatternsFile = os.Getenv("PATTERNS_FILE")

	if v := os.Getenv("TOP_SUGGESTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid TOP_SUGGESTIONS value %q: must be a positive integer", v)
		}
		cfg.TopSuggestions = n
	}

	if v := os.Getenv("ROW_COUNT_ASSUMPTION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid ROW_COUNT_ASSUMPTION value %q: must be a positive number", v)
		}
		cfg.RowCountAssumption = f
	}

	if v := os.Getenv("MAX_CREATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_CREATE value %q: must be a positive integer", v)
		}
		cfg.MaxCreate = n
	}

	if v := os.Getenv("STATEMENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid STATEMENT_TIMEOUT value %q: %w", v, err)
		}
		cfg.StatementTimeout = d
	}

	if v := os.Getenv("EXTRACTOR"); v != "" {
		cfg.Extractor = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	return nil
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, o Overrides) error {
	if o.DatabaseURL != nil {
		cfg.DatabaseURL = *o.DatabaseURL
	}
	if o.Schemas != nil {
		cfg.Schemas = splitSchemas(*o.Schemas)
	}
	if o.MinCalls != nil {
		if *o.MinCalls < 0 {
			return fmt.Errorf("invalid --min-calls value: must be a non-negative integer")
		}
		cfg.MinCalls = *o.MinCalls
	}
	if o.MinMeanTimeMS != nil {
		if *o.MinMeanTimeMS < 0 {
			return fmt.Errorf("invalid --min-mean-time value: must be a non-negative number")
		}
		cfg.MinMeanTimeMS = *o.MinMeanTimeMS
	}
	if o.SampleLimit != nil {
		if *o.SampleLimit <= 0 {
			return fmt.Errorf("invalid --sample-limit value: must be a positive integer")
		}
		cfg.SampleLimit = *o.SampleLimit
	}
	if o.PatternsFile != nil {
		cfg.PatternsFile = *o.PatternsFile
	}
	if o.TopSuggestions != nil {
		if *o.TopSuggestions <= 0 {
			return fmt.Errorf("invalid --top value: must be a positive integer")
		}
		cfg.TopSuggestions = *o.TopSuggestions
	}
	if o.MaxCreate != nil {
		if *o.MaxCreate <= 0 {
			return fmt.Errorf("invalid --max-indexes value: must be a positive integer")
		}
		cfg.MaxCreate = *o.MaxCreate
	}
	if o.StatementTimeout != nil {
		cfg.StatementTimeout = *o.StatementTimeout
	}
	if o.Extractor != nil {
		cfg.Extractor = *o.Extractor
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	cfg.AuditLog = o.AuditLog
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required (set via env var or --database-url flag)")
	}

	if len(cfg.Schemas) == 0 {
		return fmt.Errorf("at least one schema must be configured")
	}

	switch cfg.Extractor {
	case ExtractorHeuristic, ExtractorParser:
	default:
		return fmt.Errorf("invalid EXTRACTOR value %q: must be %q or %q", cfg.Extractor, ExtractorHeuristic, ExtractorParser)
	}

	return nil
}

func splitSchemas(v string) []string {
	var schemas []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			schemas = append(schemas, s)
		}
	}
	return schemas
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
