// Package config loads and validates the settings that drive the ingestion
// and classification pipeline.
package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
)

// Config holds every environment-driven setting for the pipeline.
type Config struct {
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`

	DatabaseURL string `env:"DATABASE_URL" env-default:"" validate:"required"`

	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"migrations"`
	DatabaseMaxOpenConns        int    `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	DatabaseMaxIdleConns        int    `env:"DB_MAX_IDLE_CONNS" env-default:"5"`

	INatBaseURL          string `env:"INAT_BASE_URL" env-default:"https://api.inaturalist.org/v1"`
	INatTaxonID          int    `env:"INAT_TAXON_ID" env-default:"48662"`
	INatPlaceID          int    `env:"INAT_PLACE_ID" env-default:"62068"`
	INatQualityGrade     string `env:"INAT_QUALITY_GRADE" env-default:"research"`
	INatPerPage          int    `env:"INAT_PER_PAGE" env-default:"200" validate:"gte=1,lte=200"`
	INatBackfillDays     int    `env:"INAT_BACKFILL_DAYS" env-default:"365" validate:"gte=0"`
	INatOverlapHours     int    `env:"INAT_OVERLAP_HOURS" env-default:"6" validate:"gte=0"`
	INatSleepSeconds     int    `env:"INAT_SLEEP_SECONDS" env-default:"1" validate:"gte=0"`
	INatMaxPagesPerRun   int    `env:"INAT_MAX_PAGES_PER_RUN" env-default:"0" validate:"gte=0"`
	INatMaxRetries       int    `env:"INAT_MAX_RETRIES" env-default:"5" validate:"gte=0"`
	INatRetryBackoffSecs int    `env:"INAT_RETRY_BACKOFF_SECONDS" env-default:"2" validate:"gte=0"`

	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY" env-default:""`
	OpenRouterModel   string `env:"OPENROUTER_MODEL" env-default:"google/gemini-2.0-flash-001"`

	PromptVersion string `env:"PROMPT_VERSION" env-default:"v1"`
	PromptPath    string `env:"PROMPT_PATH" env-default:"prompts/classification.txt"`

	ClassifyNotesMaxChars int `env:"CLASSIFY_NOTES_MAX_CHARS" env-default:"2000" validate:"gte=0"`
	ClassifyMaxWorkers    int `env:"CLASSIFY_MAX_WORKERS" env-default:"2" validate:"gte=1"`
	ClassifyMaxAttempts   int `env:"CLASSIFY_MAX_ATTEMPTS" env-default:"8" validate:"gte=1"`

	RunIngestEverySeconds   int `env:"RUN_INGEST_EVERY_SECONDS" env-default:"86400"`
	RunClassifyEverySeconds int `env:"RUN_CLASSIFY_EVERY_SECONDS" env-default:"10"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" env-default:"false"`
	MetricsAddr    string `env:"METRICS_ADDR" env-default:":9090"`

	OTLPEnabled  bool   `env:"OTLP_ENABLED" env-default:"false"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPInsecure bool   `env:"OTLP_INSECURE" env-default:"true"`
}

const (
	minIngestIntervalSeconds   = 60
	minClassifyIntervalSeconds = 1
)

// IngestInterval returns the floored ingest period.
func (c *Config) IngestInterval() time.Duration {
	seconds := c.RunIngestEverySeconds
	if seconds < minIngestIntervalSeconds {
		seconds = minIngestIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

// ClassifyInterval returns the floored classification period.
func (c *Config) ClassifyInterval() time.Duration {
	seconds := c.RunClassifyEverySeconds
	if seconds < minClassifyIntervalSeconds {
		seconds = minClassifyIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := ectoenv.Load(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.OpenRouterAPIKey == "" {
		return fmt.Errorf("invalid configuration: OPENROUTER_API_KEY is required")
	}

	return nil
}
