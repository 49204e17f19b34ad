package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kylenessen/monarch-phenology-go/config"
	"github.com/kylenessen/monarch-phenology-go/internal/classify"
	"github.com/kylenessen/monarch-phenology-go/internal/feedclient"
	"github.com/kylenessen/monarch-phenology-go/internal/gatewayclient"
	"github.com/kylenessen/monarch-phenology-go/internal/ingest"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/logging"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/tracing"
	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
)

// app bundles the dependencies every subcommand needs: configuration, a
// logger, and an open, migrated database connection with its repositories.
type app struct {
	cfg             *config.Config
	logger          ectologger.Logger
	zapLogger       *zap.Logger
	db              database.DB
	sqlxDB          *sqlx.DB
	shutdownTracing func(context.Context) error

	observations    repositories.ObservationRepo
	photos          repositories.PhotoRepo
	syncState       repositories.SyncStateRepo
	classifications repositories.ClassificationRepo
	stats           *repositories.StatsRepository
}

// bootstrap loads .env and the environment, builds the logger, opens the
// database, and applies any pending migrations. Every subcommand calls this
// first, the way the original CLI calls load_dotenv()+load_settings() at
// the top of every command.
func bootstrap(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, zapLogger, err := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.PrettyLogs})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	sqlxDB, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)

	if err := applyMigrations(cfg, logger, sqlxDB); err != nil {
		sqlxDB.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
		Enabled:  cfg.OTLPEnabled,
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
	})
	if err != nil {
		sqlxDB.Close()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	db := database.NewInstance(sqlxDB, logger)

	return &app{
		shutdownTracing: shutdownTracing,
		cfg:             cfg,
		logger:          logger,
		zapLogger:       zapLogger,
		db:              db,
		sqlxDB:          sqlxDB,
		observations:    repositories.NewObservationRepository(db, logger),
		photos:          repositories.NewPhotoRepository(db, logger),
		syncState:       repositories.NewSyncStateRepository(db, logger),
		classifications: repositories.NewClassificationRepository(db, logger),
		stats:           repositories.NewStatsRepository(db, logger),
	}, nil
}

func applyMigrations(cfg *config.Config, logger ectologger.Logger, sqlxDB *sqlx.DB) error {
	driver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("build migration driver: %w", err)
	}

	ms := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		AutoRollback:        true,
	})
	return ms.Migrate("postgres", driver)
}

func (a *app) Close() {
	if a.shutdownTracing != nil {
		_ = a.shutdownTracing(context.Background())
	}
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}
	if a.sqlxDB != nil {
		_ = a.sqlxDB.Close()
	}
}

func (a *app) feedClient() *feedclient.Client {
	return feedclient.New(feedclient.Config{
		BaseURL:             a.cfg.INatBaseURL,
		MaxRetries:          a.cfg.INatMaxRetries,
		RetryBackoffSeconds: a.cfg.INatRetryBackoffSecs,
		SleepSeconds:        a.cfg.INatSleepSeconds,
	}, a.logger)
}

func (a *app) ingestEngine() *ingest.Engine {
	return ingest.NewEngine(a.feedClient(), a.observations, a.photos, a.syncState, a.logger)
}

func (a *app) ingestConfig() ingest.Config {
	return ingest.Config{
		TaxonID:        a.cfg.INatTaxonID,
		PlaceID:        a.cfg.INatPlaceID,
		QualityGrade:   a.cfg.INatQualityGrade,
		PerPage:        a.cfg.INatPerPage,
		BackfillDays:   a.cfg.INatBackfillDays,
		OverlapHours:   a.cfg.INatOverlapHours,
		MaxPagesPerRun: a.cfg.INatMaxPagesPerRun,
	}
}

func (a *app) classifyEngine() *classify.Engine {
	return classify.NewEngine(a.classifications, a.logger)
}

func (a *app) classifyConfig(maxItems int) (classify.Config, error) {
	prompt, err := loadPrompt(a.cfg.PromptPath)
	if err != nil {
		return classify.Config{}, err
	}

	return classify.Config{
		Provider:      "openrouter",
		Model:         a.cfg.OpenRouterModel,
		PromptVersion: a.cfg.PromptVersion,
		Prompt:        prompt,
		Gateway: gatewayclient.Config{
			BaseURL: a.cfg.OpenRouterBaseURL,
			APIKey:  a.cfg.OpenRouterAPIKey,
			Model:   a.cfg.OpenRouterModel,
		},
		NotesMaxChars: a.cfg.ClassifyNotesMaxChars,
		MaxWorkers:    a.cfg.ClassifyMaxWorkers,
		MaxAttempts:   a.cfg.ClassifyMaxAttempts,
		MaxItems:      maxItems,
	}, nil
}

func loadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file %s: %w", path, err)
	}
	return string(data), nil
}
