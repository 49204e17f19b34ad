package repositories_test

import (
	"context"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "monarch"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "monarch"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "monarch"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "failed to connect to test database")

	return database.NewInstance(db, getTestLogger())
}

func getTestContext() context.Context {
	return context.Background()
}

func truncateAll(t *testing.T, db database.DB) {
	t.Helper()
	_, err := db.ExecContext(getTestContext(), "TRUNCATE classifications, photos, observations, sync_state RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }
