package database

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// MigrationLogger adapts ectologger.Logger to migrate's Logger interface.
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool { return true }

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// MigrationConfig controls how schema migrations are applied.
type MigrationConfig struct {
	MigrationFolderPath string
	AutoRollback        bool
}

// MigrationService applies the SQL migration files found in the configured
// folder idempotently; it is
// safe to invoke on every entry point (init-db, ingest, classify, run).
type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{config: config, logger: logger}
}

func (ms *MigrationService) resolveMigrationFolder() string {
	folder := ms.config.MigrationFolderPath
	if _, err := os.Stat(folder); err == nil {
		return folder
	}
	wd, _ := os.Getwd()
	separator := ""
	if wd != "/" {
		separator = "/"
	}
	joined := wd + separator + folder
	if _, err := os.Stat(joined); err == nil {
		return joined
	}
	return folder
}

// Migrate applies any pending migrations against databaseInstance.
func (ms *MigrationService) Migrate(databaseName string, databaseInstance migratedb.Driver) error {
	folder := ms.resolveMigrationFolder()
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrap(err, fmt.Sprintf("migration folder %s does not exist", folder))
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, databaseInstance)
	if err != nil {
		ms.logger.WithError(err).Error("failed to create migrate instance")
		return err
	}
	m.Log = MigrationLogger{Logger: ms.logger}

	return ms.runMigration(m)
}

func (ms *MigrationService) runMigration(m *migrate.Migrate) error {
	version, _, versionErr := m.Version()
	if versionErr != nil {
		version = 0
	}

	done := make(chan bool)
	go ms.logProgress(done)

	start := time.Now()
	err := m.Up()
	done <- true

	ms.logger.Infof("database migrations completed in %v", time.Since(start))

	return ms.handleMigrationError(m, err, version)
}

func (ms *MigrationService) logProgress(done chan bool) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	dots := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			dots = (dots + 1) % 4
			ms.logger.Debugf("applying schema migrations%s", strings.Repeat(".", dots))
		}
	}
}

func (ms *MigrationService) handleMigrationError(m *migrate.Migrate, err error, previousVersion uint) error {
	if err == nil {
		ms.logger.Info("schema is up to date")
		return nil
	}
	if err == migrate.ErrNoChange {
		ms.logger.Info("no new migrations to apply")
		return nil
	}

	if strings.Contains(err.Error(), "no migration found for version") {
		latest, latestErr := getLatestVersion(ms.resolveMigrationFolder())
		if latestErr != nil {
			ms.logger.WithError(latestErr).Error("failed to determine latest migration version")
			return err
		}
		ms.logger.Warnf("no migration found for version %d, forcing to latest available version %d", previousVersion, latest)
		return m.Force(latest)
	}

	ms.logger.WithError(err).Errorf("migration failed: %v", err)

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("failed to read current migration version")
		return err
	}

	if ms.config.AutoRollback && dirty {
		if previousVersion == 0 {
			previousVersion = version - 1
		}
		ms.logger.Warnf("database is dirty at version %d, reverting to version %d", version, previousVersion)
		if forceErr := m.Force(int(previousVersion)); forceErr != nil {
			ms.logger.WithError(forceErr).Errorf("failed to force database to version %d", previousVersion)
			return forceErr
		}
	}

	return err
}

func getLatestVersion(folderPath string) (int, error) {
	files, err := os.ReadDir(folderPath)
	if err != nil {
		return 0, err
	}

	re := regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)
	var versions []int
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		matches := re.FindStringSubmatch(file.Name())
		if len(matches) > 1 {
			v, err := strconv.Atoi(matches[1])
			if err != nil {
				return 0, err
			}
			versions = append(versions, v)
		}
	}

	if len(versions) == 0 {
		return 0, fmt.Errorf("no migration files found in %s", folderPath)
	}
	sort.Ints(versions)
	return versions[len(versions)-1], nil
}
