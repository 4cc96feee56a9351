package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// RunMigrations applies every pending migration found in migrationsPath.
func RunMigrations(databaseURL, migrationsPath string, logger zerolog.Logger) error {
	m, err := newMigrate(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("database migrations: no change")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Msg("database migrations: applied successfully")
	return nil
}

// RunMigrationsDown rolls back the last migration.
func RunMigrationsDown(databaseURL, migrationsPath string, logger zerolog.Logger) error {
	m, err := newMigrate(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	logger.Info().Msg("database migrations: rolled back successfully")
	return nil
}

func newMigrate(databaseURL, migrationsPath string) (*migrate.Migrate, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate, logger zerolog.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn().AnErr("source_error", srcErr).AnErr("database_error", dbErr).Msg("closing migrator")
	}
}
