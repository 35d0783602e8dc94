// Package migrations applies the embedded database schema.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// dialectMap maps database drivers to goose dialect names.
var dialectMap = map[string]string{
	"postgres": "postgres",
	"pgx":      "postgres",
}

type gooseLogger struct {
	l zerolog.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info().Msgf(strings.TrimSpace(format), v...)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Fatal().Msgf(strings.TrimSpace(format), v...)
}

func setup(driver string, logger zerolog.Logger) error {
	dialect, ok := dialectMap[driver]
	if !ok {
		dialect = driver
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{l: logger.With().Str("component", "migrations").Logger()})

	return nil
}

// Up applies every pending migration.
func Up(db *sql.DB, driver string, logger zerolog.Logger) error {
	if err := setup(driver, logger); err != nil {
		return err
	}

	if err := goose.Up(db, "sql"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Down rolls back the latest migration.
func Down(db *sql.DB, driver string, logger zerolog.Logger) error {
	if err := setup(driver, logger); err != nil {
		return err
	}

	if err := goose.Down(db, "sql"); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	return nil
}
