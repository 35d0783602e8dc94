package migrations

import (
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "sql/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)

		content := string(body)
		require.True(t, strings.Contains(content, "-- +goose Up"), name)
		require.True(t, strings.Contains(content, "-- +goose Down"), name)
	}
}

func TestSchemaConstraints(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "sql/00001_init.sql")
	require.NoError(t, err)

	// Repositories translate these constraint names into domain errors.
	for _, constraint := range []string{
		"transactions_batch_id_type_key",
		"users_balance_check",
		"users_email_key",
		"goals_owner_fkey",
	} {
		require.Contains(t, string(body), constraint)
	}
}

func TestSetupUnknownDialect(t *testing.T) {
	require.Error(t, setup("oracle-db", zerolog.New(io.Discard)))
}
