package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("opens and migrates a fresh database", func(t *testing.T) {
		viper.Set("database.path", filepath.Join(t.TempDir(), "test.db"))
		defer viper.Reset()

		store, err := initStorage(ctx)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	})

	t.Run("migration failure closes the database", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		// Seed a database stamped with a schema version from the future so
		// migration fails after the handle is open.
		db, err := sql.Open("sqlite3", dbPath)
		require.NoError(t, err)
		_, err = db.Exec("PRAGMA user_version = 99")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		viper.Set("database.path", dbPath)
		defer viper.Reset()

		store, err := initStorage(ctx)
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "migrations")

		// The database stays usable after the failed open.
		reopened, err := sql.Open("sqlite3", dbPath)
		require.NoError(t, err)
		_, err = reopened.Exec("PRAGMA user_version = 2")
		assert.NoError(t, err)
		require.NoError(t, reopened.Close())
	})
}
