package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgledger/msgledger/internal/model"
)

// Helper function to create migrated test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testRule(name string, priority int) *model.Rule {
	return &model.Rule{
		Name:               name,
		Type:               model.TypeExpense,
		Enabled:            true,
		Priority:           priority,
		PaymentMethod:      "UPI",
		SenderMatch:        model.StringList{"HDFCBK", "ICICIB"},
		AmountRegex:        model.StringList{`Rs\.([\d,]+\.?\d*)`},
		MerchantConditions: model.StringList{`to (\S+) on`},
		MerchantCleanup:    model.StringList{`^UPI/(\w+)`},
		SkipConditions:     model.StringList{"otp", "/declined/i"},
		MerchantAnchors:    []model.MerchantAnchor{{StartText: "to", EndText: "on", StartIndex: 1}},
	}
}

func testTransaction(id, merchant, messageID string, amount float64) *model.Transaction {
	return &model.Transaction{
		ID:           id,
		MerchantName: merchant,
		Amount:       amount,
		Currency:     "INR",
		Date:         time.Date(2023, 5, 12, 14, 30, 0, 0, time.UTC),
		Category:     model.DefaultCategory,
		Notes:        model.AutoExtractedMarker + " rule: upi",
		Type:         model.TypeExpense,
		Source:       model.SourceSMS,
		MessageID:    messageID,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("")
		assert.Error(t, err)
	})
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh database reaches expected version", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		var version int
		err := store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
		require.NoError(t, err)
		assert.Equal(t, ExpectedSchemaVersion, version)
	})

	t.Run("idempotent", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		require.NoError(t, store.Migrate(ctx))
		require.NoError(t, store.Migrate(ctx))
	})

	t.Run("reopened database keeps its data", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Migrate(ctx))
		require.NoError(t, store.AddRule(ctx, testRule("persisted", 1)))
		require.NoError(t, store.Close())

		reopened, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = reopened.Close() }()
		require.NoError(t, reopened.Migrate(ctx))

		rules, err := reopened.GetRules(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "persisted", rules[0].Name)
	})
}
