package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/symmy/integrator/internal/domain/integration"
)

// newMockSyncStateRepository creates a GormSyncStateRepository with a mocked
// SQL connection.
func newMockSyncStateRepository(t *testing.T) (*GormSyncStateRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSyncStateRepository(gormDB), mock, mockDB
}

func TestGormSyncStateRepository_FetchBySKUs(t *testing.T) {
	t.Run("returns matching states keyed by sku", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"sku", "data_hash", "last_synced_at"}).
			AddRow("A", "hash-a", now).
			AddRow("B", "hash-b", now)

		mock.ExpectQuery(`SELECT \* FROM "product_sync_states" WHERE sku IN \(\$1,\$2,\$3\)`).
			WithArgs("A", "B", "C").
			WillReturnRows(rows)

		states, err := repo.FetchBySKUs(context.Background(), []string{"A", "B", "C"})
		require.NoError(t, err)

		assert.Len(t, states, 2)
		assert.Equal(t, integration.Fingerprint("hash-a"), states["A"].Fingerprint)
		assert.Equal(t, integration.Fingerprint("hash-b"), states["B"].Fingerprint)
		assert.NotContains(t, states, "C")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty sku list issues no query", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		states, err := repo.FetchBySKUs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, states)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_BulkCreate(t *testing.T) {
	t.Run("inserts all states in one statement", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		now := time.Now()
		mock.ExpectExec(`INSERT INTO "product_sync_states"`).
			WithArgs("A", "hash-a", now, "B", "hash-b", now).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.BulkCreate(context.Background(), []*integration.SyncState{
			{SKU: "A", Fingerprint: "hash-a", LastSyncedAt: now},
			{SKU: "B", Fingerprint: "hash-b", LastSyncedAt: now},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op on empty input", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		require.NoError(t, repo.BulkCreate(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_BulkUpdate(t *testing.T) {
	t.Run("upserts fingerprint and timestamp in one statement", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		now := time.Now()
		mock.ExpectExec(`INSERT INTO "product_sync_states" .* ON CONFLICT \("sku"\) DO UPDATE SET "data_hash"=.*"last_synced_at"=`).
			WithArgs("A", "hash-a2", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.BulkUpdate(context.Background(), []*integration.SyncState{
			{SKU: "A", Fingerprint: "hash-a2", LastSyncedAt: now},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op on empty input", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncStateRepository(t)
		defer mockDB.Close()

		require.NoError(t, repo.BulkUpdate(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
