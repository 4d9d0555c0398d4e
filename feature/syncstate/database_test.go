package syncstate

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLite(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestDatabaseStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewDatabaseStore(ctx, setupSQLite(t))
	require.NoError(t, err)

	ts, err := store.Load(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	first := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, "users", first))
	second := first.Add(time.Hour)
	require.NoError(t, store.Save(ctx, "users", second), "save upserts")

	ts, err = store.Load(ctx, "users")
	require.NoError(t, err)
	assert.True(t, second.Equal(ts))

	require.NoError(t, store.SaveReport(ctx, sampleReport("users")))
	status, err := store.Status(ctx, "users")
	require.NoError(t, err)
	assert.True(t, second.Equal(status.Watermark), "a report keeps the watermark")
	require.NotNil(t, status.LastRun)
	assert.Equal(t, 3, status.LastRun.Created)

	t.Run("Report Before Watermark", func(t *testing.T) {
		require.NoError(t, store.SaveReport(ctx, sampleReport("staff")))
		ts, err := store.Load(ctx, "staff")
		require.NoError(t, err)
		assert.True(t, ts.IsZero())
	})

	t.Run("Reset", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx, "users"))
		status, err := store.Status(ctx, "users")
		require.NoError(t, err)
		assert.True(t, status.Watermark.IsZero())
		assert.Nil(t, status.LastRun)
	})

	t.Run("Invalid Domain", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, "a b", first))
	})
}

func TestDatabaseStore_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &DatabaseStore{db: db}

	mock.ExpectQuery("SELECT \\* FROM `sync_state`").WillReturnError(assert.AnError)

	_, err := store.Load(context.Background(), "users")
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "failed to load sync state")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_SaveError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := &DatabaseStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `sync_state`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.Save(context.Background(), "users", time.Now())
	assert.ErrorContains(t, err, "failed to save watermark")
	assert.NoError(t, mock.ExpectationsWereMet())
}
