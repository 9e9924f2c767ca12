package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"datagovchat/internal/config"
	"datagovchat/internal/models"
	"datagovchat/internal/storage"
)

func TestRecordListLatest(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	first := &models.Download{ResourceID: "r1", OutputFolder: "datasets", FilePath: "datasets/r1.csv", SizeBytes: 8, CreatedAt: base}
	second := &models.Download{ResourceID: "r2", OutputFolder: "datasets", FilePath: "datasets/r2.csv", SizeBytes: 4, CreatedAt: base.Add(time.Minute)}
	again := &models.Download{ResourceID: "r1", OutputFolder: "other", FilePath: "other/r1.csv", SizeBytes: 9, RequestID: "req-1", CreatedAt: base.Add(2 * time.Minute)}
	for _, d := range []*models.Download{first, second, again} {
		require.NoError(t, svc.Record(ctx, d))
		require.NotZero(t, d.ID)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, again.ID, list[0].ID)
	require.Equal(t, first.ID, list[2].ID)

	latest, err := svc.Latest(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "other/r1.csv", latest.FilePath)
	require.Equal(t, "req-1", latest.RequestID)
	require.True(t, latest.CreatedAt.Equal(again.CreatedAt))
}

func TestLatestUnknownResource(t *testing.T) {
	svc := NewService(openTestDB(t))
	_, err := svc.Latest(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordValidates(t *testing.T) {
	svc := NewService(openTestDB(t))
	require.Error(t, svc.Record(context.Background(), nil))
	require.Error(t, svc.Record(context.Background(), &models.Download{ResourceID: " "}))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db, "sqlite3"))
	t.Cleanup(func() { db.Close() })
	return db
}
