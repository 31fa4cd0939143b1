package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-toolkit/internal/domain"
	"fpl-toolkit/internal/storage"
	"fpl-toolkit/internal/storage/postgres"
)

func createTestProjection(playerID, gameweek int, createdAt int64) *domain.ProjectionRecord {
	return &domain.ProjectionRecord{
		PlayerID:   playerID,
		Gameweek:   gameweek,
		Points:     4.2,
		Minutes:    85,
		Confidence: 0.75,
		Difficulty: 2.8,
		CreatedAt:  createdAt,
	}
}

func TestProjectionStore_InsertAndGetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewProjectionStore(pool)

	r1 := createTestProjection(10, 5, 1000)
	require.NoError(t, store.Insert(ctx, r1))
	assert.NotZero(t, r1.ID)

	r2 := createTestProjection(10, 5, 2000)
	r2.Points = 5.1
	require.NoError(t, store.Insert(ctx, r2))

	latest, err := store.GetLatest(ctx, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.1, latest.Points)
	assert.Equal(t, int64(2000), latest.CreatedAt)
}

func TestProjectionStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewProjectionStore(pool)

	require.NoError(t, store.Insert(ctx, createTestProjection(10, 5, 1000)))

	err := store.Insert(ctx, createTestProjection(10, 5, 1000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestProjectionStore_GetByPlayer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewProjectionStore(pool)

	require.NoError(t, store.Insert(ctx, createTestProjection(10, 5, 1000)))
	require.NoError(t, store.Insert(ctx, createTestProjection(10, 6, 3000)))
	require.NoError(t, store.Insert(ctx, createTestProjection(10, 7, 2000)))
	require.NoError(t, store.Insert(ctx, createTestProjection(99, 5, 500)))

	records, err := store.GetByPlayer(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(3000), records[0].CreatedAt)
	assert.Equal(t, int64(1000), records[2].CreatedAt)

	limited, err := store.GetByPlayer(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestProjectionStore_GetLatestNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewProjectionStore(pool)

	_, err := store.GetLatest(context.Background(), 1, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProjectionStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewProjectionStore(pool)

	assert.ErrorIs(t, store.Insert(context.Background(), nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(context.Background(), &domain.ProjectionRecord{PlayerID: 0, Gameweek: 1}), storage.ErrInvalidInput)
}
