package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore-platform/models"
)

func TestMemoryStoreRepoCRUD(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	store := &models.DocumentStore{
		ID:          "s1",
		Name:        "docs",
		Status:      models.StatusEmptySync,
		WorkspaceID: "w1",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repos.Stores.Insert(ctx, store))

	got, err := repos.Stores.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name)

	got.Name = "renamed"
	require.NoError(t, repos.Stores.Update(ctx, got))
	got, err = repos.Stores.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	_, err = repos.Stores.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repos.Stores.Delete(ctx, "s1"))
	assert.ErrorIs(t, repos.Stores.Delete(ctx, "s1"), ErrNotFound)
}

func TestMemoryStoreRepoListScopesWorkspace(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	for _, row := range []models.DocumentStore{
		{ID: "a", WorkspaceID: "w1", UpdatedAt: time.Now()},
		{ID: "b", WorkspaceID: "w1", UpdatedAt: time.Now().Add(time.Second)},
		{ID: "c", WorkspaceID: "w2", UpdatedAt: time.Now()},
	} {
		row := row
		require.NoError(t, repos.Stores.Insert(ctx, &row))
	}

	stores, total, err := repos.Stores.List(ctx, "w1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, stores, 2)
	assert.Equal(t, "b", stores[0].ID)

	stores, total, err = repos.Stores.List(ctx, "w1", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, stores, 1)
	assert.Equal(t, "a", stores[0].ID)
}

func seedChunks(t *testing.T, repos *Repositories) {
	t.Helper()
	chunks := []models.Chunk{
		{ID: "c1", StoreID: "s1", DocID: "d1", ChunkNo: 1, PageContent: "one"},
		{ID: "c2", StoreID: "s1", DocID: "d1", ChunkNo: 2, PageContent: "two"},
		{ID: "c3", StoreID: "s1", DocID: "d2", ChunkNo: 1, PageContent: "three"},
		{ID: "c4", StoreID: "s2", DocID: "d9", ChunkNo: 1, PageContent: "other"},
	}
	require.NoError(t, repos.Chunks.InsertMany(context.Background(), chunks))
}

func TestMemoryChunkRepoListByDocAndAll(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	seedChunks(t, repos)

	chunks, total, err := repos.Chunks.List(ctx, "s1", "d1", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].ChunkNo)

	chunks, total, err = repos.Chunks.List(ctx, "s1", "all", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, chunks, 3)
}

func TestMemoryChunkRepoDeleteCascades(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	seedChunks(t, repos)

	deleted, err := repos.Chunks.DeleteByDoc(ctx, "s1", "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = repos.Chunks.DeleteByStore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repos.Chunks.List(ctx, "s2", "all", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestMemoryChunkRepoFindByContent(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	seedChunks(t, repos)

	chunk, err := repos.Chunks.FindByContent(ctx, "s1", "three")
	require.NoError(t, err)
	assert.Equal(t, "c3", chunk.ID)

	_, err = repos.Chunks.FindByContent(ctx, "s1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryHistoryRepo(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	require.NoError(t, repos.History.Insert(ctx, &models.UpsertHistory{ID: "h1", StoreID: "s1", Date: time.Now()}))
	require.NoError(t, repos.History.Insert(ctx, &models.UpsertHistory{ID: "h2", StoreID: "s1", Date: time.Now().Add(time.Second)}))
	require.NoError(t, repos.History.Insert(ctx, &models.UpsertHistory{ID: "h3", StoreID: "s2", Date: time.Now()}))

	records, err := repos.History.ListByStore(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "h2", records[0].ID)

	require.NoError(t, repos.History.DeleteByStore(ctx, "s1"))
	records, err = repos.History.ListByStore(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, records)
}
