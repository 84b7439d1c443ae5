package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore-platform/internal/components"
	"docstore-platform/internal/config"
	"docstore-platform/internal/database"
	"docstore-platform/internal/storage"
	"docstore-platform/models"
)

// testEmbedder maps texts to deterministic small vectors.
type testEmbedder struct{}

func (testEmbedder) embed(text string) []float32 {
	var a, b float32
	for _, r := range text {
		a += float32(r % 11)
		b += float32(r % 5)
	}
	return []float32{a + 1, b + 1}
}

func (e testEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e testEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newIndexFixture(t *testing.T) (*VectorIndexService, *DocumentStoreService, *database.Repositories) {
	t.Helper()
	repos := database.NewMemoryRepositories()
	registries := components.DefaultRegistries()
	registries.Embedders.Register("testEmbeddings", func(_ context.Context, _ components.Invocation) (components.Embedder, error) {
		return testEmbedder{}, nil
	})
	cfg := &config.Config{ChunkPageSize: 50}
	docs := NewDocumentStoreService(repos, storage.NewStore(t.TempDir()), registries, cfg)
	index := NewVectorIndexService(repos, registries, nil, cfg)
	return index, docs, repos
}

func memoryIndexConfig() IndexConfigRequest {
	return IndexConfigRequest{
		Embedding:     &models.ComponentConfig{Name: "testEmbeddings", Config: map[string]any{}},
		VectorStore:   &models.ComponentConfig{Name: "memory", Config: map[string]any{}},
		RecordManager: &models.ComponentConfig{Name: "memory", Config: map[string]any{}},
	}
}

func seedSyncedStore(t *testing.T, docs *DocumentStoreService, text string) string {
	t.Helper()
	ctx := context.Background()
	dto, err := docs.Create(ctx, "kb", "", "w1")
	require.NoError(t, err)
	ldr, err := docs.SaveProcessingLoader(ctx, dto.ID, plainTextRequest(text))
	require.NoError(t, err)
	require.NoError(t, docs.ProcessLoader(ctx, dto.ID, ldr.ID))
	return dto.ID
}

func TestSaveConfigStrictClearsOmittedSlots(t *testing.T) {
	ctx := context.Background()
	index, docs, _ := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	dto, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)
	require.NotNil(t, dto.RecordManagerConfig)

	// strict save without a record manager clears the slot
	dto, err = index.SaveConfig(ctx, storeID, IndexConfigRequest{
		Embedding:   &models.ComponentConfig{Name: "testEmbeddings"},
		VectorStore: &models.ComponentConfig{Name: "memory"},
	}, true)
	require.NoError(t, err)
	assert.Nil(t, dto.RecordManagerConfig)
}

func TestSaveConfigLenientKeepsOmittedSlots(t *testing.T) {
	ctx := context.Background()
	index, docs, _ := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)

	dto, err := index.SaveConfig(ctx, storeID, IndexConfigRequest{
		Embedding: &models.ComponentConfig{Name: "testEmbeddings", Config: map[string]any{"modelName": "other"}},
	}, false)
	require.NoError(t, err)
	require.NotNil(t, dto.VectorStoreConfig)
	require.NotNil(t, dto.RecordManagerConfig)
}

func TestSaveConfigEmptyNameClearsSlot(t *testing.T) {
	ctx := context.Background()
	index, docs, _ := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)

	dto, err := index.SaveConfig(ctx, storeID, IndexConfigRequest{
		RecordManager: &models.ComponentConfig{Name: ""},
	}, false)
	require.NoError(t, err)
	assert.Nil(t, dto.RecordManagerConfig)
}

func TestUpsertPromotesToUpserted(t *testing.T) {
	ctx := context.Background()
	index, docs, repos := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)

	result, err := index.Upsert(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.NumAdded)

	store, err := repos.Stores.GetByID(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpserted, store.Status)

	records, err := index.History(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// bulky fields are stripped from the persisted result
	var persisted components.UpsertResult
	require.NoError(t, json.Unmarshal([]byte(records[0].Result), &persisted))
	assert.Equal(t, 2, persisted.NumAdded)
	assert.Empty(t, persisted.TotalKeys)
	assert.Empty(t, persisted.AddedDocs)
}

func TestUpsertRequiresConfiguration(t *testing.T) {
	ctx := context.Background()
	index, docs, _ := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.Upsert(ctx, storeID)
	require.Error(t, err)
	assert.Equal(t, 412, StatusOf(err))
}

func TestUpsertFailureLeavesUpserting(t *testing.T) {
	ctx := context.Background()
	index, docs, repos := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	// an unknown vector store name makes composition fail after the
	// UPSERTING marker is written
	req := memoryIndexConfig()
	req.VectorStore = &models.ComponentConfig{Name: "memory"}
	_, err := index.SaveConfig(ctx, storeID, req, true)
	require.NoError(t, err)

	store, err := repos.Stores.GetByID(ctx, storeID)
	require.NoError(t, err)
	store.VectorStoreConfig = `{"name":"gone","config":{}}`
	require.NoError(t, repos.Stores.Update(ctx, store))

	_, err = index.Upsert(ctx, storeID)
	require.Error(t, err)

	store, err = repos.Stores.GetByID(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpserting, store.Status)
}

func TestConfigChangeAfterUpsertDemotesToSync(t *testing.T) {
	ctx := context.Background()
	index, docs, repos := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)
	_, err = index.Upsert(ctx, storeID)
	require.NoError(t, err)

	req := memoryIndexConfig()
	req.Embedding.Config = map[string]any{"modelName": "different"}
	_, err = index.SaveConfig(ctx, storeID, req, true)
	require.NoError(t, err)

	store, err := repos.Stores.GetByID(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSync, store.Status)
}

func TestSaveConfigUnchangedKeepsUpserted(t *testing.T) {
	ctx := context.Background()
	index, docs, repos := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)
	_, err = index.Upsert(ctx, storeID)
	require.NoError(t, err)

	_, err = index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)

	store, err := repos.Stores.GetByID(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpserted, store.Status)
}

func TestQueryMapsResultsToChunkIdentity(t *testing.T) {
	ctx := context.Background()
	index, docs, repos := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)
	_, err = index.Upsert(ctx, storeID)
	require.NoError(t, err)

	resp, err := index.Query(ctx, storeID, "aaaaa", 2)
	require.NoError(t, err)
	require.Len(t, resp.Docs, 2)

	chunk, err := repos.Chunks.FindByContent(ctx, storeID, resp.Docs[0].PageContent)
	require.NoError(t, err)
	assert.Equal(t, chunk.ID, resp.Docs[0].ID)
	assert.Equal(t, chunk.ChunkNo, resp.Docs[0].ChunkNo)
}

func TestQuerySentinelForUnmatchedContent(t *testing.T) {
	ctx := context.Background()
	index, docs, repos := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)
	_, err = index.Upsert(ctx, storeID)
	require.NoError(t, err)

	// edit the stored chunks so indexed content no longer matches
	chunks, _, err := repos.Chunks.List(ctx, storeID, "all", 0, 0)
	require.NoError(t, err)
	for i := range chunks {
		chunks[i].PageContent = "rewritten"
		require.NoError(t, repos.Chunks.Update(ctx, &chunks[i]))
	}

	resp, err := index.Query(ctx, storeID, "aaaaa", 1)
	require.NoError(t, err)
	require.Len(t, resp.Docs, 1)
	assert.Equal(t, -1, resp.Docs[0].ChunkNo)
	assert.NotEmpty(t, resp.Docs[0].ID)
}

func TestDeleteIndexedRequiresRecordManager(t *testing.T) {
	ctx := context.Background()
	index, docs, _ := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	req := memoryIndexConfig()
	req.RecordManager = nil
	_, err := index.SaveConfig(ctx, storeID, req, true)
	require.NoError(t, err)

	err = index.DeleteIndexed(ctx, storeID)
	require.Error(t, err)
	assert.Equal(t, 412, StatusOf(err))
	assert.Contains(t, err.Error(), "record manager")
}

func TestComposeAppliesEmbeddingDefaults(t *testing.T) {
	ctx := context.Background()
	repos := database.NewMemoryRepositories()
	registries := components.DefaultRegistries()
	var got components.Invocation
	registries.Embedders.Register("captureEmbeddings", func(_ context.Context, inv components.Invocation) (components.Embedder, error) {
		got = inv
		return testEmbedder{}, nil
	})
	cfg := &config.Config{
		ChunkPageSize:         50,
		GeminiAPIKey:          "env-key",
		GoogleEmbeddingsModel: "text-embedding-005",
	}
	docs := NewDocumentStoreService(repos, storage.NewStore(t.TempDir()), registries, cfg)
	index := NewVectorIndexService(repos, registries, nil, cfg)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, IndexConfigRequest{
		Embedding:   &models.ComponentConfig{Name: "captureEmbeddings", Config: map[string]any{}},
		VectorStore: &models.ComponentConfig{Name: "memory", Config: map[string]any{}},
	}, true)
	require.NoError(t, err)
	_, err = index.Upsert(ctx, storeID)
	require.NoError(t, err)

	// process-level key and model flow in when the stored config has none
	assert.Equal(t, "env-key", got.Credential)
	assert.Equal(t, "text-embedding-005", got.Config["modelName"])

	// a stored model name wins over the process default
	_, err = index.SaveConfig(ctx, storeID, IndexConfigRequest{
		Embedding:   &models.ComponentConfig{Name: "captureEmbeddings", Config: map[string]any{"modelName": "pinned"}},
		VectorStore: &models.ComponentConfig{Name: "memory", Config: map[string]any{}},
	}, true)
	require.NoError(t, err)
	_, err = index.Upsert(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, "pinned", got.Config["modelName"])
}

func TestDeleteIndexedClearsVectorData(t *testing.T) {
	ctx := context.Background()
	index, docs, _ := newIndexFixture(t)
	storeID := seedSyncedStore(t, docs, "aaaaabbbbb")

	_, err := index.SaveConfig(ctx, storeID, memoryIndexConfig(), true)
	require.NoError(t, err)
	_, err = index.Upsert(ctx, storeID)
	require.NoError(t, err)

	require.NoError(t, index.DeleteIndexed(ctx, storeID))

	resp, err := index.Query(ctx, storeID, "aaaaa", 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Docs)
}
