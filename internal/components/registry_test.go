package components

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func TestRegistryResolveUnknownName(t *testing.T) {
	r := DefaultRegistries()

	_, err := r.Embedders.Resolve("no-such-embedder")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedder component")
	assert.Contains(t, err.Error(), "no-such-embedder")

	_, err = r.VectorStores.Resolve("no-such-store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vector store component")
}

func TestRegistryResolveBuiltins(t *testing.T) {
	r := DefaultRegistries()

	for _, name := range []string{"plainText", "pdfFile", "webScraper", "spreadsheet"} {
		f, err := r.Loaders.Resolve(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f())
	}
	_, err := r.Splitters.Resolve("characterTextSplitter")
	assert.NoError(t, err)
	_, err = r.RecordManagers.Resolve("memory")
	assert.NoError(t, err)
}

// fakeEmbedder maps each text to a deterministic vector so similarity order
// is predictable in tests.
type fakeEmbedder struct{}

func (fakeEmbedder) embed(text string) []float32 {
	var a, b float32
	for _, r := range text {
		a += float32(r % 7)
		b += float32(r % 13)
	}
	return []float32{a + 1, b + 1}
}

func (f fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.embed(text), nil
}

func TestMemoryVectorStoreUpsertSearchDelete(t *testing.T) {
	ctx := context.Background()
	inv := Invocation{StoreID: "store-mem-1", Embedder: fakeEmbedder{}}

	rm, err := newMemoryRecordManager(inv)
	require.NoError(t, err)
	inv.RecordManager = rm

	vs, err := newMemoryVectorStore(inv)
	require.NoError(t, err)

	docs := []schema.Document{
		{PageContent: "alpha", Metadata: map[string]any{"recordKey": "k1"}},
		{PageContent: "beta", Metadata: map[string]any{"recordKey": "k2"}},
	}
	res, err := vs.Upsert(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumAdded)
	assert.ElementsMatch(t, []string{"k1", "k2"}, res.TotalKeys)

	keys, err := rm.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	found, err := vs.Search(ctx, "alpha", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alpha", found[0].PageContent)

	// Re-upsert replaces the previous index wholesale.
	res, err = vs.Upsert(ctx, docs[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, res.NumAdded)
	assert.Equal(t, 2, res.NumDeleted)

	require.NoError(t, vs.Delete(ctx))
	keys, err = rm.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	found, err = vs.Search(ctx, "alpha", 5)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemoryVectorStoreDeleteRequiresRecordManager(t *testing.T) {
	vs, err := newMemoryVectorStore(Invocation{StoreID: "store-mem-2", Embedder: fakeEmbedder{}})
	require.NoError(t, err)

	err = vs.Delete(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record manager")
}

func TestUpsertResultStripped(t *testing.T) {
	res := UpsertResult{
		NumAdded:  3,
		TotalKeys: []string{"a", "b", "c"},
		AddedDocs: []schema.Document{{PageContent: "x"}},
	}
	stripped := res.Stripped()
	assert.Equal(t, 3, stripped.NumAdded)
	assert.Nil(t, stripped.TotalKeys)
	assert.Nil(t, stripped.AddedDocs)
	// original untouched
	assert.Len(t, res.TotalKeys, 3)
}

func TestPlainTextLoaderSplits(t *testing.T) {
	sp, err := newCharacterSplitter(map[string]any{"chunkSize": 5, "chunkOverlap": 0})
	require.NoError(t, err)

	loader := &plainTextLoader{}
	docs, err := loader.Load(context.Background(), LoaderInput{
		Config:   map[string]any{"text": "aaaaabbbbb"},
		Splitter: sp,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "aaaaa", docs[0].PageContent)
	assert.Equal(t, "bbbbb", docs[1].PageContent)
	assert.Equal(t, "text", docs[0].Metadata["source"])
}

func TestPlainTextLoaderRequiresText(t *testing.T) {
	loader := &plainTextLoader{}
	_, err := loader.Load(context.Background(), LoaderInput{Config: map[string]any{}})
	assert.Error(t, err)
}
