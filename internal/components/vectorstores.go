package components

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// recordKey returns the stable identity of a document inside the vector
// store, used for record-manager bookkeeping.
func recordKey(doc schema.Document) string {
	if key, ok := doc.Metadata["recordKey"].(string); ok && key != "" {
		return key
	}
	return uuid.New().String()
}

// memoryVectorStore keeps embeddings in process memory, one collection per
// store. Meant for single-node deployments and tests.
type memoryVectorStore struct {
	storeID       string
	embedder      Embedder
	recordManager RecordManager
}

type memEntry struct {
	key    string
	doc    schema.Document
	vector []float32
}

var (
	memCollectionsMu sync.RWMutex
	memCollections   = make(map[string][]memEntry)
)

func newMemoryVectorStore(inv Invocation) (VectorStore, error) {
	if inv.Embedder == nil {
		return nil, fmt.Errorf("memory vector store requires an embedder")
	}
	return &memoryVectorStore{
		storeID:       inv.StoreID,
		embedder:      inv.Embedder,
		recordManager: inv.RecordManager,
	}, nil
}

func (m *memoryVectorStore) Upsert(ctx context.Context, docs []schema.Document) (UpsertResult, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return UpsertResult{}, err
	}
	if len(vectors) != len(docs) {
		return UpsertResult{}, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	var deleted int
	if m.recordManager != nil {
		oldKeys, err := m.recordManager.ListKeys(ctx)
		if err != nil {
			return UpsertResult{}, err
		}
		deleted = len(oldKeys)
	}

	entries := make([]memEntry, len(docs))
	keys := make([]string, len(docs))
	for i, doc := range docs {
		key := recordKey(doc)
		keys[i] = key
		entries[i] = memEntry{key: key, doc: doc, vector: vectors[i]}
	}

	memCollectionsMu.Lock()
	memCollections[m.storeID] = entries
	memCollectionsMu.Unlock()

	if m.recordManager != nil {
		if err := m.recordManager.Update(ctx, keys); err != nil {
			return UpsertResult{}, err
		}
	}

	return UpsertResult{
		NumAdded:   len(docs),
		NumDeleted: deleted,
		TotalKeys:  keys,
		AddedDocs:  docs,
	}, nil
}

func (m *memoryVectorStore) Search(ctx context.Context, query string, topK int) ([]schema.Document, error) {
	queryVec, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	memCollectionsMu.RLock()
	entries := memCollections[m.storeID]
	memCollectionsMu.RUnlock()

	type scored struct {
		doc   schema.Document
		score float32
	}
	results := make([]scored, 0, len(entries))
	for _, e := range entries {
		results = append(results, scored{doc: e.doc, score: cosineSimilarity(queryVec, e.vector)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	docs := make([]schema.Document, len(results))
	for i, r := range results {
		r.doc.Score = r.score
		docs[i] = r.doc
	}
	return docs, nil
}

func (m *memoryVectorStore) Delete(ctx context.Context) error {
	if m.recordManager == nil {
		return fmt.Errorf("record manager is required to delete indexed data")
	}
	keys, err := m.recordManager.ListKeys(ctx)
	if err != nil {
		return err
	}

	memCollectionsMu.Lock()
	delete(memCollections, m.storeID)
	memCollectionsMu.Unlock()

	return m.recordManager.DeleteKeys(ctx, keys)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// mongoVectorStore persists embeddings in a MongoDB collection and queries
// them through the Atlas $vectorSearch stage.
type mongoVectorStore struct {
	storeID       string
	embedder      Embedder
	recordManager RecordManager
	coll          *mongo.Collection
	indexName     string
}

const vectorCollection = "vector_embeddings"

func newMongoVectorStore(inv Invocation) (VectorStore, error) {
	if inv.Embedder == nil {
		return nil, fmt.Errorf("mongo vector store requires an embedder")
	}
	if inv.Mongo == nil {
		return nil, fmt.Errorf("mongo vector store requires a database connection")
	}
	return &mongoVectorStore{
		storeID:       inv.StoreID,
		embedder:      inv.Embedder,
		recordManager: inv.RecordManager,
		coll:          inv.Mongo.Database(inv.DBName).Collection(vectorCollection),
		indexName:     stringOption(inv.Config, "indexName", "vector_index"),
	}, nil
}

func (m *mongoVectorStore) Upsert(ctx context.Context, docs []schema.Document) (UpsertResult, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return UpsertResult{}, err
	}
	if len(vectors) != len(docs) {
		return UpsertResult{}, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	var deleted int
	if m.recordManager != nil {
		oldKeys, err := m.recordManager.ListKeys(ctx)
		if err != nil {
			return UpsertResult{}, err
		}
		if len(oldKeys) > 0 {
			res, err := m.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oldKeys}})
			if err != nil {
				return UpsertResult{}, fmt.Errorf("failed to clear previous index: %w", err)
			}
			deleted = int(res.DeletedCount)
		}
	} else {
		if _, err := m.coll.DeleteMany(ctx, bson.M{"store_id": m.storeID}); err != nil {
			return UpsertResult{}, fmt.Errorf("failed to clear previous index: %w", err)
		}
	}

	rows := make([]interface{}, len(docs))
	keys := make([]string, len(docs))
	for i, doc := range docs {
		key := recordKey(doc)
		keys[i] = key
		rows[i] = bson.M{
			"_id":          key,
			"store_id":     m.storeID,
			"page_content": doc.PageContent,
			"metadata":     doc.Metadata,
			"embedding":    vectors[i],
		}
	}
	if len(rows) > 0 {
		if _, err := m.coll.InsertMany(ctx, rows); err != nil {
			return UpsertResult{}, fmt.Errorf("failed to insert embeddings: %w", err)
		}
	}

	if m.recordManager != nil {
		if err := m.recordManager.Update(ctx, keys); err != nil {
			return UpsertResult{}, err
		}
	}

	return UpsertResult{
		NumAdded:   len(docs),
		NumDeleted: deleted,
		TotalKeys:  keys,
		AddedDocs:  docs,
	}, nil
}

func (m *mongoVectorStore) Search(ctx context.Context, query string, topK int) ([]schema.Document, error) {
	queryVec, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 4
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.M{
			"index":         m.indexName,
			"path":          "embedding",
			"queryVector":   queryVec,
			"numCandidates": topK * 10,
			"limit":         topK,
			"filter":        bson.M{"store_id": m.storeID},
		}}},
		{{Key: "$project", Value: bson.M{
			"page_content": 1,
			"metadata":     1,
			"score":        bson.M{"$meta": "vectorSearchScore"},
		}}},
	}

	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []schema.Document
	for cursor.Next(ctx) {
		var row struct {
			PageContent string         `bson:"page_content"`
			Metadata    map[string]any `bson:"metadata"`
			Score       float64        `bson:"score"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		docs = append(docs, schema.Document{
			PageContent: row.PageContent,
			Metadata:    row.Metadata,
			Score:       float32(row.Score),
		})
	}
	return docs, cursor.Err()
}

func (m *mongoVectorStore) Delete(ctx context.Context) error {
	if m.recordManager == nil {
		return fmt.Errorf("record manager is required to delete indexed data")
	}
	keys, err := m.recordManager.ListKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if _, err := m.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
			return fmt.Errorf("failed to delete embeddings: %w", err)
		}
	}
	return m.recordManager.DeleteKeys(ctx, keys)
}
