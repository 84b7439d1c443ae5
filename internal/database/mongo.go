package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docstore-platform/models"
)

const (
	storesCollection  = "document_stores"
	chunksCollection  = "document_store_chunks"
	historyCollection = "upsert_history"
)

// NewMongoRepositories wires every repository to one database handle.
func NewMongoRepositories(client *mongo.Client, dbName string) *Repositories {
	db := client.Database(dbName)
	return &Repositories{
		Stores:  &mongoStoreRepo{coll: db.Collection(storesCollection)},
		Chunks:  &mongoChunkRepo{coll: db.Collection(chunksCollection)},
		History: &mongoHistoryRepo{coll: db.Collection(historyCollection)},
	}
}

type mongoStoreRepo struct {
	coll *mongo.Collection
}

func (r *mongoStoreRepo) Insert(ctx context.Context, store *models.DocumentStore) error {
	_, err := r.coll.InsertOne(ctx, store)
	return err
}

func (r *mongoStoreRepo) GetByID(ctx context.Context, id string) (*models.DocumentStore, error) {
	var store models.DocumentStore
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&store)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *mongoStoreRepo) List(ctx context.Context, workspaceID string, page, limit int) ([]models.DocumentStore, int64, error) {
	filter := bson.M{}
	if workspaceID != "" {
		filter["workspace_id"] = workspaceID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var stores []models.DocumentStore
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

func (r *mongoStoreRepo) Update(ctx context.Context, store *models.DocumentStore) error {
	store.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": store.ID}, store)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoStoreRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoChunkRepo struct {
	coll *mongo.Collection
}

func (r *mongoChunkRepo) InsertMany(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]interface{}, len(chunks))
	for i := range chunks {
		rows[i] = chunks[i]
	}
	_, err := r.coll.InsertMany(ctx, rows)
	return err
}

func (r *mongoChunkRepo) Get(ctx context.Context, storeID, docID, chunkID string) (*models.Chunk, error) {
	var chunk models.Chunk
	err := r.coll.FindOne(ctx, bson.M{"_id": chunkID, "store_id": storeID, "doc_id": docID}).Decode(&chunk)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (r *mongoChunkRepo) List(ctx context.Context, storeID, docID string, page, pageSize int) ([]models.Chunk, int64, error) {
	filter := bson.M{"store_id": storeID}
	if docID != "" && docID != "all" {
		filter["doc_id"] = docID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}, {Key: "chunk_no", Value: 1}})
	if pageSize > 0 {
		opts.SetSkip(int64((page - 1) * pageSize)).SetLimit(int64(pageSize))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var chunks []models.Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, 0, err
	}
	return chunks, total, nil
}

func (r *mongoChunkRepo) Update(ctx context.Context, chunk *models.Chunk) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": chunk.ID}, chunk)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoChunkRepo) Delete(ctx context.Context, storeID, docID, chunkID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": chunkID, "store_id": storeID, "doc_id": docID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoChunkRepo) DeleteByDoc(ctx context.Context, storeID, docID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"store_id": storeID, "doc_id": docID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoChunkRepo) DeleteByStore(ctx context.Context, storeID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"store_id": storeID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoChunkRepo) FindByContent(ctx context.Context, storeID, pageContent string) (*models.Chunk, error) {
	var chunk models.Chunk
	err := r.coll.FindOne(ctx, bson.M{"store_id": storeID, "page_content": pageContent}).Decode(&chunk)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

type mongoHistoryRepo struct {
	coll *mongo.Collection
}

func (r *mongoHistoryRepo) Insert(ctx context.Context, record *models.UpsertHistory) error {
	_, err := r.coll.InsertOne(ctx, record)
	return err
}

func (r *mongoHistoryRepo) ListByStore(ctx context.Context, storeID string) ([]models.UpsertHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"store_id": storeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.UpsertHistory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *mongoHistoryRepo) DeleteByStore(ctx context.Context, storeID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"store_id": storeID})
	return err
}
