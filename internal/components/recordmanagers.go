package components

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memoryRecordManager tracks indexed keys per namespace in process memory.
type memoryRecordManager struct {
	namespace string
}

var (
	memRecordsMu sync.RWMutex
	memRecords   = make(map[string]map[string]struct{})
)

func newMemoryRecordManager(inv Invocation) (RecordManager, error) {
	return &memoryRecordManager{namespace: inv.StoreID}, nil
}

func (m *memoryRecordManager) ListKeys(_ context.Context) ([]string, error) {
	memRecordsMu.RLock()
	defer memRecordsMu.RUnlock()
	keys := make([]string, 0, len(memRecords[m.namespace]))
	for key := range memRecords[m.namespace] {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *memoryRecordManager) Update(_ context.Context, keys []string) error {
	memRecordsMu.Lock()
	defer memRecordsMu.Unlock()
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	memRecords[m.namespace] = set
	return nil
}

func (m *memoryRecordManager) DeleteKeys(_ context.Context, keys []string) error {
	memRecordsMu.Lock()
	defer memRecordsMu.Unlock()
	for _, key := range keys {
		delete(memRecords[m.namespace], key)
	}
	if len(memRecords[m.namespace]) == 0 {
		delete(memRecords, m.namespace)
	}
	return nil
}

// mongoRecordManager tracks indexed keys in the index_records collection,
// one row per (namespace, key).
type mongoRecordManager struct {
	namespace string
	coll      *mongo.Collection
}

const recordCollection = "index_records"

func newMongoRecordManager(inv Invocation) (RecordManager, error) {
	return &mongoRecordManager{
		namespace: inv.StoreID,
		coll:      inv.Mongo.Database(inv.DBName).Collection(recordCollection),
	}, nil
}

func (m *mongoRecordManager) ListKeys(ctx context.Context) ([]string, error) {
	cursor, err := m.coll.Find(ctx, bson.M{"namespace": m.namespace})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var row struct {
			Key string `bson:"key"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		keys = append(keys, row.Key)
	}
	return keys, cursor.Err()
}

func (m *mongoRecordManager) Update(ctx context.Context, keys []string) error {
	if _, err := m.coll.DeleteMany(ctx, bson.M{"namespace": m.namespace}); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	now := time.Now()
	writes := make([]mongo.WriteModel, len(keys))
	for i, key := range keys {
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"namespace": m.namespace, "key": key}).
			SetUpdate(bson.M{"$set": bson.M{"updated_at": now}}).
			SetUpsert(true)
	}
	_, err := m.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

func (m *mongoRecordManager) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := m.coll.DeleteMany(ctx, bson.M{"namespace": m.namespace, "key": bson.M{"$in": keys}})
	return err
}
