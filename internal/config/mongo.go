package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	storesCollection := db.Collection("document_stores")
	storeIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "workspace_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	}
	_, err := storesCollection.Indexes().CreateMany(context.Background(), storeIndexes)
	if err != nil {
		return err
	}

	chunksCollection := db.Collection("document_store_chunks")
	chunkIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "store_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "doc_id", Value: 1}, {Key: "chunk_no", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "page_content", Value: 1}},
		},
	}
	_, err = chunksCollection.Indexes().CreateMany(context.Background(), chunkIndexes)
	if err != nil {
		return err
	}

	historyCollection := db.Collection("upsert_history")
	historyIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "date", Value: -1}},
		},
	}
	_, err = historyCollection.Indexes().CreateMany(context.Background(), historyIndexes)
	if err != nil {
		return err
	}

	recordsCollection := db.Collection("index_records")
	recordIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "namespace", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err = recordsCollection.Indexes().CreateMany(context.Background(), recordIndexes)
	if err != nil {
		return err
	}

	return nil
}
