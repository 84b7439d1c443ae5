// Package database holds the persistence layer behind the document store
// services. Interfaces keep the services testable; MongoDB implementations
// back the real deployment and in-memory ones back the tests.
package database

import (
	"context"
	"errors"

	"docstore-platform/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// DocumentStoreRepository persists document store rows.
type DocumentStoreRepository interface {
	Insert(ctx context.Context, store *models.DocumentStore) error
	GetByID(ctx context.Context, id string) (*models.DocumentStore, error)
	List(ctx context.Context, workspaceID string, page, limit int) ([]models.DocumentStore, int64, error)
	Update(ctx context.Context, store *models.DocumentStore) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository persists the chunk rows produced by loader processing.
type ChunkRepository interface {
	InsertMany(ctx context.Context, chunks []models.Chunk) error
	Get(ctx context.Context, storeID, docID, chunkID string) (*models.Chunk, error)
	// List returns one page of chunks ordered by chunk number. docID "all"
	// spans every loader of the store.
	List(ctx context.Context, storeID, docID string, page, pageSize int) ([]models.Chunk, int64, error)
	Update(ctx context.Context, chunk *models.Chunk) error
	Delete(ctx context.Context, storeID, docID, chunkID string) error
	DeleteByDoc(ctx context.Context, storeID, docID string) (int64, error)
	DeleteByStore(ctx context.Context, storeID string) (int64, error)
	// FindByContent locates a chunk by exact page content, used to map
	// similarity results back to stored chunk identities.
	FindByContent(ctx context.Context, storeID, pageContent string) (*models.Chunk, error)
}

// UpsertHistoryRepository persists the append-only vector upsert journal.
type UpsertHistoryRepository interface {
	Insert(ctx context.Context, record *models.UpsertHistory) error
	ListByStore(ctx context.Context, storeID string) ([]models.UpsertHistory, error)
	DeleteByStore(ctx context.Context, storeID string) error
}

// Repositories bundles every repository behind one handle.
type Repositories struct {
	Stores  DocumentStoreRepository
	Chunks  ChunkRepository
	History UpsertHistoryRepository
}
