package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"docstore-platform/models"
)

// NewMemoryRepositories returns repositories backed by process memory.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Stores:  &memoryStoreRepo{rows: make(map[string]models.DocumentStore)},
		Chunks:  &memoryChunkRepo{rows: make(map[string]models.Chunk)},
		History: &memoryHistoryRepo{},
	}
}

type memoryStoreRepo struct {
	mu   sync.RWMutex
	rows map[string]models.DocumentStore
}

func (r *memoryStoreRepo) Insert(_ context.Context, store *models.DocumentStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[store.ID] = *store
	return nil
}

func (r *memoryStoreRepo) GetByID(_ context.Context, id string) (*models.DocumentStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (r *memoryStoreRepo) List(_ context.Context, workspaceID string, page, limit int) ([]models.DocumentStore, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []models.DocumentStore
	for _, row := range r.rows {
		if workspaceID != "" && row.WorkspaceID != workspaceID {
			continue
		}
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })

	total := int64(len(all))
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * limit
		if start >= len(all) {
			return nil, total, nil
		}
		end := start + limit
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (r *memoryStoreRepo) Update(_ context.Context, store *models.DocumentStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[store.ID]; !ok {
		return ErrNotFound
	}
	store.UpdatedAt = time.Now()
	r.rows[store.ID] = *store
	return nil
}

func (r *memoryStoreRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type memoryChunkRepo struct {
	mu   sync.RWMutex
	rows map[string]models.Chunk
}

func (r *memoryChunkRepo) InsertMany(_ context.Context, chunks []models.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chunk := range chunks {
		r.rows[chunk.ID] = chunk
	}
	return nil
}

func (r *memoryChunkRepo) Get(_ context.Context, storeID, docID, chunkID string) (*models.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[chunkID]
	if !ok || row.StoreID != storeID || row.DocID != docID {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (r *memoryChunkRepo) List(_ context.Context, storeID, docID string, page, pageSize int) ([]models.Chunk, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []models.Chunk
	for _, row := range r.rows {
		if row.StoreID != storeID {
			continue
		}
		if docID != "" && docID != "all" && row.DocID != docID {
			continue
		}
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].DocID != all[j].DocID {
			return all[i].DocID < all[j].DocID
		}
		return all[i].ChunkNo < all[j].ChunkNo
	})

	total := int64(len(all))
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * pageSize
		if start >= len(all) {
			return nil, total, nil
		}
		end := start + pageSize
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (r *memoryChunkRepo) Update(_ context.Context, chunk *models.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[chunk.ID]; !ok {
		return ErrNotFound
	}
	r.rows[chunk.ID] = *chunk
	return nil
}

func (r *memoryChunkRepo) Delete(_ context.Context, storeID, docID, chunkID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[chunkID]
	if !ok || row.StoreID != storeID || row.DocID != docID {
		return ErrNotFound
	}
	delete(r.rows, chunkID)
	return nil
}

func (r *memoryChunkRepo) DeleteByDoc(_ context.Context, storeID, docID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, row := range r.rows {
		if row.StoreID == storeID && row.DocID == docID {
			delete(r.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryChunkRepo) DeleteByStore(_ context.Context, storeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, row := range r.rows {
		if row.StoreID == storeID {
			delete(r.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryChunkRepo) FindByContent(_ context.Context, storeID, pageContent string) (*models.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.rows {
		if row.StoreID == storeID && row.PageContent == pageContent {
			chunk := row
			return &chunk, nil
		}
	}
	return nil, ErrNotFound
}

type memoryHistoryRepo struct {
	mu   sync.RWMutex
	rows []models.UpsertHistory
}

func (r *memoryHistoryRepo) Insert(_ context.Context, record *models.UpsertHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *record)
	return nil
}

func (r *memoryHistoryRepo) ListByStore(_ context.Context, storeID string) ([]models.UpsertHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.UpsertHistory
	for _, row := range r.rows {
		if row.StoreID == storeID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *memoryHistoryRepo) DeleteByStore(_ context.Context, storeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.StoreID != storeID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}
