package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
	"go.mongodb.org/mongo-driver/mongo"

	"docstore-platform/internal/components"
	"docstore-platform/internal/config"
	"docstore-platform/internal/database"
	"docstore-platform/internal/logger"
	"docstore-platform/models"
)

// VectorIndexService composes embedding, vector store and record manager
// collaborators from a store's saved configuration and drives the indexing
// lifecycle.
type VectorIndexService struct {
	repos      *database.Repositories
	registries *components.Registries
	mongo      *mongo.Client
	cfg        *config.Config
}

func NewVectorIndexService(repos *database.Repositories, registries *components.Registries, client *mongo.Client, cfg *config.Config) *VectorIndexService {
	return &VectorIndexService{repos: repos, registries: registries, mongo: client, cfg: cfg}
}

// IndexConfigRequest carries the collaborator selections for one store.
// A nil slot means "not provided"; a slot with an empty name clears the
// stored configuration.
type IndexConfigRequest struct {
	Embedding     *models.ComponentConfig `json:"embedding,omitempty"`
	VectorStore   *models.ComponentConfig `json:"vectorStore,omitempty"`
	RecordManager *models.ComponentConfig `json:"recordManager,omitempty"`
}

// QueryChunk is one similarity result mapped back to its stored chunk
// identity. Results whose content no longer matches any stored chunk carry a
// fresh id and chunk number -1.
type QueryChunk struct {
	ID          string  `json:"id"`
	ChunkNo     int     `json:"chunkNo"`
	PageContent string  `json:"pageContent"`
	Metadata    string  `json:"metadata"`
	Score       float32 `json:"score"`
}

// QueryResponse is the result of one similarity query.
type QueryResponse struct {
	TimeTaken int64        `json:"timeTaken"`
	Docs      []QueryChunk `json:"docs"`
}

// SaveConfig persists the collaborator slots. In strict mode the request is
// authoritative: slots it omits are cleared. In lenient mode omitted slots
// keep their stored value. Changing any slot after a successful upsert
// demotes the store from UPSERTED to SYNC, since the index no longer matches
// the saved composition.
func (s *VectorIndexService) SaveConfig(ctx context.Context, storeID string, req IndexConfigRequest, strict bool) (*models.DocumentStoreDTO, error) {
	const op = "saveVectorStoreConfig"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}

	changed := false
	apply := func(slot *string, cfg *models.ComponentConfig) error {
		if cfg == nil {
			if strict && *slot != "" {
				*slot = ""
				changed = true
			}
			return nil
		}
		if cfg.Name == "" {
			if *slot != "" {
				*slot = ""
				changed = true
			}
			return nil
		}
		encoded, err := models.EncodeComponentConfig(cfg)
		if err != nil {
			return err
		}
		if *slot != encoded {
			*slot = encoded
			changed = true
		}
		return nil
	}

	if err := apply(&store.EmbeddingConfig, req.Embedding); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	if err := apply(&store.VectorStoreConfig, req.VectorStore); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	if err := apply(&store.RecordManagerConfig, req.RecordManager); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	if changed && store.Status == models.StatusUpserted {
		store.Status = models.StatusSync
	}
	if err := s.repos.Stores.Update(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	dto, err := store.ToDTO()
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return dto, nil
}

// Upsert pushes every stored chunk through the configured embedding into the
// configured vector store. The store is marked UPSERTING before any work
// starts and promoted to UPSERTED only after the history record is written;
// a failure leaves the UPSERTING marker in place for the janitor to surface.
func (s *VectorIndexService) Upsert(ctx context.Context, storeID string) (*components.UpsertResult, error) {
	const op = "insertIntoVectorStore"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}
	if store.EmbeddingConfig == "" || store.VectorStoreConfig == "" {
		return nil, preconditionError("documentStoreServices", op,
			fmt.Errorf("embedding and vector store must be configured before upserting"))
	}

	store.Status = models.StatusUpserting
	if err := s.repos.Stores.Update(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	vs, err := s.compose(ctx, store, false)
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	chunks, _, err := s.repos.Chunks.List(ctx, storeID, "all", 0, 0)
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	docs := make([]schema.Document, len(chunks))
	for i, chunk := range chunks {
		meta := map[string]any{"recordKey": chunk.ID, "docId": chunk.DocID}
		var stored map[string]any
		if chunk.Metadata != "" {
			if err := json.Unmarshal([]byte(chunk.Metadata), &stored); err == nil {
				for k, v := range stored {
					meta[k] = v
				}
			}
		}
		docs[i] = schema.Document{PageContent: chunk.PageContent, Metadata: meta}
	}

	result, err := vs.Upsert(ctx, docs)
	if err != nil {
		logger.Error("Vector upsert failed, store left UPSERTING", "storeId", storeID, "error", err)
		return nil, internalError("documentStoreServices", op, err)
	}

	if err := s.recordHistory(ctx, store, result); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	store.Status = models.StatusUpserted
	if err := s.repos.Stores.Update(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return &result, nil
}

// Query runs a similarity search and maps each result back to its stored
// chunk by exact content match.
func (s *VectorIndexService) Query(ctx context.Context, storeID, query string, topK int) (*QueryResponse, error) {
	const op = "queryVectorStore"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}
	if store.EmbeddingConfig == "" || store.VectorStoreConfig == "" {
		return nil, preconditionError("documentStoreServices", op,
			fmt.Errorf("embedding and vector store must be configured before querying"))
	}

	vs, err := s.compose(ctx, store, false)
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	start := time.Now()
	found, err := vs.Search(ctx, query, topK)
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	docs := make([]QueryChunk, len(found))
	for i, doc := range found {
		qc := QueryChunk{
			ID:          uuid.New().String(),
			ChunkNo:     -1,
			PageContent: doc.PageContent,
			Metadata:    encodeMetadata(doc.Metadata),
			Score:       doc.Score,
		}
		if chunk, err := s.repos.Chunks.FindByContent(ctx, storeID, doc.PageContent); err == nil {
			qc.ID = chunk.ID
			qc.ChunkNo = chunk.ChunkNo
		}
		docs[i] = qc
	}
	return &QueryResponse{TimeTaken: time.Since(start).Milliseconds(), Docs: docs}, nil
}

// DeleteIndexed removes everything the store indexed. A record manager is
// mandatory, without one there is no authoritative list of indexed keys.
func (s *VectorIndexService) DeleteIndexed(ctx context.Context, storeID string) error {
	const op = "deleteVectorStoreFromStore"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return err
	}
	if store.EmbeddingConfig == "" || store.VectorStoreConfig == "" {
		return preconditionError("documentStoreServices", op,
			fmt.Errorf("embedding and vector store must be configured"))
	}
	if store.RecordManagerConfig == "" {
		return preconditionError("documentStoreServices", op,
			fmt.Errorf("record manager is required to delete indexed data"))
	}

	vs, err := s.compose(ctx, store, true)
	if err != nil {
		return internalError("documentStoreServices", op, err)
	}
	if err := vs.Delete(ctx); err != nil {
		return internalError("documentStoreServices", op, err)
	}
	return nil
}

// History returns the upsert journal of one store, newest first.
func (s *VectorIndexService) History(ctx context.Context, storeID string) ([]models.UpsertHistory, error) {
	const op = "getUpsertHistory"
	if _, err := s.getStore(ctx, storeID, op); err != nil {
		return nil, err
	}
	records, err := s.repos.History.ListByStore(ctx, storeID)
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return records, nil
}

// compose builds the collaborator chain from the stored slots.
func (s *VectorIndexService) compose(ctx context.Context, store *models.DocumentStore, requireRM bool) (components.VectorStore, error) {
	embCfg, err := models.DecodeComponentConfig(store.EmbeddingConfig)
	if err != nil {
		return nil, err
	}
	vsCfg, err := models.DecodeComponentConfig(store.VectorStoreConfig)
	if err != nil {
		return nil, err
	}
	rmCfg, err := models.DecodeComponentConfig(store.RecordManagerConfig)
	if err != nil {
		return nil, err
	}
	if requireRM && rmCfg == nil {
		return nil, fmt.Errorf("record manager is required")
	}

	embFactory, err := s.registries.Embedders.Resolve(embCfg.Name)
	if err != nil {
		return nil, err
	}
	embedder, err := embFactory(ctx, components.Invocation{
		StoreID:    store.ID,
		Config:     s.embeddingConfig(embCfg.Config),
		Credential: s.cfg.GeminiAPIKey,
		Mongo:      s.mongo,
		DBName:     s.cfg.DBName,
	})
	if err != nil {
		return nil, err
	}

	var recordManager components.RecordManager
	if rmCfg != nil {
		rmFactory, err := s.registries.RecordManagers.Resolve(rmCfg.Name)
		if err != nil {
			return nil, err
		}
		if recordManager, err = rmFactory(components.Invocation{
			StoreID: store.ID,
			Config:  rmCfg.Config,
			Mongo:   s.mongo,
			DBName:  s.cfg.DBName,
		}); err != nil {
			return nil, err
		}
	}

	vsFactory, err := s.registries.VectorStores.Resolve(vsCfg.Name)
	if err != nil {
		return nil, err
	}
	return vsFactory(components.Invocation{
		StoreID:       store.ID,
		Config:        vsCfg.Config,
		Embedder:      embedder,
		RecordManager: recordManager,
		Mongo:         s.mongo,
		DBName:        s.cfg.DBName,
	})
}

// embeddingConfig applies the process-level default model when the stored
// embedding config names none.
func (s *VectorIndexService) embeddingConfig(stored map[string]any) map[string]any {
	if s.cfg.GoogleEmbeddingsModel == "" {
		return stored
	}
	if _, ok := stored["modelName"]; ok {
		return stored
	}
	merged := make(map[string]any, len(stored)+1)
	for k, v := range stored {
		merged[k] = v
	}
	merged["modelName"] = s.cfg.GoogleEmbeddingsModel
	return merged
}

// recordHistory appends one journal row: the collaborator composition that
// ran plus the result with bulky bookkeeping fields stripped.
func (s *VectorIndexService) recordHistory(ctx context.Context, store *models.DocumentStore, result components.UpsertResult) error {
	flowData, err := json.Marshal(map[string]string{
		"embeddingConfig":     store.EmbeddingConfig,
		"vectorStoreConfig":   store.VectorStoreConfig,
		"recordManagerConfig": store.RecordManagerConfig,
	})
	if err != nil {
		return err
	}
	resultJSON, err := json.Marshal(result.Stripped())
	if err != nil {
		return err
	}
	return s.repos.History.Insert(ctx, &models.UpsertHistory{
		ID:       uuid.New().String(),
		StoreID:  store.ID,
		FlowData: string(flowData),
		Result:   string(resultJSON),
		Date:     time.Now(),
	})
}

func (s *VectorIndexService) getStore(ctx context.Context, id, op string) (*models.DocumentStore, error) {
	store, err := s.repos.Stores.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, notFoundError("documentStoreServices", op,
				fmt.Errorf("document store %s not found", id))
		}
		return nil, internalError("documentStoreServices", op, err)
	}
	return store, nil
}
