package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"

	"docstore-platform/internal/components"
	"docstore-platform/internal/config"
	"docstore-platform/internal/database"
	"docstore-platform/internal/logger"
	"docstore-platform/internal/storage"
	"docstore-platform/models"
)

// DocumentStoreService owns store lifecycle, loader processing and chunk
// management.
type DocumentStoreService struct {
	repos      *database.Repositories
	files      *storage.Store
	registries *components.Registries
	cfg        *config.Config
}

func NewDocumentStoreService(repos *database.Repositories, files *storage.Store, registries *components.Registries, cfg *config.Config) *DocumentStoreService {
	return &DocumentStoreService{repos: repos, files: files, registries: registries, cfg: cfg}
}

// LoaderRequest describes one loader configuration submitted for preview or
// processing.
type LoaderRequest struct {
	ID                string         `json:"id,omitempty"`
	LoaderID          string         `json:"loaderId"`
	LoaderName        string         `json:"loaderName,omitempty"`
	LoaderConfig      map[string]any `json:"loaderConfig"`
	SplitterID        string         `json:"splitterId,omitempty"`
	SplitterName      string         `json:"splitterName,omitempty"`
	SplitterConfig    map[string]any `json:"splitterConfig,omitempty"`
	Credential        string         `json:"credential,omitempty"`
	PreviewChunkCount int            `json:"previewChunkCount,omitempty"`
}

// PreviewResult carries the sample chunks of a preview run.
type PreviewResult struct {
	Chunks            []models.Chunk `json:"chunks"`
	TotalChunks       int            `json:"totalChunks"`
	PreviewChunkCount int            `json:"previewChunkCount"`
}

// ChunksPage is one page of stored chunks together with store context.
type ChunksPage struct {
	Chunks      []models.Chunk `json:"chunks"`
	Count       int64          `json:"count"`
	CurrentPage int            `json:"currentPage"`
	StoreName   string         `json:"storeName"`
	Description string         `json:"description"`
	DocID       string         `json:"docId"`
	Characters  int            `json:"characters"`
}

func (s *DocumentStoreService) Create(ctx context.Context, name, description, workspaceID string) (*models.DocumentStoreDTO, error) {
	now := time.Now()
	store := &models.DocumentStore{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Loaders:     "[]",
		WhereUsed:   "[]",
		Status:      models.StatusEmptySync,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Stores.Insert(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", "createDocumentStore", err)
	}
	return s.toDTO(store, "createDocumentStore")
}

func (s *DocumentStoreService) List(ctx context.Context, workspaceID string, page, limit int) ([]models.DocumentStoreDTO, int64, error) {
	stores, total, err := s.repos.Stores.List(ctx, workspaceID, page, limit)
	if err != nil {
		return nil, 0, internalError("documentStoreServices", "getAllDocumentStores", err)
	}
	dtos := make([]models.DocumentStoreDTO, 0, len(stores))
	for i := range stores {
		dto, err := s.toDTO(&stores[i], "getAllDocumentStores")
		if err != nil {
			return nil, 0, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, total, nil
}

func (s *DocumentStoreService) GetByID(ctx context.Context, id string) (*models.DocumentStoreDTO, error) {
	store, err := s.getStore(ctx, id, "getDocumentStoreById")
	if err != nil {
		return nil, err
	}
	return s.toDTO(store, "getDocumentStoreById")
}

func (s *DocumentStoreService) Update(ctx context.Context, id, name, description string) (*models.DocumentStoreDTO, error) {
	store, err := s.getStore(ctx, id, "updateDocumentStore")
	if err != nil {
		return nil, err
	}
	if name != "" {
		store.Name = name
	}
	store.Description = description
	if err := s.repos.Stores.Update(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", "updateDocumentStore", err)
	}
	return s.toDTO(store, "updateDocumentStore")
}

// Delete removes the store row and cascades to chunks, upsert history and
// uploaded files.
func (s *DocumentStoreService) Delete(ctx context.Context, id string) error {
	if _, err := s.getStore(ctx, id, "deleteDocumentStore"); err != nil {
		return err
	}
	if _, err := s.repos.Chunks.DeleteByStore(ctx, id); err != nil {
		return internalError("documentStoreServices", "deleteDocumentStore", err)
	}
	if err := s.repos.History.DeleteByStore(ctx, id); err != nil {
		return internalError("documentStoreServices", "deleteDocumentStore", err)
	}
	if err := s.files.RemoveAll(id); err != nil {
		logger.Warn("Failed to remove store files", "storeId", id, "error", err)
	}
	if err := s.repos.Stores.Delete(ctx, id); err != nil {
		return internalError("documentStoreServices", "deleteDocumentStore", err)
	}
	return nil
}

// SaveProcessingLoader persists the loader descriptor with status SYNCING
// before processing starts. Reprocessing an existing loader replaces its
// descriptor; inline uploads are persisted to the content store and the
// config rewritten to file markers.
func (s *DocumentStoreService) SaveProcessingLoader(ctx context.Context, storeID string, req LoaderRequest) (*models.Loader, error) {
	const op = "saveProcessingLoader"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}
	loaders, err := store.DecodeLoaders()
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	ldr := models.Loader{
		ID:             req.ID,
		LoaderID:       req.LoaderID,
		LoaderName:     req.LoaderName,
		LoaderConfig:   req.LoaderConfig,
		SplitterID:     req.SplitterID,
		SplitterName:   req.SplitterName,
		SplitterConfig: req.SplitterConfig,
		Credential:     req.Credential,
		Status:         models.StatusSyncing,
	}
	if ldr.ID == "" {
		ldr.ID = uuid.New().String()
	}
	if ldr.LoaderName == "" {
		ldr.LoaderName = ldr.LoaderID
	}

	idx := -1
	for i := range loaders {
		if loaders[i].ID == ldr.ID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		// keep previously uploaded files unless the new config replaces them
		ldr.Files = loaders[idx].Files
	}

	if err := s.persistInlineUploads(storeID, &ldr); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	ldr.Source = models.LoaderSource(ldr)

	if idx >= 0 {
		loaders[idx] = ldr
	} else {
		loaders = append(loaders, ldr)
	}

	if err := store.EncodeLoaders(loaders); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	store.Status = models.DeriveStatus(loaders)
	if err := s.repos.Stores.Update(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return &ldr, nil
}

// PreviewChunks runs the loader without persisting anything and returns a
// bounded sample. Crawling loaders are capped during preview.
func (s *DocumentStoreService) PreviewChunks(ctx context.Context, storeID string, req LoaderRequest) (*PreviewResult, error) {
	const op = "previewChunks"
	docs, err := s.runLoader(ctx, storeID, req, true)
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	total := len(docs)
	count := req.PreviewChunkCount
	if count <= 0 {
		count = 20
	}
	if len(docs) > count {
		docs = docs[:count]
	}

	chunks := make([]models.Chunk, len(docs))
	for i, doc := range docs {
		chunks[i] = models.Chunk{
			ID:          uuid.New().String(),
			DocID:       req.ID,
			StoreID:     storeID,
			ChunkNo:     i + 1,
			PageContent: sanitizeContent(doc.PageContent),
			Metadata:    encodeMetadata(doc.Metadata),
		}
	}
	return &PreviewResult{Chunks: chunks, TotalChunks: total, PreviewChunkCount: count}, nil
}

// ProcessLoader runs the full pipeline for one previously saved loader:
// rehydrate, load and split, replace the stored chunks wholesale, update
// totals and statuses. A failure marks the loader ERROR and leaves the store
// STALE.
func (s *DocumentStoreService) ProcessLoader(ctx context.Context, storeID, loaderID string) error {
	const op = "processLoader"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return err
	}
	loaders, err := store.DecodeLoaders()
	if err != nil {
		return internalError("documentStoreServices", op, err)
	}
	idx := -1
	for i := range loaders {
		if loaders[i].ID == loaderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return notFoundError("documentStoreServices", op,
			fmt.Errorf("loader %s not found in store %s", loaderID, storeID))
	}

	req := LoaderRequest{
		ID:             loaderID,
		LoaderID:       loaders[idx].LoaderID,
		LoaderConfig:   loaders[idx].LoaderConfig,
		SplitterID:     loaders[idx].SplitterID,
		SplitterConfig: loaders[idx].SplitterConfig,
		Credential:     loaders[idx].Credential,
	}

	docs, err := s.runLoader(ctx, storeID, req, false)
	if err == nil {
		err = s.replaceChunks(ctx, store, loaders, idx, docs)
	}
	if err != nil {
		loaders[idx].Status = models.StatusError
		loaders[idx].Error = err.Error()
		if encErr := store.EncodeLoaders(loaders); encErr == nil {
			store.Status = models.DeriveStatus(loaders)
			if updErr := s.repos.Stores.Update(ctx, store); updErr != nil {
				logger.Error("Failed to persist loader failure", "storeId", storeID, "loaderId", loaderID, "error", updErr)
			}
		}
		return internalError("documentStoreServices", op, err)
	}
	return nil
}

// replaceChunks swaps the stored chunks of one loader for the freshly split
// documents. Readers see an empty window between delete and insert; the
// totals and statuses are only updated once the insert succeeded.
func (s *DocumentStoreService) replaceChunks(ctx context.Context, store *models.DocumentStore, loaders []models.Loader, idx int, docs []schema.Document) error {
	if _, err := s.repos.Chunks.DeleteByDoc(ctx, store.ID, loaders[idx].ID); err != nil {
		return err
	}

	chunks := make([]models.Chunk, len(docs))
	totalChars := 0
	for i, doc := range docs {
		content := sanitizeContent(doc.PageContent)
		totalChars += len(content)
		chunks[i] = models.Chunk{
			ID:          uuid.New().String(),
			DocID:       loaders[idx].ID,
			StoreID:     store.ID,
			ChunkNo:     i + 1,
			PageContent: content,
			Metadata:    encodeMetadata(doc.Metadata),
		}
	}
	if err := s.repos.Chunks.InsertMany(ctx, chunks); err != nil {
		return err
	}

	loaders[idx].TotalChunks = len(chunks)
	loaders[idx].TotalChars = totalChars
	loaders[idx].Status = models.StatusSync
	loaders[idx].Error = ""

	if err := store.EncodeLoaders(loaders); err != nil {
		return err
	}
	store.Status = models.DeriveStatus(loaders)
	return s.repos.Stores.Update(ctx, store)
}

// DeleteLoader removes a loader and cascades to its chunks and files.
func (s *DocumentStoreService) DeleteLoader(ctx context.Context, storeID, loaderID string) (*models.DocumentStoreDTO, error) {
	const op = "deleteLoaderFromDocumentStore"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}
	loaders, err := store.DecodeLoaders()
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	idx := -1
	for i := range loaders {
		if loaders[i].ID == loaderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, notFoundError("documentStoreServices", op,
			fmt.Errorf("loader %s not found in store %s", loaderID, storeID))
	}

	for _, f := range loaders[idx].Files {
		if err := s.files.Remove(storeID, f.Name); err != nil {
			logger.Warn("Failed to remove loader file", "storeId", storeID, "file", f.Name, "error", err)
		}
	}
	if _, err := s.repos.Chunks.DeleteByDoc(ctx, storeID, loaderID); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	loaders = append(loaders[:idx], loaders[idx+1:]...)
	if err := store.EncodeLoaders(loaders); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	store.Status = models.DeriveStatus(loaders)
	if err := s.repos.Stores.Update(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return s.toDTO(store, op)
}

// GetChunks returns one page of chunks for a loader, or for the whole store
// when docID is "all".
func (s *DocumentStoreService) GetChunks(ctx context.Context, storeID, docID string, page int) (*ChunksPage, error) {
	const op = "getDocumentStoreFileChunks"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}
	loaders, err := store.DecodeLoaders()
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	characters := 0
	if docID == "all" {
		for _, ldr := range loaders {
			characters += ldr.TotalChars
		}
	} else {
		found := false
		for _, ldr := range loaders {
			if ldr.ID == docID {
				characters = ldr.TotalChars
				found = true
				break
			}
		}
		if !found {
			return nil, notFoundError("documentStoreServices", op,
				fmt.Errorf("loader %s not found in store %s", docID, storeID))
		}
	}

	chunks, total, err := s.repos.Chunks.List(ctx, storeID, docID, page, s.cfg.ChunkPageSize)
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	if page < 1 {
		page = 1
	}
	return &ChunksPage{
		Chunks:      chunks,
		Count:       total,
		CurrentPage: page,
		StoreName:   store.Name,
		Description: store.Description,
		DocID:       docID,
		Characters:  characters,
	}, nil
}

// EditChunk rewrites one chunk's content and metadata, adjusting the owning
// loader's character total by the delta.
func (s *DocumentStoreService) EditChunk(ctx context.Context, storeID, docID, chunkID, pageContent, metadata string) (*models.Chunk, error) {
	const op = "editDocumentStoreFileChunk"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}
	chunk, err := s.repos.Chunks.Get(ctx, storeID, docID, chunkID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, notFoundError("documentStoreServices", op,
				fmt.Errorf("chunk %s not found", chunkID))
		}
		return nil, internalError("documentStoreServices", op, err)
	}

	sanitized := sanitizeContent(pageContent)
	delta := len(sanitized) - len(chunk.PageContent)
	chunk.PageContent = sanitized
	chunk.Metadata = metadata
	if err := s.repos.Chunks.Update(ctx, chunk); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	if err := s.adjustLoaderTotals(ctx, store, docID, 0, delta); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return chunk, nil
}

// DeleteChunk removes one chunk and decrements the owning loader's totals.
func (s *DocumentStoreService) DeleteChunk(ctx context.Context, storeID, docID, chunkID string) error {
	const op = "deleteDocumentStoreFileChunk"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return err
	}
	chunk, err := s.repos.Chunks.Get(ctx, storeID, docID, chunkID)
	if err != nil {
		if err == database.ErrNotFound {
			return notFoundError("documentStoreServices", op,
				fmt.Errorf("chunk %s not found", chunkID))
		}
		return internalError("documentStoreServices", op, err)
	}
	if err := s.repos.Chunks.Delete(ctx, storeID, docID, chunkID); err != nil {
		return internalError("documentStoreServices", op, err)
	}
	if err := s.adjustLoaderTotals(ctx, store, docID, -1, -len(chunk.PageContent)); err != nil {
		return internalError("documentStoreServices", op, err)
	}
	return nil
}

// UpdateUsage reconciles the whereUsed set of every store against the list
// of stores one consumer currently references.
func (s *DocumentStoreService) UpdateUsage(ctx context.Context, usedByID string, storeIDs []string) error {
	const op = "updateDocumentStoreUsage"
	stores, _, err := s.repos.Stores.List(ctx, "", 0, 0)
	if err != nil {
		return internalError("documentStoreServices", op, err)
	}

	wanted := make(map[string]bool, len(storeIDs))
	for _, id := range storeIDs {
		wanted[id] = true
	}

	for i := range stores {
		store := &stores[i]
		used, err := store.DecodeWhereUsed()
		if err != nil {
			return internalError("documentStoreServices", op, err)
		}
		has := false
		for _, u := range used {
			if u == usedByID {
				has = true
				break
			}
		}

		changed := false
		if wanted[store.ID] && !has {
			used = append(used, usedByID)
			changed = true
		} else if !wanted[store.ID] && has {
			kept := used[:0]
			for _, u := range used {
				if u != usedByID {
					kept = append(kept, u)
				}
			}
			used = kept
			changed = true
		}
		if !changed {
			continue
		}
		if err := store.EncodeWhereUsed(used); err != nil {
			return internalError("documentStoreServices", op, err)
		}
		if err := s.repos.Stores.Update(ctx, store); err != nil {
			return internalError("documentStoreServices", op, err)
		}
	}
	return nil
}

// Refresh marks every loader of a store SYNCING and returns their ids so the
// caller can enqueue one processing task per loader.
func (s *DocumentStoreService) Refresh(ctx context.Context, storeID string) ([]string, error) {
	const op = "refreshDocStoreMiddleware"
	store, err := s.getStore(ctx, storeID, op)
	if err != nil {
		return nil, err
	}
	loaders, err := store.DecodeLoaders()
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}

	ids := make([]string, 0, len(loaders))
	for i := range loaders {
		loaders[i].Status = models.StatusSyncing
		ids = append(ids, loaders[i].ID)
	}
	if err := store.EncodeLoaders(loaders); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	store.Status = models.DeriveStatus(loaders)
	if err := s.repos.Stores.Update(ctx, store); err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return ids, nil
}

func (s *DocumentStoreService) getStore(ctx context.Context, id, op string) (*models.DocumentStore, error) {
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

func (s *DocumentStoreService) toDTO(store *models.DocumentStore, op string) (*models.DocumentStoreDTO, error) {
	dto, err := store.ToDTO()
	if err != nil {
		return nil, internalError("documentStoreServices", op, err)
	}
	return dto, nil
}

// runLoader resolves loader and splitter from the registries, rehydrates the
// config and executes the load.
func (s *DocumentStoreService) runLoader(ctx context.Context, storeID string, req LoaderRequest, preview bool) ([]schema.Document, error) {
	loaderFactory, err := s.registries.Loaders.Resolve(req.LoaderID)
	if err != nil {
		return nil, err
	}

	var splitter components.Splitter
	if req.SplitterID != "" {
		splitterFactory, err := s.registries.Splitters.Resolve(req.SplitterID)
		if err != nil {
			return nil, err
		}
		splitterCfg := withSplitterDefaults(req.SplitterConfig, s.cfg.MaxChunkSize, s.cfg.ChunkOverlap)
		if splitter, err = splitterFactory(splitterCfg); err != nil {
			return nil, err
		}
	}

	cfg, err := s.rehydrateConfig(storeID, req.LoaderConfig)
	if err != nil {
		return nil, err
	}

	return loaderFactory().Load(ctx, components.LoaderInput{
		Config:       cfg,
		Splitter:     splitter,
		Credential:   req.Credential,
		Preview:      preview,
		PreviewLimit: s.cfg.PreviewPageLimit,
	})
}

// withSplitterDefaults fills chunkSize and chunkOverlap from the service
// configuration when the stored splitter config leaves them unset.
func withSplitterDefaults(cfg map[string]any, size, overlap int) map[string]any {
	out := make(map[string]any, len(cfg)+2)
	for k, v := range cfg {
		out[k] = v
	}
	if _, ok := out["chunkSize"]; !ok && size > 0 {
		out["chunkSize"] = size
		if _, ok := out["chunkOverlap"]; !ok && overlap > 0 && overlap < size {
			out["chunkOverlap"] = overlap
		}
	}
	return out
}

// rehydrateConfig replaces file markers with inline data values fetched from
// the content store. The input map is not mutated.
func (s *DocumentStoreService) rehydrateConfig(storeID string, cfg map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(cfg))
	for key, value := range cfg {
		str, ok := value.(string)
		if !ok || !strings.HasPrefix(str, storage.Marker) {
			out[key] = value
			continue
		}
		names, err := storage.MarkerNames(str)
		if err != nil {
			return nil, err
		}
		uris := make([]string, 0, len(names))
		for _, name := range names {
			data, err := s.files.Get(storeID, name)
			if err != nil {
				return nil, err
			}
			uris = append(uris, storage.FormatDataURI(mimeForName(name), data, name))
		}
		if len(uris) == 1 {
			out[key] = uris[0]
		} else {
			encoded, _ := json.Marshal(uris)
			out[key] = string(encoded)
		}
	}
	return out, nil
}

// persistInlineUploads stores inline data values carried in the loader
// config and rewrites them to file markers. Any inline upload replaces the
// loader's previous file set wholesale; a request carrying several uploads
// keeps all of them.
func (s *DocumentStoreService) persistInlineUploads(storeID string, ldr *models.Loader) error {
	inline := false
	for _, value := range ldr.LoaderConfig {
		if str, ok := value.(string); ok && storage.IsDataURI(str) {
			inline = true
			break
		}
	}
	if !inline {
		return nil
	}

	for _, old := range ldr.Files {
		if err := s.files.Remove(storeID, old.Name); err != nil {
			logger.Warn("Failed to remove replaced file", "storeId", storeID, "file", old.Name, "error", err)
		}
	}
	ldr.Files = nil

	for key, value := range ldr.LoaderConfig {
		str, ok := value.(string)
		if !ok || !storage.IsDataURI(str) {
			continue
		}
		_, data, name, err := storage.ParseDataURI(str)
		if err != nil {
			return err
		}
		if name == "" {
			name = key
		}

		size, err := s.files.Add(storeID, name, data)
		if err != nil {
			return err
		}
		ldr.Files = append(ldr.Files, models.LoaderFile{
			ID:         uuid.New().String(),
			Name:       name,
			MimePrefix: mimeForName(name),
			Size:       size,
			Status:     models.StatusNew,
			Uploaded:   time.Now(),
		})
		ldr.LoaderConfig[key] = storage.MarkerValue([]string{name})
	}
	return nil
}

// adjustLoaderTotals applies chunk/char deltas to one loader entry and
// persists the store row.
func (s *DocumentStoreService) adjustLoaderTotals(ctx context.Context, store *models.DocumentStore, docID string, chunkDelta, charDelta int) error {
	loaders, err := store.DecodeLoaders()
	if err != nil {
		return err
	}
	for i := range loaders {
		if loaders[i].ID != docID {
			continue
		}
		loaders[i].TotalChunks += chunkDelta
		loaders[i].TotalChars += charDelta
		if loaders[i].TotalChunks < 0 {
			loaders[i].TotalChunks = 0
		}
		if loaders[i].TotalChars < 0 {
			loaders[i].TotalChars = 0
		}
		break
	}
	if err := store.EncodeLoaders(loaders); err != nil {
		return err
	}
	return s.repos.Stores.Update(ctx, store)
}

func sanitizeContent(content string) string {
	return strings.ReplaceAll(content, "\u0000", "")
}

func encodeMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func mimeForName(name string) string {
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".xlsx"), strings.HasSuffix(name, ".xls"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(name, ".md"):
		return "text/markdown"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	default:
		return "text/plain"
	}
}
