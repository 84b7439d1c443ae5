// Package components holds the pluggable collaborators of the ingestion and
// indexing pipeline: document loaders, text splitters, embedders, vector
// stores and record managers. Each capability is resolved by name from a
// typed registry so stored configurations stay declarative.
package components

import (
	"context"

	"github.com/tmc/langchaingo/schema"
	"go.mongodb.org/mongo-driver/mongo"
)

// LoaderInput carries everything a loader needs for one run.
type LoaderInput struct {
	// Config is the stored loader configuration with file markers already
	// rehydrated to inline data values.
	Config map[string]any
	// Splitter chunks extracted text; nil means one document per source unit.
	Splitter Splitter
	// Credential is secret material stored alongside the loader, for sources
	// that need to authenticate.
	Credential string
	// Preview limits expensive loaders (crawlers) to a small sample.
	Preview bool
	// PreviewLimit caps crawled pages during preview runs; zero means the
	// built-in default.
	PreviewLimit int
}

// Loader extracts documents from a configured source.
type Loader interface {
	Load(ctx context.Context, input LoaderInput) ([]schema.Document, error)
}

// Splitter chunks a text into pieces.
type Splitter interface {
	Split(text string) ([]string, error)
}

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// UpsertResult summarizes a vector store write. TotalKeys and AddedDocs are
// bulky and get stripped before the result is persisted to history.
type UpsertResult struct {
	NumAdded   int               `json:"numAdded"`
	NumUpdated int               `json:"numUpdated"`
	NumSkipped int               `json:"numSkipped"`
	NumDeleted int               `json:"numDeleted"`
	TotalKeys  []string          `json:"totalKeys,omitempty"`
	AddedDocs  []schema.Document `json:"addedDocs,omitempty"`
}

// Stripped returns a copy safe to persist.
func (r UpsertResult) Stripped() UpsertResult {
	r.TotalKeys = nil
	r.AddedDocs = nil
	return r
}

// VectorStore indexes documents and answers similarity queries.
type VectorStore interface {
	Upsert(ctx context.Context, docs []schema.Document) (UpsertResult, error)
	Search(ctx context.Context, query string, topK int) ([]schema.Document, error)
	// Delete removes everything this store indexed for its namespace. It
	// relies on the record manager bound at construction.
	Delete(ctx context.Context) error
}

// RecordManager tracks which document keys have been indexed for one
// namespace, enabling clean incremental deletes.
type RecordManager interface {
	ListKeys(ctx context.Context) ([]string, error)
	Update(ctx context.Context, keys []string) error
	DeleteKeys(ctx context.Context, keys []string) error
}

// Invocation is what component factories receive: the stored parameter map
// plus resolved credential material and shared infrastructure handles.
type Invocation struct {
	StoreID       string
	Config        map[string]any
	Credential    string
	Embedder      Embedder
	RecordManager RecordManager
	Mongo         *mongo.Client
	DBName        string
}

// stringOption reads a string parameter with a default.
func stringOption(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

// intOption reads a numeric parameter with a default. JSON decoding yields
// float64 values, so both forms are accepted.
func intOption(cfg map[string]any, key string, def int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
