package components

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps component names to factories of one capability. Resolving an
// unknown name fails fast with the capability in the message so a stored
// configuration referencing a missing component surfaces immediately.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]T
}

func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, factories: make(map[string]T)}
}

func (r *Registry[T]) Register(name string, factory T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

func (r *Registry[T]) Resolve(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s component: %q", r.kind, name)
	}
	return f, nil
}

func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory signatures per capability.
type (
	LoaderFactory        func() Loader
	SplitterFactory      func(cfg map[string]any) (Splitter, error)
	EmbedderFactory      func(ctx context.Context, inv Invocation) (Embedder, error)
	VectorStoreFactory   func(inv Invocation) (VectorStore, error)
	RecordManagerFactory func(inv Invocation) (RecordManager, error)
)

// Registries bundles one registry per capability.
type Registries struct {
	Loaders        *Registry[LoaderFactory]
	Splitters      *Registry[SplitterFactory]
	Embedders      *Registry[EmbedderFactory]
	VectorStores   *Registry[VectorStoreFactory]
	RecordManagers *Registry[RecordManagerFactory]
}

// DefaultRegistries returns the registries preloaded with every built-in
// component.
func DefaultRegistries() *Registries {
	r := &Registries{
		Loaders:        NewRegistry[LoaderFactory]("loader"),
		Splitters:      NewRegistry[SplitterFactory]("splitter"),
		Embedders:      NewRegistry[EmbedderFactory]("embedder"),
		VectorStores:   NewRegistry[VectorStoreFactory]("vector store"),
		RecordManagers: NewRegistry[RecordManagerFactory]("record manager"),
	}

	r.Loaders.Register("plainText", func() Loader { return &plainTextLoader{} })
	r.Loaders.Register("pdfFile", func() Loader { return &pdfFileLoader{} })
	r.Loaders.Register("webScraper", func() Loader { return &webScraperLoader{} })
	r.Loaders.Register("spreadsheet", func() Loader { return &spreadsheetLoader{} })

	r.Splitters.Register("characterTextSplitter", newCharacterSplitter)
	r.Splitters.Register("recursiveCharacterTextSplitter", newRecursiveSplitter)
	r.Splitters.Register("markdownTextSplitter", newMarkdownSplitter)

	r.Embedders.Register("googleGenerativeAiEmbeddings", newGoogleEmbeddings)

	r.VectorStores.Register("memory", newMemoryVectorStore)
	r.VectorStores.Register("mongoDBAtlas", newMongoVectorStore)

	r.RecordManagers.Register("memory", newMemoryRecordManager)
	r.RecordManagers.Register("mongoDBRecordManager", newMongoRecordManager)

	return r
}
