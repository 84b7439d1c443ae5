package models

import (
	"encoding/json"
	"time"
)

// DocumentStoreStatus tracks sync state for stores and their loaders
type DocumentStoreStatus string

const (
	StatusEmptySync DocumentStoreStatus = "EMPTY_SYNC" // no loaders yet, trivially in sync
	StatusSync      DocumentStoreStatus = "SYNC"
	StatusStale     DocumentStoreStatus = "STALE"
	StatusSyncing   DocumentStoreStatus = "SYNCING"
	StatusUpserting DocumentStoreStatus = "UPSERTING"
	StatusUpserted  DocumentStoreStatus = "UPSERTED"
	StatusNew       DocumentStoreStatus = "NEW"
	StatusError     DocumentStoreStatus = "ERROR"
)

// DocumentStore is the aggregate root owning loaders, their chunks and the
// vector indexing configuration. The loaders list and whereUsed set are
// persisted as JSON-encoded text blobs on the row; concurrent writers of the
// same store can therefore race on Save (read-modify-write, last write wins).
type DocumentStore struct {
	ID                  string              `bson:"_id" json:"id"`
	Name                string              `bson:"name" json:"name"`
	Description         string              `bson:"description,omitempty" json:"description,omitempty"`
	Loaders             string              `bson:"loaders" json:"loaders"`
	WhereUsed           string              `bson:"where_used" json:"whereUsed"`
	Status              DocumentStoreStatus `bson:"status" json:"status"`
	EmbeddingConfig     string              `bson:"embedding_config,omitempty" json:"embeddingConfig,omitempty"`
	VectorStoreConfig   string              `bson:"vector_store_config,omitempty" json:"vectorStoreConfig,omitempty"`
	RecordManagerConfig string              `bson:"record_manager_config,omitempty" json:"recordManagerConfig,omitempty"`
	WorkspaceID         string              `bson:"workspace_id" json:"workspaceId"`
	CreatedAt           time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updated_at" json:"updatedAt"`
}

// ComponentConfig is one named-collaborator slot (embedding, vector store or
// record manager): the registry name plus its parameter blob.
type ComponentConfig struct {
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// Loader is one element of the encoded loaders list: a source + splitter
// pairing together with the descriptors of its uploaded files and totals.
type Loader struct {
	ID             string              `json:"id"`
	LoaderID       string              `json:"loaderId"`
	LoaderName     string              `json:"loaderName"`
	LoaderConfig   map[string]any      `json:"loaderConfig"`
	SplitterID     string              `json:"splitterId,omitempty"`
	SplitterName   string              `json:"splitterName,omitempty"`
	SplitterConfig map[string]any      `json:"splitterConfig,omitempty"`
	Credential     string              `json:"credential,omitempty"`
	Files          []LoaderFile        `json:"files,omitempty"`
	TotalChunks    int                 `json:"totalChunks"`
	TotalChars     int                 `json:"totalChars"`
	Status         DocumentStoreStatus `json:"status"`
	Source         string              `json:"source,omitempty"`
	Error          string              `json:"error,omitempty"`
}

// LoaderFile describes one uploaded file persisted in the content store.
// Files are addressed by name only; the bytes live under the store's folder.
type LoaderFile struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	MimePrefix string              `json:"mimePrefix"`
	Size       int64               `json:"size"`
	Status     DocumentStoreStatus `json:"status"`
	Uploaded   time.Time           `json:"uploaded"`
}

// DecodeLoaders parses the encoded loaders blob. An empty blob is an empty list.
func (d *DocumentStore) DecodeLoaders() ([]Loader, error) {
	if d.Loaders == "" {
		return []Loader{}, nil
	}
	var loaders []Loader
	if err := json.Unmarshal([]byte(d.Loaders), &loaders); err != nil {
		return nil, err
	}
	return loaders, nil
}

// EncodeLoaders writes the loaders list back into the encoded blob.
func (d *DocumentStore) EncodeLoaders(loaders []Loader) error {
	b, err := json.Marshal(loaders)
	if err != nil {
		return err
	}
	d.Loaders = string(b)
	return nil
}

// DecodeWhereUsed parses the encoded whereUsed set.
func (d *DocumentStore) DecodeWhereUsed() ([]string, error) {
	if d.WhereUsed == "" {
		return []string{}, nil
	}
	var used []string
	if err := json.Unmarshal([]byte(d.WhereUsed), &used); err != nil {
		return nil, err
	}
	return used, nil
}

// EncodeWhereUsed writes the whereUsed set back into the encoded blob.
func (d *DocumentStore) EncodeWhereUsed(used []string) error {
	b, err := json.Marshal(used)
	if err != nil {
		return err
	}
	d.WhereUsed = string(b)
	return nil
}

// DeriveStatus recomputes the aggregate status from the loader statuses:
// EMPTY_SYNC with no loaders, SYNC when every loader is SYNC, otherwise STALE.
// UPSERTING/UPSERTED are set only by the vector indexing pipeline, never here.
func DeriveStatus(loaders []Loader) DocumentStoreStatus {
	if len(loaders) == 0 {
		return StatusEmptySync
	}
	for _, ldr := range loaders {
		if ldr.Status != StatusSync {
			return StatusStale
		}
	}
	return StatusSync
}

// DecodeComponentConfig parses one encoded collaborator slot. An empty slot
// returns nil.
func DecodeComponentConfig(encoded string) (*ComponentConfig, error) {
	if encoded == "" {
		return nil, nil
	}
	var cfg ComponentConfig
	if err := json.Unmarshal([]byte(encoded), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EncodeComponentConfig serializes one collaborator slot.
func EncodeComponentConfig(cfg *ComponentConfig) (string, error) {
	if cfg == nil {
		return "", nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
