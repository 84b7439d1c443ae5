package models

import (
	"fmt"
	"strings"
	"time"
)

// DocumentStoreDTO is the outward projection of a store: loaders decoded from
// the blob, totals aggregated, and a human-readable source per loader.
type DocumentStoreDTO struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Description         string              `json:"description,omitempty"`
	Status              DocumentStoreStatus `json:"status"`
	Loaders             []Loader            `json:"loaders"`
	WhereUsed           []string            `json:"whereUsed"`
	TotalChunks         int                 `json:"totalChunks"`
	TotalChars          int                 `json:"totalChars"`
	EmbeddingConfig     *ComponentConfig    `json:"embeddingConfig,omitempty"`
	VectorStoreConfig   *ComponentConfig    `json:"vectorStoreConfig,omitempty"`
	RecordManagerConfig *ComponentConfig    `json:"recordManagerConfig,omitempty"`
	WorkspaceID         string              `json:"workspaceId"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// ToDTO decodes the entity blobs into the outward projection.
func (d *DocumentStore) ToDTO() (*DocumentStoreDTO, error) {
	loaders, err := d.DecodeLoaders()
	if err != nil {
		return nil, err
	}
	whereUsed, err := d.DecodeWhereUsed()
	if err != nil {
		return nil, err
	}

	dto := &DocumentStoreDTO{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Status:      d.Status,
		Loaders:     loaders,
		WhereUsed:   whereUsed,
		WorkspaceID: d.WorkspaceID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for i := range dto.Loaders {
		dto.Loaders[i].Source = LoaderSource(dto.Loaders[i])
		dto.TotalChunks += dto.Loaders[i].TotalChunks
		dto.TotalChars += dto.Loaders[i].TotalChars
	}

	if dto.EmbeddingConfig, err = DecodeComponentConfig(d.EmbeddingConfig); err != nil {
		return nil, err
	}
	if dto.VectorStoreConfig, err = DecodeComponentConfig(d.VectorStoreConfig); err != nil {
		return nil, err
	}
	if dto.RecordManagerConfig, err = DecodeComponentConfig(d.RecordManagerConfig); err != nil {
		return nil, err
	}
	return dto, nil
}

// LoaderSource summarizes where a loader's content came from: uploaded file
// names, a scraped URL, or the loader's display name as a fallback.
func LoaderSource(ldr Loader) string {
	if len(ldr.Files) > 0 {
		names := make([]string, len(ldr.Files))
		for i, f := range ldr.Files {
			names[i] = f.Name
		}
		return strings.Join(names, ", ")
	}
	if u, ok := ldr.LoaderConfig["url"].(string); ok && u != "" {
		return u
	}
	if txt, ok := ldr.LoaderConfig["text"].(string); ok && txt != "" {
		if len(txt) > 40 {
			return fmt.Sprintf("%s...", txt[:40])
		}
		return txt
	}
	return ldr.LoaderName
}
