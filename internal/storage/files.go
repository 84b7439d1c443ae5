// Package storage is the content store for uploaded loader files. Files are
// addressed by (baseFolder, storeId, filename) on local disk and referenced
// from loader descriptors by name only.
package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Marker prefixes a loader config value that references previously stored
// files instead of carrying inline content.
const Marker = "FILE-STORAGE::"

const baseFolder = "docustore"

// Store persists uploaded files under root/baseFolder/storeId/filename.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) dir(storeID string) string {
	return filepath.Join(s.root, baseFolder, storeID)
}

// Add writes one file and returns its size in bytes.
func (s *Store) Add(storeID, name string, data []byte) (int64, error) {
	dir := s.dir(storeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create store folder: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write file %s: %w", name, err)
	}
	return int64(len(data)), nil
}

// Get reads one previously stored file.
func (s *Store) Get(storeID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir(storeID), filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return data, nil
}

// Remove deletes one file; removing a file that is already gone is not an error.
func (s *Store) Remove(storeID, name string) error {
	err := os.Remove(filepath.Join(s.dir(storeID), filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes every file belonging to a store.
func (s *Store) RemoveAll(storeID string) error {
	return os.RemoveAll(s.dir(storeID))
}

// MarkerValue encodes a set of stored file names as a config marker value.
func MarkerValue(names []string) string {
	b, _ := json.Marshal(names)
	return Marker + string(b)
}

// MarkerNames decodes the file names referenced by a marker value. A bare
// single name (no JSON array) is accepted for backwards compatibility.
func MarkerNames(value string) ([]string, error) {
	raw := strings.TrimPrefix(value, Marker)
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var names []string
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			return nil, fmt.Errorf("invalid storage marker %q: %w", value, err)
		}
		return names, nil
	}
	return []string{raw}, nil
}

// FormatDataURI builds the inline content form loaders consume:
// data:<mime>;base64,<payload>,filename:<name>
func FormatDataURI(mime string, data []byte, filename string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data) + ",filename:" + filename
}

// IsDataURI reports whether a config value carries inline base64 content.
func IsDataURI(value string) bool {
	return strings.HasPrefix(value, "data:") && strings.Contains(value, ";base64,")
}

// ParseDataURI splits an inline content value into mime type, payload and
// original filename.
func ParseDataURI(value string) (mime string, data []byte, filename string, err error) {
	if !IsDataURI(value) {
		return "", nil, "", fmt.Errorf("not an inline data value")
	}
	rest := strings.TrimPrefix(value, "data:")
	mime, rest, _ = strings.Cut(rest, ";base64,")

	if payload, name, ok := strings.Cut(rest, ",filename:"); ok {
		filename = name
		rest = payload
	}
	data, err = base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return "", nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return mime, data, filename, nil
}
