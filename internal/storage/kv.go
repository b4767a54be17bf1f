// Package storage provides the persisted key-value primitive shared by the
// controller and the companion window. Values are JSON blobs addressed by a
// string key; reads of missing keys report ErrNotFound.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound indicates the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string-keyed JSON blob store.
type Store interface {
	// Get unmarshals the value stored under key into the provided target.
	Get(key string, into any) error
	// Set marshals value and stores it under key, replacing any prior value.
	Set(key string, value any) error
}

// FileStore keeps one JSON file per key inside a base directory.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Get implements Store.
func (store *FileStore) Get(key string, into any) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	rawData, err := os.ReadFile(store.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read key %q: %w", key, err)
	}
	if err := json.Unmarshal(rawData, into); err != nil {
		return fmt.Errorf("parse key %q: %w", key, err)
	}
	return nil
}

// Set implements Store.
func (store *FileStore) Set(key string, value any) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	serialized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal key %q: %w", key, err)
	}
	if err := os.WriteFile(store.pathFor(key), serialized, 0o644); err != nil {
		return fmt.Errorf("write key %q: %w", key, err)
	}
	return nil
}

func (store *FileStore) pathFor(key string) string {
	// Keys may contain separators ("focus.tasks"); flatten to a file name.
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(store.baseDir, name+".json")
}

// MemoryStore is an in-memory Store used in tests and as a fallback when the
// on-disk store cannot be created.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]json.RawMessage)}
}

// Get implements Store.
func (store *MemoryStore) Get(key string, into any) error {
	store.mu.Lock()
	raw, ok := store.values[key]
	store.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("parse key %q: %w", key, err)
	}
	return nil
}

// Set implements Store.
func (store *MemoryStore) Set(key string, value any) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal key %q: %w", key, err)
	}
	store.mu.Lock()
	store.values[key] = serialized
	store.mu.Unlock()
	return nil
}
