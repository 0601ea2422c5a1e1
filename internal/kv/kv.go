// Package kv is the key-value settings store. Values are JSON documents kept
// under string keys and wrapped as {"value": T} on disk.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/julianstephens/mono/internal/constants"
	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/logger"
)

// Store is a key-value store addressed by string keys.
type Store interface {
	// Load reads persisted state. Calling it again is a no-op.
	Load(ctx context.Context) error
	// Get returns the raw stored document for key and whether it was present.
	Get(key string) (json.RawMessage, bool, error)
	Set(key string, value json.RawMessage) error
	Delete(key string) error
	Keys() ([]string, error)
	// Save persists pending changes.
	Save() error
	Path() string
}

type wrapped[T any] struct {
	Value T `json:"value"`
}

// GetValue reads key and unwraps its {"value": T} envelope.
func GetValue[T any](s Store, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return zero, false, err
	}
	var w wrapped[T]
	if err := json.Unmarshal(raw, &w); err != nil {
		return zero, false, apperrors.Wrap("kv get "+key, apperrors.KindRead, err)
	}
	return w.Value, true, nil
}

// SetValue wraps v as {"value": v} and stores it under key. It does not Save.
func SetValue[T any](s Store, key string, v T) error {
	raw, err := json.Marshal(wrapped[T]{Value: v})
	if err != nil {
		return apperrors.Wrap("kv set "+key, apperrors.KindWrite, err)
	}
	return s.Set(key, raw)
}

// New builds an unloaded store for backend at path.
func New(backend, path string) (Store, error) {
	switch backend {
	case constants.KVBackendFile, "":
		return NewFileStore(path), nil
	case constants.KVBackendDisk:
		return NewDiskStore(path), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", backend)
	}
}

var (
	handlesMu sync.Mutex
	handles   = map[string]Store{}
)

// Open returns the loaded store for path, reusing the handle opened earlier
// in this process. A store that fails to load is not cached.
func Open(ctx context.Context, backend, path string) (Store, error) {
	key := filepath.Clean(path)

	handlesMu.Lock()
	defer handlesMu.Unlock()

	if s, ok := handles[key]; ok {
		return s, nil
	}

	s, err := New(backend, key)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Opened key-value store", "backend", backend, "path", key)
	handles[key] = s
	return s, nil
}

// Release drops the cached handle for path so the next Open reloads it.
func Release(path string) {
	handlesMu.Lock()
	delete(handles, filepath.Clean(path))
	handlesMu.Unlock()
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if filepath.Base(key) != key || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
