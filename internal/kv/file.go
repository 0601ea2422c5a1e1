package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apperrors "github.com/julianstephens/mono/internal/errors"
)

// FileStore keeps every key in one JSON document. Set and Delete change
// memory only; Save writes the whole document atomically.
type FileStore struct {
	path string

	mu     sync.RWMutex
	data   map[string]json.RawMessage
	loaded bool
	dirty  bool
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, data: map[string]json.RawMessage{}}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.loaded = true
			return nil
		}
		return apperrors.Wrap("kv load", apperrors.KindOpen, err)
	}

	data := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return apperrors.Wrap("kv load", apperrors.KindRead, fmt.Errorf("parse %s: %w", s.path, err))
		}
	}
	s.data = data
	s.loaded = true
	return nil
}

func (s *FileStore) Get(key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *FileStore) Set(key string, value json.RawMessage) error {
	if err := validKey(key); err != nil {
		return apperrors.Wrap("kv set", apperrors.KindWrite, err)
	}
	if !json.Valid(value) {
		return apperrors.Wrap("kv set "+key, apperrors.KindWrite, fmt.Errorf("value is not valid JSON"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := make(json.RawMessage, len(value))
	copy(v, value)
	s.data[key] = v
	s.dirty = true
	return nil
}

func (s *FileStore) Delete(key string) error {
	if err := validKey(key); err != nil {
		return apperrors.Wrap("kv delete", apperrors.KindWrite, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.dirty = true
	}
	return nil
}

func (s *FileStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Save writes the document to a temp file in the same directory and renames
// it over the original, so a crash never leaves a half-written store.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return apperrors.Wrap("kv save", apperrors.KindWrite, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return apperrors.Wrap("kv save", apperrors.KindWrite, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperrors.Wrap("kv save", apperrors.KindWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return apperrors.Wrap("kv save", apperrors.KindWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.Wrap("kv save", apperrors.KindWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap("kv save", apperrors.KindWrite, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return apperrors.Wrap("kv save", apperrors.KindWrite, err)
	}

	s.dirty = false
	return nil
}
