package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/peterbourgon/diskv/v3"

	apperrors "github.com/julianstephens/mono/internal/errors"
)

// DiskStore keeps one file per key under a directory, with an in-memory
// read cache. Writes reach disk in Set and Delete, so Save has nothing to do.
type DiskStore struct {
	path string
	d    *diskv.Diskv
}

func NewDiskStore(path string) *DiskStore {
	return &DiskStore{
		path: path,
		d: diskv.New(diskv.Options{
			BasePath:     path,
			TempDir:      path + ".tmp",
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024 * 1024, // 1MB
			FilePerm:     0600,
			PathPerm:     0700,
		}),
	}
}

func (s *DiskStore) Path() string { return s.path }

func (s *DiskStore) Load(_ context.Context) error {
	if err := os.MkdirAll(s.path, 0700); err != nil {
		return apperrors.Wrap("kv load", apperrors.KindOpen, err)
	}
	return nil
}

func (s *DiskStore) Get(key string) (json.RawMessage, bool, error) {
	if err := validKey(key); err != nil {
		return nil, false, apperrors.Wrap("kv get", apperrors.KindRead, err)
	}
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap("kv get "+key, apperrors.KindRead, err)
	}
	if !json.Valid(val) {
		return nil, false, apperrors.Wrap("kv get "+key, apperrors.KindRead, fmt.Errorf("stored value is not valid JSON"))
	}
	return json.RawMessage(val), true, nil
}

func (s *DiskStore) Set(key string, value json.RawMessage) error {
	if err := validKey(key); err != nil {
		return apperrors.Wrap("kv set", apperrors.KindWrite, err)
	}
	if !json.Valid(value) {
		return apperrors.Wrap("kv set "+key, apperrors.KindWrite, fmt.Errorf("value is not valid JSON"))
	}
	if err := s.d.Write(key, value); err != nil {
		return apperrors.Wrap("kv set "+key, apperrors.KindWrite, err)
	}
	return nil
}

func (s *DiskStore) Delete(key string) error {
	if err := validKey(key); err != nil {
		return apperrors.Wrap("kv delete", apperrors.KindWrite, err)
	}
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.Wrap("kv delete "+key, apperrors.KindWrite, err)
	}
	return nil
}

func (s *DiskStore) Keys() ([]string, error) {
	cancel := make(chan struct{})
	defer close(cancel)

	var keys []string
	for k := range s.d.Keys(cancel) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *DiskStore) Save() error { return nil }
