// Package memory is an in-process key-value store, optionally seeded from
// JSON files on disk. Nothing is written back to disk.
package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"fintrack/internal/store"
)

// ErrQuotaExceeded mimics a full storage area.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

type Store struct {
	mu        sync.Mutex
	data      map[string][]byte
	saveErr   error
	loadErr   error
	saveCount int
}

var _ store.KeyValueStore = (*Store)(nil)

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// NewFromDir seeds the store from <dir>/<key>.json for every persisted
// key. Missing or unreadable files leave the key absent.
func NewFromDir(dir string) *Store {
	s := New()
	for _, key := range store.Keys {
		b, err := os.ReadFile(filepath.Join(dir, key+".json"))
		if err != nil || len(b) == 0 {
			continue
		}
		s.data[key] = b
	}
	return s
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *Store) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = slices.Clone(value)
	s.saveCount++
	return nil
}

// FailSaves makes every following Save return err. Pass nil to recover.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// FailLoads makes every following Load return err. Pass nil to recover.
func (s *Store) FailLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// Raw returns the stored bytes for key.
func (s *Store) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return slices.Clone(v), ok
}

// Put stores value without going through Save.
func (s *Store) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(value)
}

// Saves returns how many successful saves happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCount
}
