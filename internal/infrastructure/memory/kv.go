package memory

import (
	"context"
	"sync"
)

// KVStore is an in-process key-value store. Values do not survive a restart.
type KVStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewKVStore() *KVStore {
	return &KVStore{m: make(map[string]string)}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// Ping satisfies health.Pinger.
func (s *KVStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
