// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"sync"
	"time"
)

// testKVStore is a StateStore and NonceStore without an atomic Consume.
type testKVStore struct {
	mu      sync.Mutex
	m       map[string]string
	ttls    map[string]time.Duration
	deletes int
	err     error
}

func newTestKVStore() *testKVStore {
	return &testKVStore{m: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *testKVStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.m[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *testKVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *testKVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deletes++
	delete(s.m, key)
	return nil
}

func (s *testKVStore) InsertIfAbsent(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.m[nonce]; ok {
		return false, nil
	}
	s.m[nonce] = ""
	s.ttls[nonce] = ttl
	return true, nil
}

func (s *testKVStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	return ok
}

func (s *testKVStore) ttl(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

// testConsumerStore adds an atomic Consume to testKVStore.
type testConsumerStore struct {
	*testKVStore
}

func newTestConsumerStore() *testConsumerStore {
	return &testConsumerStore{testKVStore: newTestKVStore()}
}

func (s *testConsumerStore) Consume(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.m[key]
	delete(s.m, key)
	return v, ok, nil
}
