// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package memory provides an in-process steam.StateStore and steam.NonceStore.
// Entries are only shared within one process, so it's suited to single
// instance deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/cap-steam/steam"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL is used when an entry is stored without a ttl.
	DefaultTTL = 10 * time.Minute

	// DefaultCleanupInterval is how often expired entries are purged.
	DefaultCleanupInterval = time.Minute

	noncePrefix = "nonce:"
)

// Store is a go-cache backed store. It satisfies steam.StateStore,
// steam.StateConsumer and steam.NonceStore and is concurrently safe.
type Store struct {
	// mu serializes writers so Consume is a single get-and-delete.
	mu sync.Mutex
	c  *gocache.Cache
}

var (
	_ steam.StateStore    = (*Store)(nil)
	_ steam.StateConsumer = (*Store)(nil)
	_ steam.NonceStore    = (*Store)(nil)
)

// NewStore creates a new in-memory store.
//
// Supported options:
//   - WithDefaultTTL
//   - WithCleanupInterval
func NewStore(opt ...steam.Option) *Store {
	opts := getStoreOpts(opt...)
	return &Store{c: gocache.New(opts.withDefaultTTL, opts.withCleanupInterval)}
}

// Set stores value under key for ttl. A ttl <= 0 uses the store's default
// ttl.
func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	const op = "memory.(Store).Set"
	if key == "" {
		return fmt.Errorf("%s: missing key: %w", op, steam.ErrInvalidParameter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Set(key, value, expiration(ttl))
	return nil
}

// Get returns the unexpired value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	v, found := s.c.Get(key)
	if !found {
		return "", false, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return str, true, nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Delete(key)
	return nil
}

// Consume gets and deletes key. Of several concurrent calls for the same key,
// only one will find it.
func (s *Store) Consume(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, found := s.c.Get(key)
	if !found {
		return "", false, nil
	}
	s.c.Delete(key)
	str, ok := v.(string)
	return str, ok, nil
}

// InsertIfAbsent records nonce for ttl and reports whether it was absent.
func (s *Store) InsertIfAbsent(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	const op = "memory.(Store).InsertIfAbsent"
	if nonce == "" {
		return false, fmt.Errorf("%s: missing nonce: %w", op, steam.ErrInvalidParameter)
	}
	// Add fails when an unexpired item already exists
	if err := s.c.Add(noncePrefix+nonce, struct{}{}, expiration(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

// ItemCount returns the number of entries in the store, including expired
// entries that haven't been cleaned up yet.
func (s *Store) ItemCount() int {
	return s.c.ItemCount()
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.DefaultExpiration
	}
	return ttl
}
