// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package redis provides a steam.StateStore and steam.NonceStore backed by
// Redis, for relying parties that run more than one instance. Consume uses
// GETDEL (Redis >= 6.2) and InsertIfAbsent uses SET NX, so single use holds
// across instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/cap-steam/steam"
	rdb "github.com/redis/go-redis/v9"
)

const (
	// DefaultKeyPrefix namespaces every key written by the store.
	DefaultKeyPrefix = "cap-steam:"

	// DefaultTTL is used when an entry is stored without a ttl.
	DefaultTTL = 10 * time.Minute

	noncePrefix = "nonce:"
)

// Store is a Redis backed store. It satisfies steam.StateStore,
// steam.StateConsumer and steam.NonceStore.
type Store struct {
	client     rdb.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

var (
	_ steam.StateStore    = (*Store)(nil)
	_ steam.StateConsumer = (*Store)(nil)
	_ steam.NonceStore    = (*Store)(nil)
)

// NewStore creates a new store using client. The caller owns the client and
// is responsible for closing it.
//
// Supported options:
//   - WithKeyPrefix
//   - WithDefaultTTL
func NewStore(client rdb.UniversalClient, opt ...steam.Option) (*Store, error) {
	const op = "redis.NewStore"
	if client == nil {
		return nil, fmt.Errorf("%s: missing redis client: %w", op, steam.ErrNilParameter)
	}
	opts := getStoreOpts(opt...)
	return &Store{
		client:     client,
		prefix:     opts.withKeyPrefix,
		defaultTTL: opts.withDefaultTTL,
	}, nil
}

// NewClient is a convenience func that creates a client for addr (host:port)
// and db, and checks it can be reached.
func NewClient(ctx context.Context, addr string, db int) (*rdb.Client, error) {
	const op = "redis.NewClient"
	if addr == "" {
		return nil, fmt.Errorf("%s: missing address: %w", op, steam.ErrInvalidParameter)
	}
	c := rdb.NewClient(&rdb.Options{Addr: addr, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%s: unable to ping redis: %w", op, err)
	}
	return c, nil
}

// Set stores value under key for ttl. A ttl <= 0 uses the store's default
// ttl.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "redis.(Store).Set"
	if key == "" {
		return fmt.Errorf("%s: missing key: %w", op, steam.ErrInvalidParameter)
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl(ttl)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "redis.(Store).Get"
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	switch {
	case errors.Is(err, rdb.Nil):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "redis.(Store).Delete"
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Consume atomically gets and deletes key.
func (s *Store) Consume(ctx context.Context, key string) (string, bool, error) {
	const op = "redis.(Store).Consume"
	v, err := s.client.GetDel(ctx, s.prefix+key).Result()
	switch {
	case errors.Is(err, rdb.Nil):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}

// InsertIfAbsent records nonce for ttl and reports whether it was absent.
func (s *Store) InsertIfAbsent(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	const op = "redis.(Store).InsertIfAbsent"
	if nonce == "" {
		return false, fmt.Errorf("%s: missing nonce: %w", op, steam.ErrInvalidParameter)
	}
	ok, err := s.client.SetNX(ctx, s.prefix+noncePrefix+nonce, 1, s.ttl(ttl)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

func (s *Store) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	return ttl
}
