// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/go-uuid"
)

// StateKeyPrefix namespaces CSRF states within a StateStore.
const StateKeyPrefix = "steam:"

// DefaultStateLength is the number of random bytes in a state generated by
// NewState.
const DefaultStateLength = 16

// StateKey returns the StateStore key for a state value.
func StateKey(state string) string { return StateKeyPrefix + state }

// StateStore defines an interface for a key/value store with per entry
// expiration, used to hold CSRF states between the initiate and callback legs
// of an authentication attempt. Implementations must be concurrently safe.
type StateStore interface {
	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value stored under key. found is false when the key
	// doesn't exist or has expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// StateConsumer is an optional interface a StateStore can implement to get and
// delete a key in one atomic operation. When concurrent callbacks present the
// same state, at most one of them may observe found == true. Stores that don't
// implement it are consumed with a Get followed by a Delete, which is only
// single-use if the store serializes those calls itself.
type StateConsumer interface {
	Consume(ctx context.Context, key string) (value string, found bool, err error)
}

// NewState generates a cryptographically random, hex encoded state. It
// satisfies GenerateStateFunc.
func NewState() (string, error) {
	const op = "steam.NewState"
	b, err := uuid.GenerateRandomBytes(DefaultStateLength)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate state: %w", op, err)
	}
	return hex.EncodeToString(b), nil
}

// VerifyAndConsumeState reads the state stored under key, deletes it and
// reports whether it equals expected. A state can only be consumed once; a
// second call for the same key returns false. Errors are store failures.
func VerifyAndConsumeState(ctx context.Context, store StateStore, key, expected string) (bool, error) {
	const op = "steam.VerifyAndConsumeState"
	if store == nil {
		return false, fmt.Errorf("%s: missing state store: %w", op, ErrNilParameter)
	}
	if c, ok := store.(StateConsumer); ok {
		actual, found, err := c.Consume(ctx, key)
		if err != nil {
			return false, fmt.Errorf("%s: unable to consume state: %w", op, err)
		}
		return found && actual != "" && SafeEqual(actual, expected), nil
	}
	actual, found, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%s: unable to read state: %w", op, err)
	}
	if !found {
		return false, nil
	}
	if err := store.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("%s: unable to delete state: %w", op, err)
	}
	return actual != "" && SafeEqual(actual, expected), nil
}

// SafeEqual compares a and b in constant time.
func SafeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
