// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"fmt"
	"time"
)

// NonceStore defines a set-like store of seen response nonces, used for
// replay protection.
type NonceStore interface {
	// InsertIfAbsent adds nonce for ttl and reports whether it was absent.
	// It must be atomic: when concurrent callers insert the same nonce, at
	// most one of them observes wasAbsent == true.
	InsertIfAbsent(ctx context.Context, nonce string, ttl time.Duration) (wasAbsent bool, err error)
}

// StoreNonceOnce records nonce and reports whether this was its first use.
func StoreNonceOnce(ctx context.Context, store NonceStore, nonce string, ttl time.Duration) (bool, error) {
	const op = "steam.StoreNonceOnce"
	if store == nil {
		return false, fmt.Errorf("%s: missing nonce store: %w", op, ErrNilParameter)
	}
	if nonce == "" {
		return false, fmt.Errorf("%s: missing nonce: %w", op, ErrInvalidParameter)
	}
	stored, err := store.InsertIfAbsent(ctx, nonce, ttl)
	if err != nil {
		return false, fmt.Errorf("%s: unable to store nonce: %w", op, err)
	}
	return stored, nil
}
