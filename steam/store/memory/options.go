// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"time"

	"github.com/hashicorp/cap-steam/steam"
)

// storeOptions is the set of available options for NewStore
type storeOptions struct {
	withDefaultTTL      time.Duration
	withCleanupInterval time.Duration
}

// storeDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func storeDefaults() storeOptions {
	return storeOptions{
		withDefaultTTL:      DefaultTTL,
		withCleanupInterval: DefaultCleanupInterval,
	}
}

// getStoreOpts gets the defaults and applies the opt overrides passed in.
func getStoreOpts(opt ...steam.Option) storeOptions {
	opts := storeDefaults()
	steam.ApplyOpts(&opts, opt...)
	return opts
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(d time.Duration) steam.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok && d > 0 {
			o.withDefaultTTL = d
		}
	}
}

// WithCleanupInterval overrides DefaultCleanupInterval. A value <= 0 disables
// the background cleanup; expired entries are still never returned.
func WithCleanupInterval(d time.Duration) steam.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withCleanupInterval = d
		}
	}
}
