// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package redis

import (
	"time"

	"github.com/hashicorp/cap-steam/steam"
)

// storeOptions is the set of available options for NewStore
type storeOptions struct {
	withKeyPrefix  string
	withDefaultTTL time.Duration
}

// storeDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func storeDefaults() storeOptions {
	return storeOptions{
		withKeyPrefix:  DefaultKeyPrefix,
		withDefaultTTL: DefaultTTL,
	}
}

// getStoreOpts gets the defaults and applies the opt overrides passed in.
func getStoreOpts(opt ...steam.Option) storeOptions {
	opts := storeDefaults()
	steam.ApplyOpts(&opts, opt...)
	return opts
}

// WithKeyPrefix overrides DefaultKeyPrefix. An empty prefix is allowed.
func WithKeyPrefix(p string) steam.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withKeyPrefix = p
		}
	}
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(d time.Duration) steam.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok && d > 0 {
			o.withDefaultTTL = d
		}
	}
}
