// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// WithAllowedReturnHosts provides an optional allowlist of hosts the callback
// may be served from. An empty list allows any host.
func WithAllowedReturnHosts(hosts ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAllowedReturnHosts = hosts
		}
	}
}

// WithAPIKey provides an optional Steam Web API key. When set, verified
// identities are enriched with the player's profile summary.
func WithAPIKey(k APIKey) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAPIKey = k
		}
	}
}

// WithStateGenerator provides an optional func used to generate the CSRF
// state for each authentication attempt. The default is NewState.
func WithStateGenerator(fn GenerateStateFunc) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withStateGenerator = fn
		}
	}
}

// WithStateStore provides an optional StateStore. Without one, the state is
// still required on the callback, but it is not checked for authenticity.
func WithStateStore(s StateStore) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withStateStore = s
		}
	}
}

// WithNonceStore provides an optional NonceStore used for replay protection.
func WithNonceStore(s NonceStore) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withNonceStore = s
		}
	}
}

// WithStateTTL overrides DefaultStateTTL
func WithStateTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withStateTTL = d
		}
	}
}

// WithNonceTTL overrides DefaultNonceTTL
func WithNonceTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withNonceTTL = d
		}
	}
}

// WithNonceSkew overrides DefaultNonceSkew, the maximum distance between a
// response nonce's timestamp and now.
func WithNonceSkew(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withNonceSkew = d
		}
	}
}

// WithTimeout overrides DefaultTimeout for requests made to Steam.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithEndpoint overrides the OpenID provider endpoint (SteamOpenIDEndpoint).
// It's primarily useful for testing.
func WithEndpoint(endpoint string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withEndpoint = endpoint
		}
	}
}

// WithAPIBaseURL overrides the Steam Web API base URL (SteamAPIBaseURL).
// It's primarily useful for testing.
func WithAPIBaseURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAPIBaseURL = u
		}
	}
}

// WithProviderCA provides an optional PEM encoded CA cert to use when sending
// requests to the provider.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLogger = l
		}
	}
}

// WithClock provides an optional clock, used when checking nonce freshness.
func WithClock(c clockwork.Clock) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withClock = c
		}
	}
}

// WithMetrics provides optional prometheus metrics (see NewMetrics).
func WithMetrics(m *Metrics) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withMetrics = m
		}
	}
}
