// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/cap-steam/steam/internal/strutils"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultStateTTL is how long a CSRF state stays valid in the StateStore.
	DefaultStateTTL = 10 * time.Minute

	// DefaultNonceTTL is how long a response nonce is remembered by the
	// NonceStore.
	DefaultNonceTTL = 10 * time.Minute

	// DefaultNonceSkew is the maximum allowed distance between a response
	// nonce's timestamp and now.
	DefaultNonceSkew = 5 * time.Minute

	// DefaultTimeout bounds each request made to Steam.
	DefaultTimeout = 10 * time.Second
)

// APIKey is a Steam Web API key
type APIKey string

// RedactedAPIKey is the redacted string or json for a Steam Web API key
const RedactedAPIKey = "[REDACTED: api key]"

// String will redact the api key
func (k APIKey) String() string {
	return RedactedAPIKey
}

// MarshalJSON will redact the api key
func (k APIKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAPIKey)
}

// GenerateStateFunc generates an opaque CSRF state value.
type GenerateStateFunc func() (string, error)

// Config represents the configuration for a Steam OpenID 2.0 relying party.
// A Config should be treated as immutable once it has been used to create a
// RelyingParty.
type Config struct {
	// Realm is the URL prefix the relying party controls, for example
	// "https://example.com/". (required)
	Realm string

	// ReturnURL is the absolute callback URL Steam redirects back to. It must
	// be within the Realm. (required)
	ReturnURL string

	// AllowedReturnHosts is an optional allowlist of hosts the callback may
	// be served from. An empty list allows any host; deployments behind
	// shared proxies should set it.
	AllowedReturnHosts []string

	// APIKey is an optional Steam Web API key used to enrich verified
	// identities with a profile summary.
	APIKey APIKey

	// GenerateState generates the CSRF state for each authentication
	// attempt.
	GenerateState GenerateStateFunc

	// StateStore is an optional store for CSRF states.
	StateStore StateStore

	// NonceStore is an optional store used for replay protection.
	NonceStore NonceStore

	// StateTTL, NonceTTL, NonceSkew and Timeout default to their Default*
	// constants.
	StateTTL  time.Duration
	NonceTTL  time.Duration
	NonceSkew time.Duration
	Timeout   time.Duration

	// Endpoint is the OpenID provider endpoint. Defaults to
	// SteamOpenIDEndpoint.
	Endpoint string

	// APIBaseURL is the Steam Web API base URL. Defaults to SteamAPIBaseURL.
	APIBaseURL string

	// ProviderCA is an optional CA cert to use when sending requests to Steam.
	ProviderCA string

	// Logger is an optional logger.
	Logger hclog.Logger

	// Clock is used when checking nonce freshness.
	Clock clockwork.Clock

	// Metrics are optional prometheus metrics.
	Metrics *Metrics
}

// NewConfig composes a new config for a relying party.
//
// Supported options:
//   - WithAllowedReturnHosts
//   - WithAPIKey
//   - WithStateGenerator
//   - WithStateStore
//   - WithNonceStore
//   - WithStateTTL, WithNonceTTL, WithNonceSkew, WithTimeout
//   - WithEndpoint, WithAPIBaseURL, WithProviderCA
//   - WithLogger, WithClock, WithMetrics
func NewConfig(realm, returnURL string, opt ...Option) (*Config, error) {
	const op = "steam.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Realm:              realm,
		ReturnURL:          returnURL,
		AllowedReturnHosts: opts.withAllowedReturnHosts,
		APIKey:             opts.withAPIKey,
		GenerateState:      opts.withStateGenerator,
		StateStore:         opts.withStateStore,
		NonceStore:         opts.withNonceStore,
		StateTTL:           opts.withStateTTL,
		NonceTTL:           opts.withNonceTTL,
		NonceSkew:          opts.withNonceSkew,
		Timeout:            opts.withTimeout,
		Endpoint:           opts.withEndpoint,
		APIBaseURL:         opts.withAPIBaseURL,
		ProviderCA:         opts.withProviderCA,
		Logger:             opts.withLogger,
		Clock:              opts.withClock,
		Metrics:            opts.withMetrics,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid relying party config: %w", op, err)
	}
	return c, nil
}

// Validate the relying party configuration. Every problem found is reported,
// not just the first one.
func (c *Config) Validate() error {
	const op = "steam.(Config).Validate"
	if c == nil {
		return fmt.Errorf("%s: relying party config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	realm, err := parseHTTPURL(c.Realm)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: realm %q is invalid: %w", op, c.Realm, ErrInvalidParameter))
	}
	returnURL, err := parseHTTPURL(c.ReturnURL)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: return URL %q is invalid: %w", op, c.ReturnURL, ErrInvalidParameter))
	}
	if realm != nil && returnURL != nil && !WithinRealm(c.Realm, c.ReturnURL) {
		result = multierror.Append(result, fmt.Errorf("%s: return URL %q is not within realm %q: %w", op, c.ReturnURL, c.Realm, ErrInvalidParameter))
	}
	if len(c.AllowedReturnHosts) > 0 && returnURL != nil && !IsAllowedHost(c.ReturnURL, c.AllowedReturnHosts) {
		result = multierror.Append(result, fmt.Errorf("%s: return URL host %q is not an allowed return host: %w", op, returnURL.Host, ErrInvalidParameter))
	}
	for name, d := range map[string]time.Duration{
		"state ttl":  c.StateTTL,
		"nonce ttl":  c.NonceTTL,
		"nonce skew": c.NonceSkew,
		"timeout":    c.Timeout,
	} {
		if d < 0 {
			result = multierror.Append(result, fmt.Errorf("%s: %s is negative: %w", op, name, ErrInvalidParameter))
		}
	}
	if c.Endpoint != "" {
		if _, err := parseHTTPURL(c.Endpoint); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: endpoint %q is invalid: %w", op, c.Endpoint, ErrInvalidParameter))
		}
	}
	if c.APIBaseURL != "" {
		if _, err := parseHTTPURL(c.APIBaseURL); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: api base URL %q is invalid: %w", op, c.APIBaseURL, ErrInvalidParameter))
		}
	}
	if c.ProviderCA != "" {
		if ok := x509.NewCertPool().AppendCertsFromPEM([]byte(c.ProviderCA)); !ok {
			result = multierror.Append(result, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert))
		}
	}
	return result.ErrorOrNil()
}

// clone returns a copy of the config with defaults applied.
func (c *Config) clone() *Config {
	cp := *c
	cp.AllowedReturnHosts = append([]string(nil), c.AllowedReturnHosts...)
	if cp.GenerateState == nil {
		cp.GenerateState = NewState
	}
	if cp.StateTTL == 0 {
		cp.StateTTL = DefaultStateTTL
	}
	if cp.NonceTTL == 0 {
		cp.NonceTTL = DefaultNonceTTL
	}
	if cp.NonceSkew == 0 {
		cp.NonceSkew = DefaultNonceSkew
	}
	if cp.Timeout == 0 {
		cp.Timeout = DefaultTimeout
	}
	if cp.Endpoint == "" {
		cp.Endpoint = SteamOpenIDEndpoint
	}
	if cp.APIBaseURL == "" {
		cp.APIBaseURL = SteamAPIBaseURL
	}
	if cp.Logger == nil {
		cp.Logger = hclog.NewNullLogger()
	}
	if cp.Clock == nil {
		cp.Clock = clockwork.NewRealClock()
	}
	return &cp
}

// parseHTTPURL parses an absolute http(s) URL.
func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := parseAbsoluteURL(raw)
	if err != nil {
		return nil, err
	}
	if !strutils.StrListContains([]string{"http", "https"}, u.Scheme) {
		return nil, fmt.Errorf("scheme %q is not http or https: %w", u.Scheme, ErrInvalidParameter)
	}
	return u, nil
}

// configOptions is the set of available options for NewConfig
type configOptions struct {
	withAllowedReturnHosts []string
	withAPIKey             APIKey
	withStateGenerator     GenerateStateFunc
	withStateStore         StateStore
	withNonceStore         NonceStore
	withStateTTL           time.Duration
	withNonceTTL           time.Duration
	withNonceSkew          time.Duration
	withTimeout            time.Duration
	withEndpoint           string
	withAPIBaseURL         string
	withProviderCA         string
	withLogger             hclog.Logger
	withClock              clockwork.Clock
	withMetrics            *Metrics
}

// configDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func configDefaults() configOptions {
	return configOptions{}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
