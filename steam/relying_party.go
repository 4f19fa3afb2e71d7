// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RelyingParty authenticates users with Steam's OpenID 2.0 provider. It is
// safe for concurrent use; the only shared mutable state lives in the
// configured StateStore and NonceStore.
type RelyingParty struct {
	config *Config
	client *http.Client
}

// NewRelyingParty creates a RelyingParty from a validated copy of c.
func NewRelyingParty(c *Config) (*RelyingParty, error) {
	const op = "steam.NewRelyingParty"
	if c == nil {
		return nil, fmt.Errorf("%s: relying party config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: relying party config is invalid: %w", op, err)
	}
	cfg := c.clone()
	client, err := NewHTTPClient(cfg.ProviderCA)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	return &RelyingParty{
		config: cfg,
		client: client,
	}, nil
}

// Config returns a copy of the relying party's config, with defaults applied.
func (rp *RelyingParty) Config() Config {
	return *rp.config.clone()
}

// AuthURL starts an authentication attempt. It generates a CSRF state,
// registers it in the StateStore (if configured), and returns the URL the
// user should be redirected to. Errors are internal errors.
func (rp *RelyingParty) AuthURL(ctx context.Context) (string, error) {
	const op = "steam.(RelyingParty).AuthURL"
	state, err := rp.config.GenerateState()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate state: %w", op, err)
	}
	if state == "" {
		return "", fmt.Errorf("%s: generated state is empty: %w", op, ErrInternal)
	}
	if rp.config.StateStore != nil {
		if err := rp.config.StateStore.Set(ctx, StateKey(state), state, rp.config.StateTTL); err != nil {
			return "", fmt.Errorf("%s: unable to store state: %w", op, err)
		}
	}
	returnTo, err := url.Parse(rp.config.ReturnURL)
	if err != nil {
		return "", fmt.Errorf("%s: invalid return url: %w", op, err)
	}
	q := returnTo.Query()
	q.Set(ParamState, state)
	returnTo.RawQuery = q.Encode()

	authURL, err := AuthURL(rp.config.Endpoint, rp.config.Realm, returnTo.String())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return authURL, nil
}

// ValidateCallback runs the callback validator chain over req: mode,
// completeness, return_to, realm, allowed host, CSRF state, nonce freshness
// and nonce replay, in that order. The first failing check is returned as a
// *Rejection; store failures are returned as internal errors.
func (rp *RelyingParty) ValidateCallback(ctx context.Context, req *http.Request) (*CallbackParams, error) {
	const op = "steam.(RelyingParty).ValidateCallback"
	if req == nil || req.URL == nil {
		return nil, fmt.Errorf("%s: missing request: %w", op, ErrNilParameter)
	}
	p := readCallbackParams(req)
	for _, check := range rp.callbackChain() {
		if err := check(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// CheckAuthentication asks the provider to verify an assertion, by posting
// the callback's query back with openid.mode set to check_authentication. It
// returns the parsed key-value response. Transport failures, including the
// request timing out, are returned as errors.
func (rp *RelyingParty) CheckAuthentication(ctx context.Context, query url.Values) (map[string]string, error) {
	const op = "steam.(RelyingParty).CheckAuthentication"
	params := url.Values{}
	for k, v := range query {
		params[k] = append([]string(nil), v...)
	}
	params.Set(ParamMode, ModeCheckAuthentication)

	ctx, cancel := context.WithTimeout(ctx, rp.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rp.config.Endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	defer rp.config.Metrics.observeCheckAuthentication(time.Now())
	resp, err := rp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: check_authentication request failed: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read check_authentication response: %w", op, err)
	}
	return ParseKeyValue(string(body)), nil
}

// Verify validates a callback, re-verifies the assertion with the provider,
// parses the claimed identifier and, when an API key is configured, enriches
// the profile. Rejections are returned as a *Rejection.
func (rp *RelyingParty) Verify(ctx context.Context, req *http.Request) (*Profile, error) {
	const op = "steam.(RelyingParty).Verify"
	p, err := rp.ValidateCallback(ctx, req)
	if err != nil {
		return nil, err
	}
	kv, err := rp.CheckAuthentication(ctx, p.Query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !IsValidAssertion(kv) {
		return nil, newRejection(op, ErrAssertionNotValid, http.StatusUnauthorized, "")
	}
	steamID, ok := ParseClaimedID(p.ClaimedID)
	if !ok {
		return nil, badRequest(op, ErrInvalidClaimedID)
	}
	return rp.enrichProfile(ctx, &Profile{ID: steamID}), nil
}

// Authenticate handles one request to the relying party and returns exactly
// one outcome. A request without an OpenID mode starts a new attempt
// (OutcomeRedirect). A callback is verified and, on success, handed to fn;
// its answer becomes OutcomeSuccess, OutcomeFail (status 401) or
// OutcomeError. Any failed check is an OutcomeFail carrying the rejection.
func (rp *RelyingParty) Authenticate(ctx context.Context, req *http.Request, fn VerifyFunc) (o *Outcome) {
	const op = "steam.(RelyingParty).Authenticate"
	defer func() {
		rp.logOutcome(o)
		rp.config.Metrics.outcome(o)
	}()
	if req == nil || req.URL == nil {
		return errorOutcome(fmt.Errorf("%s: missing request: %w", op, ErrNilParameter))
	}
	if fn == nil {
		return errorOutcome(fmt.Errorf("%s: missing verify func: %w", op, ErrNilParameter))
	}

	if !IsCallback(req) {
		authURL, err := rp.AuthURL(ctx)
		if err != nil {
			return errorOutcome(fmt.Errorf("%s: %w", op, err))
		}
		return redirectOutcome(authURL)
	}

	profile, err := rp.Verify(ctx, req)
	if err != nil {
		return outcomeFromError(err)
	}
	return resolveOutcome(ctx, fn, profile)
}

func (rp *RelyingParty) logOutcome(o *Outcome) {
	l := rp.config.Logger
	switch o.Kind {
	case OutcomeFail:
		l.Debug("steam authentication rejected", "reason", o.Rejection.Reason(), "status", o.Rejection.Status, "op", o.Rejection.Op)
	case OutcomeError:
		l.Error("steam authentication error", "error", o.Err)
	case OutcomeSuccess:
		l.Debug("steam authentication succeeded")
	case OutcomeRedirect:
		l.Trace("steam authentication started")
	}
}
