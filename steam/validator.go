// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
)

// callbackCheck is one link of the callback validator chain. It returns nil
// when the check passes, a *Rejection when it fails, or any other error for
// internal failures (e.g. a store being unavailable).
type callbackCheck func(ctx context.Context, p *CallbackParams) error

// callbackChain returns the checks in the order they must run. The first
// failing check decides the outcome.
func (rp *RelyingParty) callbackChain() []callbackCheck {
	c := rp.config
	return []callbackCheck{
		func(_ context.Context, p *CallbackParams) error { return checkMode(p) },
		func(_ context.Context, p *CallbackParams) error { return checkRequired(p) },
		func(_ context.Context, p *CallbackParams) error { return checkReturnTo(p) },
		func(_ context.Context, p *CallbackParams) error { return checkRealm(c.Realm, p) },
		func(_ context.Context, p *CallbackParams) error { return checkHost(c.AllowedReturnHosts, p) },
		func(ctx context.Context, p *CallbackParams) error { return checkState(ctx, c.StateStore, p) },
		func(_ context.Context, p *CallbackParams) error { return checkNonceFresh(c.Clock, c.NonceSkew, p) },
		func(ctx context.Context, p *CallbackParams) error {
			return checkNonceReplay(ctx, c.NonceStore, c.NonceTTL, p)
		},
	}
}

func checkMode(p *CallbackParams) error {
	const op = "steam.checkMode"
	switch p.Mode {
	case "":
		return badRequest(op, ErrMissingMode)
	case ModeIDRes:
		return nil
	default:
		return newRejection(op, ErrUnexpectedMode, http.StatusBadRequest, fmt.Sprintf("unexpected mode %s", p.Mode))
	}
}

func checkRequired(p *CallbackParams) error {
	const op = "steam.checkRequired"
	if p.ReturnTo == "" || p.Realm == "" || p.ClaimedID == "" || p.ResponseNonce == "" {
		return badRequest(op, ErrMissingParameters)
	}
	return nil
}

func checkReturnTo(p *CallbackParams) error {
	const op = "steam.checkReturnTo"
	if !ReturnToMatches(p.CurrentURL, p.ReturnTo) {
		return badRequest(op, ErrReturnToMismatch)
	}
	return nil
}

func checkRealm(realm string, p *CallbackParams) error {
	const op = "steam.checkRealm"
	if !WithinRealm(realm, p.CurrentURL) {
		return badRequest(op, ErrRealmMismatch)
	}
	return nil
}

func checkHost(allowed []string, p *CallbackParams) error {
	const op = "steam.checkHost"
	if !IsAllowedHost(p.CurrentURL, allowed) {
		return badRequest(op, ErrDisallowedHost)
	}
	return nil
}

// checkState recovers the CSRF state from the query or from openid.return_to
// and, when a store is configured, consumes it.
func checkState(ctx context.Context, store StateStore, p *CallbackParams) error {
	const op = "steam.checkState"
	if p.State == "" {
		if u, err := url.Parse(p.ReturnTo); err == nil {
			p.State = u.Query().Get(ParamState)
		}
	}
	if p.State == "" {
		return badRequest(op, ErrMissingState)
	}
	if store == nil {
		return nil
	}
	ok, err := VerifyAndConsumeState(ctx, store, StateKey(p.State), p.State)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return badRequest(op, ErrInvalidState)
	}
	return nil
}

func checkNonceFresh(clock clockwork.Clock, skew time.Duration, p *CallbackParams) error {
	const op = "steam.checkNonceFresh"
	if !IsFreshNonce(p.ResponseNonce, clock.Now(), skew) {
		return badRequest(op, ErrStaleNonce)
	}
	return nil
}

func checkNonceReplay(ctx context.Context, store NonceStore, ttl time.Duration, p *CallbackParams) error {
	const op = "steam.checkNonceReplay"
	if store == nil {
		return nil
	}
	stored, err := StoreNonceOnce(ctx, store, p.ResponseNonce, ttl)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !stored {
		return badRequest(op, ErrReplayedNonce)
	}
	return nil
}
