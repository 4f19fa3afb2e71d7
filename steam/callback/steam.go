// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/cap-steam/steam"
)

// Login creates a handler which starts an authentication attempt by
// redirecting the user to Steam. The ErrorResponseFunc is used when the
// attempt can't be started.
func Login(rp *steam.RelyingParty, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.Login"
	switch {
	case rp == nil:
		return nil, fmt.Errorf("%s: relying party is empty: %w", op, steam.ErrInvalidParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error func is nil: %w", op, steam.ErrInvalidParameter)
	}
	return func(w http.ResponseWriter, req *http.Request) {
		authURL, err := rp.AuthURL(req.Context())
		if err != nil {
			eFn(nil, fmt.Errorf("%s: unable to start authentication: %w", op, err), w, req)
			return
		}
		http.Redirect(w, req, authURL, http.StatusFound)
	}, nil
}

// Callback creates the handler for the relying party's return URL. Requests
// which aren't OpenID callbacks are rejected; verified identities are handed
// to fn.
//
// The SuccessResponseFunc is used to create a response when fn accepts the
// user. The ErrorResponseFunc is used to create a response for every failure.
func Callback(rp *steam.RelyingParty, fn steam.VerifyFunc, sFn SuccessResponseFunc, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.Callback"
	if err := validateArgs(op, rp, fn, sFn, eFn); err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, req *http.Request) {
		if !steam.IsCallback(req) {
			eFn(&steam.Rejection{Op: op, Code: steam.ErrMissingMode, Status: http.StatusBadRequest}, nil, w, req)
			return
		}
		rp.Authenticate(req.Context(), req, fn).Dispatch(NewResponder(w, req, sFn, eFn))
	}, nil
}

// Authenticate creates a single handler for both legs of the flow: requests
// without an OpenID mode are redirected to Steam, callbacks are verified and
// handed to fn.
func Authenticate(rp *steam.RelyingParty, fn steam.VerifyFunc, sFn SuccessResponseFunc, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.Authenticate"
	if err := validateArgs(op, rp, fn, sFn, eFn); err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, req *http.Request) {
		rp.Authenticate(req.Context(), req, fn).Dispatch(NewResponder(w, req, sFn, eFn))
	}, nil
}

func validateArgs(op string, rp *steam.RelyingParty, fn steam.VerifyFunc, sFn SuccessResponseFunc, eFn ErrorResponseFunc) error {
	switch {
	case rp == nil:
		return fmt.Errorf("%s: relying party is empty: %w", op, steam.ErrInvalidParameter)
	case fn == nil:
		return fmt.Errorf("%s: verify func is nil: %w", op, steam.ErrInvalidParameter)
	case sFn == nil:
		return fmt.Errorf("%s: success func is nil: %w", op, steam.ErrInvalidParameter)
	case eFn == nil:
		return fmt.Errorf("%s: error func is nil: %w", op, steam.ErrInvalidParameter)
	}
	return nil
}
