// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrInvalidCACert    = errors.New("invalid CA certificate")
	ErrInternal         = errors.New("internal error")
	ErrProfileNotFound  = errors.New("player profile not found")
)

// Rejection reasons. Each one is the Code of a *Rejection and can be matched
// with errors.Is.
var (
	ErrMissingMode       = errors.New("missing openid.mode")
	ErrUnexpectedMode    = errors.New("unexpected mode")
	ErrMissingParameters = errors.New("missing required OpenID params")
	ErrReturnToMismatch  = errors.New("return_to mismatch")
	ErrRealmMismatch     = errors.New("realm mismatch")
	ErrDisallowedHost    = errors.New("disallowed host")
	ErrMissingState      = errors.New("missing state")
	ErrInvalidState      = errors.New("invalid state")
	ErrStaleNonce        = errors.New("stale nonce")
	ErrReplayedNonce     = errors.New("replay detected")
	ErrAssertionNotValid = errors.New("assertion not valid")
	ErrInvalidClaimedID  = errors.New("invalid claimed_id host or format")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Rejection is returned when a callback fails one of the structural or
// security checks. It is resolved into a fail outcome and never surfaces as an
// internal error.
type Rejection struct {
	// Op is the operation that rejected the request.
	Op string

	// Code is one of the rejection sentinel errors (ErrMissingMode, etc).
	Code error

	// Status is the http status a host framework should respond with.
	Status int

	// Msg is an optional human readable message. When empty Code's message
	// is used.
	Msg string
}

func newRejection(op string, code error, status int, msg string) *Rejection {
	return &Rejection{
		Op:     op,
		Code:   code,
		Status: status,
		Msg:    msg,
	}
}

func badRequest(op string, code error) *Rejection {
	return newRejection(op, code, http.StatusBadRequest, "")
}

// Reason returns the short reason for the rejection.
func (r *Rejection) Reason() string {
	if r == nil {
		return ""
	}
	if r.Msg != "" {
		return r.Msg
	}
	if r.Code != nil {
		return r.Code.Error()
	}
	return http.StatusText(r.Status)
}

// Error satisfies the error interface.
func (r *Rejection) Error() string {
	if r == nil {
		return ""
	}
	if r.Op == "" {
		return r.Reason()
	}
	return fmt.Sprintf("%s: %s", r.Op, r.Reason())
}

// Unwrap returns the rejection's Code
func (r *Rejection) Unwrap() error {
	if r == nil {
		return nil
	}
	return r.Code
}

// IsRejection reports whether err is (or wraps) a *Rejection and returns it.
func IsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
