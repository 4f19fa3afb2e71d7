// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
)

// OutcomeKind is the kind of result an authentication attempt produced.
type OutcomeKind int

const (
	OutcomeError OutcomeKind = iota
	OutcomeRedirect
	OutcomeSuccess
	OutcomeFail
)

// String returns the lowercase name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeSuccess:
		return "success"
	case OutcomeFail:
		return "fail"
	default:
		return "error"
	}
}

// Outcome is the single result of RelyingParty.Authenticate.
type Outcome struct {
	Kind OutcomeKind

	// RedirectURL is set for OutcomeRedirect.
	RedirectURL string

	// User and Info are set for OutcomeSuccess, as returned by the
	// VerifyFunc.
	User interface{}
	Info interface{}

	// Rejection is set for OutcomeFail.
	Rejection *Rejection

	// Err is set for OutcomeError.
	Err error
}

// Responder is the capability a host framework provides to receive an
// outcome. Dispatch calls exactly one of its methods.
type Responder interface {
	Redirect(url string)
	Success(user interface{}, info interface{})
	Fail(r *Rejection)
	Error(err error)
}

// Dispatch hands the outcome to r.
func (o *Outcome) Dispatch(r Responder) {
	switch {
	case o == nil:
		r.Error(fmt.Errorf("steam.(Outcome).Dispatch: missing outcome: %w", ErrInternal))
	case o.Kind == OutcomeRedirect:
		r.Redirect(o.RedirectURL)
	case o.Kind == OutcomeSuccess:
		r.Success(o.User, o.Info)
	case o.Kind == OutcomeFail:
		r.Fail(o.Rejection)
	default:
		r.Error(o.Err)
	}
}

// VerifyFunc decides whether a verified Steam identity maps to a user. It
// returns an error for internal failures, a nil user to deny the login (info
// may then be a string, error or fmt.Stringer used as the reason), or the
// user and optional info on success.
type VerifyFunc func(ctx context.Context, p *Profile) (user interface{}, info interface{}, err error)

func redirectOutcome(u string) *Outcome {
	return &Outcome{Kind: OutcomeRedirect, RedirectURL: u}
}

func successOutcome(user, info interface{}) *Outcome {
	return &Outcome{Kind: OutcomeSuccess, User: user, Info: info}
}

func failOutcome(r *Rejection) *Outcome {
	return &Outcome{Kind: OutcomeFail, Rejection: r}
}

func errorOutcome(err error) *Outcome {
	return &Outcome{Kind: OutcomeError, Err: err}
}

// outcomeFromError turns a flow error into a fail outcome for rejections and
// an error outcome for everything else.
func outcomeFromError(err error) *Outcome {
	if r, ok := IsRejection(err); ok {
		return failOutcome(r)
	}
	return errorOutcome(err)
}

// resolveOutcome hands the profile to fn and maps its answer to an outcome.
func resolveOutcome(ctx context.Context, fn VerifyFunc, p *Profile) *Outcome {
	const op = "steam.resolveOutcome"
	if fn == nil {
		return errorOutcome(fmt.Errorf("%s: missing verify func: %w", op, ErrNilParameter))
	}
	user, info, err := fn(ctx, p)
	if err != nil {
		return errorOutcome(fmt.Errorf("%s: verify func failed: %w", op, err))
	}
	if isNil(user) {
		return failOutcome(newRejection(op, ErrUnauthorized, http.StatusUnauthorized, denialReason(info)))
	}
	return successOutcome(user, info)
}

func denialReason(info interface{}) string {
	switch v := info.(type) {
	case string:
		return v
	case error:
		if isNil(v) {
			return ""
		}
		var r *Rejection
		if errors.As(v, &r) {
			return r.Reason()
		}
		return v.Error()
	case fmt.Stringer:
		if isNil(v) {
			return ""
		}
		return v.String()
	}
	return ""
}

// isNil reports if a is nil
func isNil(a interface{}) bool {
	if a == nil {
		return true
	}
	switch reflect.TypeOf(a).Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.Func, reflect.Interface:
		return reflect.ValueOf(a).IsNil()
	}
	return false
}
