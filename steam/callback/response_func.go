// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"encoding/json"
	"net/http"

	"github.com/hashicorp/cap-steam/steam"
)

// SuccessResponseFunc is used by the handlers to create a http response when
// the user was authenticated.
//
// The user and info parameters are the values returned by the steam.VerifyFunc.
// The function should use the http.ResponseWriter to send back whatever
// content (headers, html, JSON, a session cookie, etc) it wishes to the client
// that originated the flow.
type SuccessResponseFunc func(user interface{}, info interface{}, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by the handlers to create a http response when the
// authentication attempt failed.
//
// Exactly one of r and e is set: r when the callback failed one of the checks
// (r.Status is the suggested http status), e for internal errors. The function
// should use the http.ResponseWriter to send back whatever content it wishes
// to the client that originated the flow.
type ErrorResponseFunc func(r *steam.Rejection, e error, w http.ResponseWriter, req *http.Request)

// ErrorResponse is the JSON body written by DefaultErrorResponse.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// DefaultErrorResponse is an ErrorResponseFunc which writes a JSON
// ErrorResponse. Rejections are written with their status and reason; internal
// errors are written as a 500 without details.
func DefaultErrorResponse(r *steam.Rejection, e error, w http.ResponseWriter, _ *http.Request) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: "internal_error"}
	if r != nil {
		status = r.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		body = ErrorResponse{Error: "authentication_failed", Description: r.Reason()}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&body)
}

// responder adapts a http.ResponseWriter to a steam.Responder.
type responder struct {
	w   http.ResponseWriter
	req *http.Request
	sFn SuccessResponseFunc
	eFn ErrorResponseFunc
}

var _ steam.Responder = (*responder)(nil)

// NewResponder returns a steam.Responder which redirects with a 302 and hands
// the other outcomes to sFn and eFn.
func NewResponder(w http.ResponseWriter, req *http.Request, sFn SuccessResponseFunc, eFn ErrorResponseFunc) steam.Responder {
	return &responder{w: w, req: req, sFn: sFn, eFn: eFn}
}

func (r *responder) Redirect(url string) {
	http.Redirect(r.w, r.req, url, http.StatusFound)
}

func (r *responder) Success(user interface{}, info interface{}) {
	r.sFn(user, info, r.w, r.req)
}

func (r *responder) Fail(rej *steam.Rejection) {
	r.eFn(rej, nil, r.w, r.req)
}

func (r *responder) Error(err error) {
	r.eFn(nil, err, r.w, r.req)
}
