// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/cap-steam/steam/internal/strutils"
)

// CallbackParams are the OpenID fields read from a callback request. They are
// only valid for the request they were read from.
type CallbackParams struct {
	// Mode is openid.mode
	Mode string

	// ReturnTo is openid.return_to
	ReturnTo string

	// Realm is openid.realm
	Realm string

	// ClaimedID is openid.claimed_id
	ClaimedID string

	// ResponseNonce is openid.response_nonce
	ResponseNonce string

	// State is the CSRF state, either from the query or from ReturnTo.
	State string

	// CurrentURL is the absolute URL the callback was served on.
	CurrentURL string

	// Query is the callback's complete query.
	Query url.Values
}

func readCallbackParams(req *http.Request) *CallbackParams {
	q := req.URL.Query()
	return &CallbackParams{
		Mode:          q.Get(ParamMode),
		ReturnTo:      q.Get(ParamReturnTo),
		Realm:         q.Get(ParamRealm),
		ClaimedID:     q.Get(ParamClaimedID),
		ResponseNonce: q.Get(ParamResponseNonce),
		State:         q.Get(ParamState),
		CurrentURL:    AbsoluteURL(req),
		Query:         q,
	}
}

// IsCallback reports whether req is the provider's response rather than an
// initiate request. Either the canonical openid.mode or the legacy openid_mode
// marker classifies a GET as a callback; only openid.mode is accepted during
// validation.
func IsCallback(req *http.Request) bool {
	if req == nil || req.URL == nil {
		return false
	}
	if req.Method != "" && req.Method != http.MethodGet {
		return false
	}
	q := req.URL.Query()
	return q.Get(ParamMode) != "" || q.Get(paramLegacyMode) != ""
}

// AbsoluteURL reconstructs the absolute URL of req. X-Forwarded-Proto is
// preferred over the transport's protocol.
func AbsoluteURL(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	proto := strutils.FirstValue(req.Header.Get("X-Forwarded-Proto"))
	if proto == "" {
		switch {
		case req.TLS != nil:
			proto = "https"
		case req.URL.Scheme != "":
			proto = req.URL.Scheme
		default:
			proto = "http"
		}
	}
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	path := req.URL.RequestURI()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return proto + "://" + host + path
}
