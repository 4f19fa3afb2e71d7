// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// SteamOpenIDEndpoint is Steam's fixed OpenID 2.0 provider endpoint. It is
	// used both for the authentication redirect and for check_authentication.
	SteamOpenIDEndpoint = "https://steamcommunity.com/openid/login"

	// SteamIdentityHost is the only host allowed in a claimed identifier.
	SteamIdentityHost = "steamcommunity.com"

	// OpenIDNamespace is the OpenID 2.0 protocol namespace.
	OpenIDNamespace = "http://specs.openid.net/auth/2.0"

	// IdentifierSelect lets the provider choose the identifier.
	IdentifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"
)

// OpenID modes
const (
	ModeCheckIDSetup        = "checkid_setup"
	ModeIDRes               = "id_res"
	ModeCheckAuthentication = "check_authentication"
)

// OpenID parameter names
const (
	ParamNS            = "openid.ns"
	ParamMode          = "openid.mode"
	ParamClaimedID     = "openid.claimed_id"
	ParamIdentity      = "openid.identity"
	ParamReturnTo      = "openid.return_to"
	ParamRealm         = "openid.realm"
	ParamResponseNonce = "openid.response_nonce"

	// paramLegacyMode is only used to classify a request as a callback.
	paramLegacyMode = "openid_mode"

	// ParamState carries the CSRF state on the return URL.
	ParamState = "state"
)

// AuthURL builds the URL used to redirect a user to the OpenID provider's
// endpoint. The returnTo should already carry the CSRF state. It is a pure
// function of its inputs.
func AuthURL(endpoint, realm, returnTo string) (string, error) {
	const op = "steam.AuthURL"
	switch {
	case endpoint == "":
		return "", fmt.Errorf("%s: missing endpoint: %w", op, ErrInvalidParameter)
	case realm == "":
		return "", fmt.Errorf("%s: missing realm: %w", op, ErrInvalidParameter)
	case returnTo == "":
		return "", fmt.Errorf("%s: missing return to: %w", op, ErrInvalidParameter)
	}
	u, err := parseAbsoluteURL(endpoint)
	if err != nil {
		return "", fmt.Errorf("%s: invalid endpoint %q: %w", op, endpoint, err)
	}
	p := url.Values{}
	p.Set(ParamNS, OpenIDNamespace)
	p.Set(ParamMode, ModeCheckIDSetup)
	p.Set(ParamClaimedID, IdentifierSelect)
	p.Set(ParamIdentity, IdentifierSelect)
	p.Set(ParamReturnTo, returnTo)
	p.Set(ParamRealm, realm)
	u.RawQuery = p.Encode()
	return u.String(), nil
}

// ParseKeyValue parses an OpenID key-value form response body. Lines without
// a colon are ignored.
func ParseKeyValue(body string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// IsValidAssertion reports whether a parsed check_authentication response
// asserts is_valid:true.
func IsValidAssertion(kv map[string]string) bool {
	return strings.EqualFold(kv["is_valid"], "true")
}
