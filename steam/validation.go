// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/cap-steam/steam/internal/strutils"
)

var (
	claimedIDPath   = regexp.MustCompile(`^/openid/id/(\d{17})$`)
	nonceTimestamps = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)`)
)

// parseAbsoluteURL parses raw and requires both a scheme and a host.
func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL: %w", raw, ErrInvalidParameter)
	}
	return u, nil
}

// canonicalHost returns u's lowercased host, keeping the port only when it
// isn't the default for u's scheme.
func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	switch {
	case port == "":
	case port == "80" && strings.EqualFold(u.Scheme, "http"):
	case port == "443" && strings.EqualFold(u.Scheme, "https"):
	default:
		return net.JoinHostPort(host, port)
	}
	return host
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && canonicalHost(a) == canonicalHost(b)
}

// URLsEqual reports whether a and b have the same scheme, host, path and
// query. It returns false if either doesn't parse.
func URLsEqual(a, b string) bool {
	ua, err := parseAbsoluteURL(a)
	if err != nil {
		return false
	}
	ub, err := parseAbsoluteURL(b)
	if err != nil {
		return false
	}
	return sameOrigin(ua, ub) && ua.Path == ub.Path && ua.RawQuery == ub.RawQuery
}

// ReturnToMatches reports whether current (the URL the callback was actually
// served on) matches declared (the provider's openid.return_to). Scheme, host
// and path must match, and every query parameter in declared must be present
// in current with an identical value. Extra parameters in current are
// allowed.
func ReturnToMatches(current, declared string) bool {
	cu, err := parseAbsoluteURL(current)
	if err != nil {
		return false
	}
	du, err := parseAbsoluteURL(declared)
	if err != nil {
		return false
	}
	if !sameOrigin(cu, du) || cu.Path != du.Path {
		return false
	}
	cq := cu.Query()
	for k, vals := range du.Query() {
		got, ok := cq[k]
		if !ok || len(got) == 0 {
			return false
		}
		for _, v := range vals {
			if got[0] != v {
				return false
			}
		}
	}
	return true
}

// WithinRealm reports whether target shares realm's scheme and host and its
// path is prefixed by realm's path.
func WithinRealm(realm, target string) bool {
	r, err := parseAbsoluteURL(realm)
	if err != nil {
		return false
	}
	t, err := parseAbsoluteURL(target)
	if err != nil {
		return false
	}
	return sameOrigin(r, t) && strings.HasPrefix(t.Path, r.Path)
}

// IsAllowedHost reports whether target's host is in allowed, ignoring case and
// the scheme's default port. An empty allowed list permits every host.
func IsAllowedHost(target string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	u, err := parseAbsoluteURL(target)
	if err != nil {
		return false
	}
	hosts := make([]string, 0, len(allowed))
	for _, h := range allowed {
		hosts = append(hosts, canonicalHost(&url.URL{Scheme: u.Scheme, Host: h}))
	}
	return strutils.StrListContainsCaseInsensitive(hosts, canonicalHost(u))
}

// ParseClaimedID returns the 17 digit SteamID64 from a claimed identifier such
// as https://steamcommunity.com/openid/id/76561198000000000. Any other host or
// path shape returns false.
func ParseClaimedID(claimedID string) (string, bool) {
	u, err := parseAbsoluteURL(claimedID)
	if err != nil {
		return "", false
	}
	if canonicalHost(u) != SteamIdentityHost {
		return "", false
	}
	m := claimedIDPath.FindStringSubmatch(u.Path)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// NonceTime returns the UTC timestamp at the start of an OpenID response
// nonce, e.g. 2025-08-24T12:34:56Z<random>.
func NonceTime(nonce string) (time.Time, bool) {
	m := nonceTimestamps.FindStringSubmatch(nonce)
	if len(m) != 2 {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// IsFreshNonce reports whether the nonce's timestamp is within skew of now.
// The edge is inclusive.
func IsFreshNonce(nonce string, now time.Time, skew time.Duration) bool {
	ts, ok := NonceTime(nonce)
	if !ok {
		return false
	}
	d := now.Sub(ts)
	if d < 0 {
		d = -d
	}
	return d <= skew
}
