// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hashicorp/cap-steam/steam"
	"github.com/hashicorp/cap-steam/steam/store/memory"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const (
	testRealm     = "https://rp.example.com/"
	testReturnURL = "https://rp.example.com/auth/steam/return"
	testSteamID   = "76561198000000000"
	testClaimedID = "https://steamcommunity.com/openid/id/" + testSteamID
)

var testNow = time.Date(2025, 8, 24, 12, 0, 0, 0, time.UTC)

// testSuccessFn is a test SuccessResponseFunc
func testSuccessFn(user interface{}, _ interface{}, w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "login successful: %v", user)
}

// testVerifyFn is a test steam.VerifyFunc which accepts every identity
func testVerifyFn(_ context.Context, p *steam.Profile) (interface{}, interface{}, error) {
	return p.ID, nil, nil
}

// testNewRelyingParty creates a relying party which uses the TestProvider
// (tp) and an in-memory store. This is helpful internally, but intentionally
// not exported.
func testNewRelyingParty(t *testing.T, tp *steam.TestProvider) *steam.RelyingParty {
	t.Helper()
	require := require.New(t)
	store := memory.NewStore()
	c, err := steam.NewConfig(
		testRealm,
		testReturnURL,
		steam.WithEndpoint(tp.Endpoint()),
		steam.WithAPIBaseURL(tp.APIBaseURL()),
		steam.WithProviderCA(tp.CACert()),
		steam.WithStateStore(store),
		steam.WithNonceStore(store),
		steam.WithClock(clockwork.NewFakeClockAt(testNow)),
	)
	require.NoError(err)
	rp, err := steam.NewRelyingParty(c)
	require.NoError(err)
	return rp
}

// testReturnTo starts an attempt and returns the return_to Steam was given.
func testReturnTo(t *testing.T, rp *steam.RelyingParty) string {
	t.Helper()
	require := require.New(t)
	authURL, err := rp.AuthURL(context.Background())
	require.NoError(err)
	u, err := url.Parse(authURL)
	require.NoError(err)
	return u.Query().Get(steam.ParamReturnTo)
}

// testCallbackRequest builds the positive assertion Steam would send back to
// returnTo.
func testCallbackRequest(t *testing.T, returnTo string) *http.Request {
	t.Helper()
	u, err := url.Parse(returnTo)
	require.NoError(t, err)
	q := u.Query()
	q.Set(steam.ParamNS, steam.OpenIDNamespace)
	q.Set(steam.ParamMode, steam.ModeIDRes)
	q.Set(steam.ParamClaimedID, testClaimedID)
	q.Set(steam.ParamIdentity, testClaimedID)
	q.Set(steam.ParamReturnTo, returnTo)
	q.Set(steam.ParamRealm, testRealm)
	q.Set(steam.ParamResponseNonce, testNow.Format(time.RFC3339)+"abc")
	u.RawQuery = q.Encode()
	return httptest.NewRequest(http.MethodGet, u.String(), nil)
}

func testDecodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}
