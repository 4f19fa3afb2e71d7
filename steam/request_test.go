// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCallback(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		req  *http.Request
		want bool
	}{
		{"initiate", httptest.NewRequest(http.MethodGet, "https://example.com/auth/steam", nil), false},
		{"callback", httptest.NewRequest(http.MethodGet, "https://example.com/return?openid.mode=id_res", nil), true},
		{"legacy-marker", httptest.NewRequest(http.MethodGet, "https://example.com/return?openid_mode=id_res", nil), true},
		{"empty-mode", httptest.NewRequest(http.MethodGet, "https://example.com/return?openid.mode=", nil), false},
		{"post", httptest.NewRequest(http.MethodPost, "https://example.com/return?openid.mode=id_res", nil), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsCallback(tt.req))
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{
			name: "tls",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "https://example.com/return?a=1", nil)
			},
			want: "https://example.com/return?a=1",
		},
		{
			name: "plain",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "http://example.com:8080/return", nil)
			},
			want: "http://example.com:8080/return",
		},
		{
			name: "forwarded-proto",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "http://example.com/return", nil)
				r.Header.Set("X-Forwarded-Proto", "https, http")
				return r
			},
			want: "https://example.com/return",
		},
		{
			name: "server-request",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/return?state=abc", nil)
				r.Host = "rp.example.com"
				return r
			},
			want: "http://rp.example.com/return?state=abc",
		},
		{
			name: "missing-url",
			req: func() *http.Request {
				return &http.Request{}
			},
			want: "",
		},
		{
			name: "nil-request",
			req: func() *http.Request {
				return nil
			},
			want: "",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AbsoluteURL(tt.req()))
		})
	}
}

func TestReadCallbackParams(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	q := url.Values{}
	q.Set(ParamMode, ModeIDRes)
	q.Set(ParamReturnTo, "https://example.com/return?state=abc")
	q.Set(ParamRealm, "https://example.com/")
	q.Set(ParamClaimedID, "https://steamcommunity.com/openid/id/76561198000000000")
	q.Set(ParamResponseNonce, "2025-08-24T12:34:56Zabc")
	q.Set(ParamState, "abc")
	req := httptest.NewRequest(http.MethodGet, "https://example.com/return?"+q.Encode(), nil)

	p := readCallbackParams(req)
	assert.Equal(ModeIDRes, p.Mode)
	assert.Equal("https://example.com/return?state=abc", p.ReturnTo)
	assert.Equal("https://example.com/", p.Realm)
	assert.Equal("https://steamcommunity.com/openid/id/76561198000000000", p.ClaimedID)
	assert.Equal("2025-08-24T12:34:56Zabc", p.ResponseNonce)
	assert.Equal("abc", p.State)
	assert.Equal("https://example.com/return?"+q.Encode(), p.CurrentURL)
	assert.Equal(q, p.Query)
}
