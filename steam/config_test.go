// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKey_String(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert := assert.New(t)
		const want = RedactedAPIKey
		k := APIKey("my-steam-web-api-key")
		assert.Equalf(want, k.String(), "APIKey.String() = %v, want %v", k.String(), want)
		assert.NotContains(fmt.Sprintf("%v", k), "my-steam-web-api-key")
	})
}

func TestAPIKey_MarshalJSON(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		want := fmt.Sprintf(`"%s"`, RedactedAPIKey)
		k := APIKey("my-steam-web-api-key")
		got, err := k.MarshalJSON()
		require.NoError(err)
		assert.Equalf([]byte(want), got, "APIKey.MarshalJSON() = %s, want %s", got, want)

		c := struct{ Key APIKey }{Key: k}
		b, err := json.Marshal(c)
		require.NoError(err)
		assert.NotContains(string(b), "my-steam-web-api-key")
	})
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)
	testClock := clockwork.NewFakeClock()
	testLogger := hclog.NewNullLogger()
	stateStore := newTestConsumerStore()
	nonceStore := newTestKVStore()

	const (
		realm     = "https://example.com/"
		returnURL = "https://example.com/auth/steam/return"
	)
	type args struct {
		realm     string
		returnURL string
		opt       []Option
	}
	tests := []struct {
		name      string
		args      args
		want      *Config
		wantErr   bool
		wantIsErr error
	}{
		{
			name: "valid-with-all-valid-opts",
			args: args{
				realm:     realm,
				returnURL: returnURL,
				opt: []Option{
					WithAllowedReturnHosts("example.com"),
					WithAPIKey("key"),
					WithStateStore(stateStore),
					WithNonceStore(nonceStore),
					WithStateTTL(time.Minute),
					WithNonceTTL(2 * time.Minute),
					WithNonceSkew(3 * time.Minute),
					WithTimeout(4 * time.Second),
					WithEndpoint(tp.Endpoint()),
					WithAPIBaseURL(tp.APIBaseURL()),
					WithProviderCA(tp.CACert()),
					WithLogger(testLogger),
					WithClock(testClock),
				},
			},
			want: &Config{
				Realm:              realm,
				ReturnURL:          returnURL,
				AllowedReturnHosts: []string{"example.com"},
				APIKey:             "key",
				StateStore:         stateStore,
				NonceStore:         nonceStore,
				StateTTL:           time.Minute,
				NonceTTL:           2 * time.Minute,
				NonceSkew:          3 * time.Minute,
				Timeout:            4 * time.Second,
				Endpoint:           tp.Endpoint(),
				APIBaseURL:         tp.APIBaseURL(),
				ProviderCA:         tp.CACert(),
				Logger:             testLogger,
				Clock:              testClock,
			},
		},
		{
			name: "valid-no-opts",
			args: args{realm: realm, returnURL: returnURL},
			want: &Config{Realm: realm, ReturnURL: returnURL},
		},
		{
			name:      "missing-realm",
			args:      args{returnURL: returnURL},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "relative-return-url",
			args:      args{realm: realm, returnURL: "/auth/steam/return"},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "non-http-realm",
			args:      args{realm: "ftp://example.com/", returnURL: returnURL},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "return-url-outside-realm",
			args:      args{realm: "https://example.com/app/", returnURL: returnURL},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "return-url-host-not-allowed",
			args: args{
				realm:     realm,
				returnURL: returnURL,
				opt:       []Option{WithAllowedReturnHosts("other.com")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "negative-ttl",
			args: args{
				realm:     realm,
				returnURL: returnURL,
				opt:       []Option{WithStateTTL(-time.Second)},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "invalid-endpoint",
			args: args{
				realm:     realm,
				returnURL: returnURL,
				opt:       []Option{WithEndpoint("steamcommunity.com/openid/login")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "invalid-api-base-url",
			args: args{
				realm:     realm,
				returnURL: returnURL,
				opt:       []Option{WithAPIBaseURL("not-a-url")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "invalid-ca",
			args: args{
				realm:     realm,
				returnURL: returnURL,
				opt:       []Option{WithProviderCA("bad-pem")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidCACert,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.args.realm, tt.args.returnURL, tt.args.opt...)
			if tt.wantErr {
				require.Error(err)
				if tt.wantIsErr != nil {
					assert.ErrorIs(err, tt.wantIsErr)
				}
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil-config", func(t *testing.T) {
		var c *Config
		require.ErrorIs(t, c.Validate(), ErrNilParameter)
	})
	t.Run("reports-every-problem", func(t *testing.T) {
		assert := assert.New(t)
		c := &Config{
			Realm:     "not-a-url",
			ReturnURL: "also-not-a-url",
			Timeout:   -time.Second,
		}
		err := c.Validate()
		assert.ErrorIs(err, ErrInvalidParameter)
		assert.Contains(err.Error(), "realm")
		assert.Contains(err.Error(), "return URL")
		assert.Contains(err.Error(), "timeout")
	})
}

func TestConfig_clone(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := &Config{
		Realm:              "https://example.com/",
		ReturnURL:          "https://example.com/return",
		AllowedReturnHosts: []string{"example.com"},
	}
	cp := c.clone()
	assert.Equal(DefaultStateTTL, cp.StateTTL)
	assert.Equal(DefaultNonceTTL, cp.NonceTTL)
	assert.Equal(DefaultNonceSkew, cp.NonceSkew)
	assert.Equal(DefaultTimeout, cp.Timeout)
	assert.Equal(SteamOpenIDEndpoint, cp.Endpoint)
	assert.Equal(SteamAPIBaseURL, cp.APIBaseURL)
	assert.NotNil(cp.GenerateState)
	assert.NotNil(cp.Logger)
	assert.NotNil(cp.Clock)

	cp.AllowedReturnHosts[0] = "changed.com"
	assert.Equal("example.com", c.AllowedReturnHosts[0])
	assert.Zero(c.StateTTL)
}

func TestApplyOpts(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getConfigOpts(nil, WithTimeout(time.Second), nil)
	assert.Equal(time.Second, opts.withTimeout)

	// options for another options struct are ignored
	other := struct{}{}
	ApplyOpts(&other, WithTimeout(time.Second))
	assert.Equal(configDefaults(), getConfigOpts())
}
