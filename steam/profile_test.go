// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelyingParty_FetchProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := StartTestProvider(t)
	tp.SetAPIKey(testAPIKey)
	tp.SetPlayer(testSteamID, map[string]interface{}{
		"personaname": "alice",
		"profileurl":  "https://steamcommunity.com/id/alice/",
		"avatarfull":  "https://avatars.example.com/a_full.jpg",
	})

	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		rp, _, _ := testNewRelyingParty(t, tp, WithAPIKey(testAPIKey))
		got, err := rp.FetchProfile(ctx, testSteamID)
		require.NoError(err)
		assert.Equal(testSteamID, got.ID)
		assert.Equal("alice", got.DisplayName)
		assert.Equal("https://steamcommunity.com/id/alice/", got.ProfileURL)
		assert.Equal([]Photo{{Value: "https://avatars.example.com/a_full.jpg"}}, got.Photos)
		assert.Equal(testSteamID, got.Raw["steamid"])
	})
	t.Run("missing-api-key", func(t *testing.T) {
		rp, _, _ := testNewRelyingParty(t, tp)
		_, err := rp.FetchProfile(ctx, testSteamID)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("missing-steam-id", func(t *testing.T) {
		rp, _, _ := testNewRelyingParty(t, tp, WithAPIKey(testAPIKey))
		_, err := rp.FetchProfile(ctx, "")
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("unknown-player", func(t *testing.T) {
		rp, _, _ := testNewRelyingParty(t, tp, WithAPIKey(testAPIKey))
		_, err := rp.FetchProfile(ctx, "76561198999999999")
		require.ErrorIs(t, err, ErrProfileNotFound)
	})
	t.Run("wrong-api-key", func(t *testing.T) {
		rp, _, _ := testNewRelyingParty(t, tp, WithAPIKey("wrong"))
		_, err := rp.FetchProfile(ctx, testSteamID)
		require.ErrorIs(t, err, ErrProfileNotFound)
	})
	t.Run("unreachable-does-not-leak-key", func(t *testing.T) {
		assert := assert.New(t)
		down := StartTestProvider(t)
		down.Stop()
		rp, _, _ := testNewRelyingParty(t, tp, WithAPIKey(testAPIKey), WithAPIBaseURL(down.APIBaseURL()))
		_, err := rp.FetchProfile(ctx, testSteamID)
		require.Error(t, err)
		assert.NotContains(err.Error(), testAPIKey)
	})
}

func TestRelyingParty_FetchProfile_status(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)
	tp.SetProfileStatus(http.StatusServiceUnavailable)
	rp, _, _ := testNewRelyingParty(t, tp, WithAPIKey(testAPIKey))
	_, err := rp.FetchProfile(context.Background(), testSteamID)
	require.ErrorIs(t, err, ErrProfileNotFound)
}
