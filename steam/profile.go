// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// SteamAPIBaseURL is the Steam Web API base URL.
	SteamAPIBaseURL = "https://api.steampowered.com"

	playerSummariesPath = "/ISteamUser/GetPlayerSummaries/v2/"
)

// Profile is a verified Steam identity.
type Profile struct {
	// ID is the SteamID64 parsed from the verified claimed identifier.
	ID string `json:"id"`

	// DisplayName is the player's persona name, when enriched.
	DisplayName string `json:"display_name,omitempty"`

	// ProfileURL is the player's community profile URL, when enriched.
	ProfileURL string `json:"profile_url,omitempty"`

	// Photos are the player's avatars from smallest to largest, when
	// enriched.
	Photos []Photo `json:"photos,omitempty"`

	// Raw is the player summary as returned by the Steam Web API.
	Raw map[string]interface{} `json:"-"`
}

// Photo is a profile picture URL
type Photo struct {
	Value string `json:"value"`
}

type playerSummariesResponse struct {
	Response struct {
		Players []json.RawMessage `json:"players"`
	} `json:"response"`
}

type playerSummary struct {
	SteamID      string `json:"steamid"`
	PersonaName  string `json:"personaname"`
	ProfileURL   string `json:"profileurl"`
	Avatar       string `json:"avatar"`
	AvatarMedium string `json:"avatarmedium"`
	AvatarFull   string `json:"avatarfull"`
}

// FetchProfile gets the player summary for steamID from the Steam Web API.
// It requires an API key to be configured.
func (rp *RelyingParty) FetchProfile(ctx context.Context, steamID string) (*Profile, error) {
	const op = "steam.(RelyingParty).FetchProfile"
	if rp.config.APIKey == "" {
		return nil, fmt.Errorf("%s: missing api key: %w", op, ErrInvalidParameter)
	}
	if steamID == "" {
		return nil, fmt.Errorf("%s: missing steam id: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(strings.TrimSuffix(rp.config.APIBaseURL, "/") + playerSummariesPath)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid api base url: %w", op, err)
	}
	q := url.Values{}
	q.Set("key", string(rp.config.APIKey))
	q.Set("steamids", steamID)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, rp.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := rp.client.Do(req)
	if err != nil {
		// the url carries the api key
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("%s: player summaries request failed: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: player summaries returned %d: %w", op, resp.StatusCode, ErrProfileNotFound)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read player summaries: %w", op, err)
	}
	var summaries playerSummariesResponse
	if err := json.Unmarshal(body, &summaries); err != nil {
		return nil, fmt.Errorf("%s: unable to decode player summaries: %w", op, err)
	}
	if len(summaries.Response.Players) == 0 {
		return nil, fmt.Errorf("%s: no player for %s: %w", op, steamID, ErrProfileNotFound)
	}
	raw := summaries.Response.Players[0]
	var player playerSummary
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("%s: unable to decode player: %w", op, err)
	}
	if player.SteamID != steamID {
		return nil, fmt.Errorf("%s: player summary is for %q not %q: %w", op, player.SteamID, steamID, ErrProfileNotFound)
	}
	p := &Profile{
		ID:          steamID,
		DisplayName: player.PersonaName,
		ProfileURL:  player.ProfileURL,
	}
	for _, a := range []string{player.Avatar, player.AvatarMedium, player.AvatarFull} {
		if a != "" {
			p.Photos = append(p.Photos, Photo{Value: a})
		}
	}
	if err := json.Unmarshal(raw, &p.Raw); err != nil {
		return nil, fmt.Errorf("%s: unable to decode player: %w", op, err)
	}
	return p, nil
}

// enrichProfile merges the player summary into the identifier only profile.
// Failures are logged and absorbed: enrichment never fails a verified login.
func (rp *RelyingParty) enrichProfile(ctx context.Context, p *Profile) *Profile {
	if rp.config.APIKey == "" {
		return p
	}
	summary, err := rp.FetchProfile(ctx, p.ID)
	if err != nil {
		rp.config.Logger.Warn("unable to fetch steam profile, continuing without it", "steam_id", p.ID, "error", err)
		rp.config.Metrics.profileFetchFailed()
		return p
	}
	p.DisplayName = summary.DisplayName
	p.ProfileURL = summary.ProfileURL
	p.Photos = summary.Photos
	p.Raw = summary.Raw
	return p
}
