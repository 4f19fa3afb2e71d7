// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cap_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/cap-steam/steam"
	"github.com/hashicorp/cap-steam/steam/callback"
	"github.com/hashicorp/cap-steam/steam/store/memory"
)

func Example_steam() {
	// One store can hold both the CSRF states and the seen nonces.
	store := memory.NewStore()

	// Create a new Config
	c, err := steam.NewConfig(
		"https://your-site.com/",
		"https://your-site.com/auth/steam/return",
		steam.WithStateStore(store),
		steam.WithNonceStore(store),
	)
	if err != nil {
		// handle error
	}

	// Create a relying party
	rp, err := steam.NewRelyingParty(c)
	if err != nil {
		// handle error
	}

	// Create a http.Handler which redirects users to Steam
	login, err := callback.Login(rp, callback.DefaultErrorResponse)
	if err != nil {
		// handle error
	}
	http.HandleFunc("/auth/steam", login)

	// Create a http.Handler for Steam's authentication responses
	verify := func(ctx context.Context, p *steam.Profile) (interface{}, interface{}, error) {
		return p, nil, nil
	}
	success := func(user interface{}, _ interface{}, w http.ResponseWriter, _ *http.Request) {
		profile, _ := json.Marshal(user)
		fmt.Fprintf(w, "%s", profile)
	}
	cb, err := callback.Callback(rp, verify, success, callback.DefaultErrorResponse)
	if err != nil {
		// handle error
	}
	http.HandleFunc("/auth/steam/return", cb)
}
