// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
steam is a package for authenticating users with Steam's OpenID 2.0 provider
as a relying party.

Primary types provided by the package

* Config: provides the configuration for the relying party (realm, return
URL, optional allowed return hosts, optional Web API key, the CSRF state
generator, and the StateStore and NonceStore).

* RelyingParty: drives an authentication attempt. AuthURL starts an attempt
by registering a CSRF state and building the provider redirect.
ValidateCallback runs the callback validator chain (mode, required params,
return_to, realm, allowed host, state, nonce freshness and nonce replay).
Verify additionally re-verifies the assertion with the provider
(check_authentication), parses the claimed identifier and optionally enriches
the profile. Authenticate does all of it for one request and returns a single
Outcome.

* StateStore, StateConsumer and NonceStore: the storage contracts. Single use
of a state and of a nonce is only guaranteed when the store's consume and
insert-if-absent operations are atomic. See the steam/store packages.

* Rejection: a failed check. It carries a reason (match it with errors.Is
against ErrMissingMode, ErrReturnToMismatch, etc) and an http status. Every
other error returned by the package is an internal error.

Trust assumptions

An empty Config.AllowedReturnHosts accepts callbacks on any host. Set it
when the relying party can be reached through hosts it doesn't control.

Profile enrichment (Config.APIKey) never turns a verified login into a
failure; when the Web API is unavailable the Profile only carries the ID.

The steam.callback package

The callback package includes http.HandlerFunc adapters for the login and
callback legs of the flow.
*/
package steam
