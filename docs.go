// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// cap-steam provides packages which enable "Sign in through Steam" for Go
// services: a Steam profiled OpenID 2.0 relying party (steam), http handler
// adapters (steam/callback) and state and nonce stores (steam/store/memory,
// steam/store/redis).
//
// See the steam package documentation and steam/examples/login.
package cap
