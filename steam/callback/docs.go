// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides http.HandlerFunc adapters for a Steam
OpenID 2.0 relying party.

Login redirects a user to Steam. Callback serves the relying party's return
URL. Authenticate serves both from a single route. All of them report their
results through a SuccessResponseFunc and an ErrorResponseFunc.
*/
package callback
