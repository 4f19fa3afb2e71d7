// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
)

// maxResponseBytes bounds the bodies read from Steam.
const maxResponseBytes = 1 << 16

// NewHTTPClient creates a new http client which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain.
func NewHTTPClient(caPEM string) (*http.Client, error) {
	const op = "steam.NewHTTPClient"
	tr := cleanhttp.DefaultPooledTransport()

	if caPEM != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}

		tr.TLSClientConfig = &tls.Config{
			RootCAs:    certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return &http.Client{
		Transport: tr,
		// check_authentication must be answered by the endpoint itself
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}
