// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestProvider is a local TLS server that stands in for Steam's OpenID
// endpoint and the player summaries API, which makes writing tests much
// easier. Use Endpoint(), APIBaseURL() and CACert() to configure a
// RelyingParty against it.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	mu                sync.Mutex
	isValid           string
	checkAuthStatus   int
	checkAuthDelay    time.Duration
	apiKey            string
	profileStatus     int
	players           map[string]map[string]interface{}
	checkAuthRequests []url.Values
	profileRequests   int

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider. It's stopped
// automatically when the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		isValid:         "true",
		checkAuthStatus: http.StatusOK,
		profileStatus:   http.StatusOK,
		players:         map[string]map[string]interface{}{},
		t:               t,
	}
	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	cert := p.httpServer.Certificate()

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// Endpoint returns the test provider's OpenID endpoint.
func (p *TestProvider) Endpoint() string { return p.httpServer.URL + "/openid/login" }

// APIBaseURL returns the test provider's Web API base URL.
func (p *TestProvider) APIBaseURL() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// SetIsValid configures the is_valid value returned by check_authentication.
// The default is "true".
func (p *TestProvider) SetIsValid(v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isValid = v
}

// SetCheckAuthStatus configures the http status of check_authentication
// responses. The default is 200.
func (p *TestProvider) SetCheckAuthStatus(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkAuthStatus = code
}

// SetCheckAuthDelay delays check_authentication responses by d.
func (p *TestProvider) SetCheckAuthDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkAuthDelay = d
}

// SetAPIKey configures the API key required by the player summaries API.
func (p *TestProvider) SetAPIKey(k string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiKey = k
}

// SetProfileStatus configures the http status of player summaries
// responses. The default is 200.
func (p *TestProvider) SetProfileStatus(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileStatus = code
}

// SetPlayer configures the player summary returned for steamID. The
// "steamid" attribute is set for you.
func (p *TestProvider) SetPlayer(steamID string, summary map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := map[string]interface{}{}
	for k, v := range summary {
		s[k] = v
	}
	s["steamid"] = steamID
	p.players[steamID] = s
}

// CheckAuthRequests returns the forms received by check_authentication.
func (p *TestProvider) CheckAuthRequests() []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]url.Values(nil), p.checkAuthRequests...)
}

// ProfileRequests returns how many player summaries requests were received.
func (p *TestProvider) ProfileRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profileRequests
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/openid/login":
		p.serveCheckAuthentication(w, req)
	case playerSummariesPath:
		p.servePlayerSummaries(w, req)
	default:
		http.NotFound(w, req)
	}
}

func (p *TestProvider) serveCheckAuthentication(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		http.Error(w, fmt.Sprintf("unexpected content type %q", ct), http.StatusBadRequest)
		return
	}
	if err := req.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PostForm.Get(ParamMode) != ModeCheckAuthentication {
		http.Error(w, "unexpected mode", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.checkAuthRequests = append(p.checkAuthRequests, req.PostForm)
	isValid, status, delay := p.isValid, p.checkAuthStatus, p.checkAuthDelay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "ns:%s\nis_valid:%s\n", OpenIDNamespace, isValid)
}

func (p *TestProvider) servePlayerSummaries(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := req.URL.Query()

	p.mu.Lock()
	p.profileRequests++
	apiKey, status := p.apiKey, p.profileStatus
	player, found := p.players[q.Get("steamids")]
	p.mu.Unlock()

	if apiKey != "" && q.Get("key") != apiKey {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	players := []map[string]interface{}{}
	if found {
		players = append(players, player)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"response": map[string]interface{}{
			"players": players,
		},
	})
}
