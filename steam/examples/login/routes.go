// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/cap-steam/steam"
	"github.com/hashicorp/cap-steam/steam/callback"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	sessionCookie = "steam_session"
	sessionTTL    = 8 * time.Hour
)

// sessionCache holds the profiles of logged in users, keyed by session id.
type sessionCache struct {
	c *gocache.Cache
}

func newSessionCache() *sessionCache {
	return &sessionCache{c: gocache.New(sessionTTL, 10*time.Minute)}
}

func (s *sessionCache) create(p *steam.Profile) (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}
	s.c.Set(id, p, gocache.DefaultExpiration)
	return id, nil
}

func (s *sessionCache) read(id string) (*steam.Profile, bool) {
	v, ok := s.c.Get(id)
	if !ok {
		return nil, false
	}
	p, ok := v.(*steam.Profile)
	return p, ok
}

func (s *sessionCache) delete(id string) { s.c.Delete(id) }

// verifyUser accepts every verified Steam identity. A real application would
// look the SteamID up in its own user store here.
func verifyUser(logger hclog.Logger) steam.VerifyFunc {
	return func(_ context.Context, p *steam.Profile) (interface{}, interface{}, error) {
		logger.Info("steam user logged in", "steam_id", p.ID, "name", p.DisplayName)
		return p, nil, nil
	}
}

func SuccessHandler(sessions *sessionCache) callback.SuccessResponseFunc {
	return func(user interface{}, _ interface{}, w http.ResponseWriter, req *http.Request) {
		p, ok := user.(*steam.Profile)
		if !ok {
			http.Error(w, "unexpected user", http.StatusInternalServerError)
			return
		}
		id, err := sessions.create(p)
		if err != nil {
			http.Error(w, "unable to create session", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(sessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, req, "/me", http.StatusFound)
	}
}

func ErrorHandler(logger hclog.Logger) callback.ErrorResponseFunc {
	return func(r *steam.Rejection, e error, w http.ResponseWriter, req *http.Request) {
		if e != nil {
			logger.Error("steam login failed", "error", e)
		}
		callback.DefaultErrorResponse(r, e, w, req)
	}
}

func MeHandler(sessions *sessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		c, err := req.Cookie(sessionCookie)
		if err != nil {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		p, ok := sessions.read(c.Value)
		if !ok {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		if err := enc.Encode(p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func LogoutHandler(sessions *sessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if c, err := req.Cookie(sessionCookie); err == nil {
			sessions.delete(c.Value)
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	}
}

// pathOf returns the path of an absolute URL, for routing.
func pathOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		return "", fmt.Errorf("%q has no path", raw)
	}
	return u.Path, nil
}
