// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/cap-steam/steam"
	"github.com/hashicorp/cap-steam/steam/callback"
	"github.com/hashicorp/cap-steam/steam/store/memory"
	steamredis "github.com/hashicorp/cap-steam/steam/store/redis"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// List of configuration environment variables
const (
	realm        = "STEAM_REALM"
	returnURL    = "STEAM_RETURN_URL"
	port         = "STEAM_PORT"
	apiKey       = "STEAM_API_KEY"       // optional
	allowedHosts = "STEAM_ALLOWED_HOSTS" // optional, comma separated
	redisAddr    = "STEAM_REDIS_ADDR"    // optional
	logLevel     = "STEAM_LOG_LEVEL"     // optional
)

func envConfig() (map[string]string, error) {
	const op = "envConfig"
	env := map[string]string{}
	for _, k := range []string{realm, returnURL, port} {
		v := os.Getenv(k)
		if v == "" {
			return nil, fmt.Errorf("%s: %s is empty", op, k)
		}
		env[k] = v
	}
	for _, k := range []string{apiKey, allowedHosts, redisAddr, logLevel} {
		env[k] = os.Getenv(k)
	}
	return env, nil
}

func main() {
	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	env, err := envConfig()
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		return
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "steam-login",
		Level: hclog.LevelFromString(env[logLevel]),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	stateStore, nonceStore, closeStore, err := newStores(ctx, env[redisAddr])
	if err != nil {
		logger.Error("unable to create store", "error", err)
		return
	}
	defer closeStore()

	metrics, err := steam.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("unable to register metrics", "error", err)
		return
	}

	opts := []steam.Option{
		steam.WithStateStore(stateStore),
		steam.WithNonceStore(nonceStore),
		steam.WithAPIKey(steam.APIKey(env[apiKey])),
		steam.WithLogger(logger.Named("steam")),
		steam.WithMetrics(metrics),
	}
	if env[allowedHosts] != "" {
		opts = append(opts, steam.WithAllowedReturnHosts(splitList(env[allowedHosts])...))
	}
	c, err := steam.NewConfig(env[realm], env[returnURL], opts...)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}
	rp, err := steam.NewRelyingParty(c)
	if err != nil {
		logger.Error("unable to create relying party", "error", err)
		return
	}

	sessions := newSessionCache()
	login, err := callback.Login(rp, callback.DefaultErrorResponse)
	if err != nil {
		logger.Error("unable to create login handler", "error", err)
		return
	}
	cb, err := callback.Callback(rp, verifyUser(logger), SuccessHandler(sessions), ErrorHandler(logger))
	if err != nil {
		logger.Error("unable to create callback handler", "error", err)
		return
	}
	returnPath, err := pathOf(env[returnURL])
	if err != nil {
		logger.Error("invalid return url", "error", err)
		return
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/auth/steam", login)
	r.Get(returnPath, cb)
	r.Get("/me", MeHandler(sessions))
	r.Post("/logout", LogoutHandler(sessions))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", env[port]),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srvCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "login", "/auth/steam", "callback", returnPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvCh <- err
		}
	}()

	select {
	case err := <-srvCh:
		logger.Error("server closed with error", "error", err)
	case <-ctx.Done():
		logger.Info("interrupted, shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// newStores returns a redis backed store when addr is set, otherwise an
// in-memory store.
func newStores(ctx context.Context, addr string) (steam.StateStore, steam.NonceStore, func(), error) {
	const op = "newStores"
	if addr == "" {
		s := memory.NewStore()
		return s, s, func() {}, nil
	}
	client, err := steamredis.NewClient(ctx, addr, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	s, err := steamredis.NewStore(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, s, func() { _ = client.Close() }, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
