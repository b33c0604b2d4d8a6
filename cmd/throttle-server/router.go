package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	goThrottle "github.com/MrEthical07/goThrottle"
	promexport "github.com/MrEthical07/goThrottle/metrics/export/prometheus"
	"github.com/MrEthical07/goThrottle/middleware"
)

func newRouter(engine *goThrottle.Engine, users *userStore, logger *slog.Logger, trustProxy bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	guard := middleware.Guard(engine, middleware.WithTrustedForwardedHeaders(trustProxy))
	r.With(guard).Post("/login", loginHandler(users, logger))

	r.Method(http.MethodGet, "/metrics", promexport.NewPrometheusExporter(engine).Handler())
	r.Get("/report", reportHandler(engine))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func loginHandler(users *userStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		if !users.Authenticate(username, password) {
			logger.Debug("throttle-server: login failed", "username", username)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "username": username})
	}
}

func reportHandler(engine *goThrottle.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, engine.Report())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
