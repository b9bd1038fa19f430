package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/dreo-ws/internal/auth"
	"github.com/rickgao/dreo-ws/internal/version"
)

// sessionState is the part of a session the health endpoint reports on.
type sessionState interface {
	Connected() bool
	Region() auth.Region
}

// createHandler creates the HTTP handler for health checks and metrics.
func createHandler(session sessionState, gatherer prometheus.Gatherer, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status    string `json:"status"`
			Connected bool   `json:"connected"`
			Region    string `json:"region"`
			Version   string `json:"version"`
		}{
			Status:    "healthy",
			Connected: session.Connected(),
			Region:    session.Region().String(),
			Version:   version.String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if !health.Connected {
			health.Status = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
