package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the snapshot backend answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if d.SnapshotPing != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := d.SnapshotPing(ctx); err != nil {
				d.Logger.Warn("readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(readyzResponse{Ready: false, Error: err.Error()})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready: true,
		})
	}
}
