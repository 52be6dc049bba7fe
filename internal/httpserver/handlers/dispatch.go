package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/trigger"
)

// Dispatch starts the remote workflow with the same parameters as Run.
func Dispatch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Dispatch == nil {
			http.Error(w, "dispatch is not configured", http.StatusServiceUnavailable)
			return
		}
		opts, err := runOptions(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		inputs := trigger.Inputs{DestinationID: opts.Destination, SendAll: opts.SendAll}
		if err := d.Dispatch(r.Context(), inputs); err != nil {
			d.Logger.Error("workflow dispatch failed",
				logger.String("remote_ip", r.RemoteAddr),
				logger.Error(err))
			http.Error(w, trigger.Describe(err), http.StatusBadGateway)
			return
		}

		d.Logger.Info("workflow dispatched via endpoint",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Bool("send_all", opts.SendAll))
		w.WriteHeader(http.StatusAccepted)
		if _, err := w.Write([]byte("🚀 Workflow dispatched\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
