package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/monitor"
)

// Run queues a manual run. Query parameters: all=true for a full listing,
// destination=<chat id> to override the default destination.
func Run(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := runOptions(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if d.RunTrigger == nil || !d.RunTrigger(opts) {
			d.Logger.Warn("run already queued",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ A run is already queued, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Info("manual run triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Bool("send_all", opts.SendAll))
		w.WriteHeader(http.StatusAccepted)
		if _, err := w.Write([]byte("✅ Run triggered successfully\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

func runOptions(r *http.Request) (monitor.RunOptions, error) {
	q := r.URL.Query()
	opts := monitor.RunOptions{
		Destination: strings.TrimSpace(q.Get("destination")),
	}
	if v := q.Get("all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errBadParam("all", v)
		}
		opts.SendAll = all
	}
	return opts, nil
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for parameter " + e.name
}

func errBadParam(name, value string) error { return &paramError{name: name, value: value} }
