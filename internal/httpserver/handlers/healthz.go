package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Build         buildInfo `json:"build"`
}

// Healthz is the liveness probe. It never touches a collaborator.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := d.Now().Sub(d.StartTime).Truncate(time.Millisecond)
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: uptime.Seconds(),
			Build:         build,
		})
	}
}
