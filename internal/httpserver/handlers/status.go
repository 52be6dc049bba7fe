package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/index"
)

type componentStatus struct {
	OK               bool             `json:"ok"`
	ActivitiesLoaded *int             `json:"activities_loaded,omitempty"`
	LastUpdate       string           `json:"last_update,omitempty"`
	Backend          string           `json:"backend,omitempty"`
	Mode             string           `json:"mode,omitempty"`
	Runs             map[string]int64 `json:"runs,omitempty"`
	Impact           string           `json:"impact,omitempty"`
	Error            string           `json:"error,omitempty"`
}

type statusResponse struct {
	State      string                     `json:"state"`
	Components map[string]componentStatus `json:"components"`
	LastRun    *index.RunSummary          `json:"last_run,omitempty"`
}

// Status reports the health of each moving part and the last run.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := d.MemoryIndex.Count()
		lastUpdate := d.MemoryIndex.LastUpdate()
		lastUpdateStr := "never"
		if !lastUpdate.IsZero() {
			lastUpdateStr = lastUpdate.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"index": {
				OK:               true,
				ActivitiesLoaded: &count,
				LastUpdate:       lastUpdateStr,
			},
			"snapshot": checkSnapshot(r.Context(), d),
			"dispatch": {
				OK:   d.Dispatch != nil,
				Mode: enabled(d.Dispatch != nil),
			},
		}

		resp := statusResponse{Components: components}
		if run, ok := d.MemoryIndex.LastRun(); ok {
			resp.LastRun = &run
		}
		resp.State = determineState(components, resp.LastRun)

		writeJSON(w, http.StatusOK, resp)
	}
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func determineState(components map[string]componentStatus, lastRun *index.RunSummary) string {
	// Without a working snapshot every run fails
	if snap, exists := components["snapshot"]; exists && !snap.OK {
		return "critical"
	}

	// The last run failed, the next one may recover
	if lastRun != nil && lastRun.Error != "" {
		return "degraded"
	}

	return "ok"
}

func checkSnapshot(parent context.Context, d deps.Deps) componentStatus {
	if d.SnapshotPing == nil {
		return componentStatus{
			OK:      true,
			Backend: d.SnapshotBackend,
			Mode:    "local",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.SnapshotPing(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.SnapshotBackend,
			Mode:    "remote",
			Impact:  "runs-fail",
			Error:   err.Error(),
		}
	}

	status := componentStatus{
		OK:      true,
		Backend: d.SnapshotBackend,
		Mode:    "remote",
	}
	// Extras are informative only, a failure here does not flip OK
	if d.SnapshotSavedAt != nil {
		if at, err := d.SnapshotSavedAt(ctx); err == nil && !at.IsZero() {
			status.LastUpdate = at.Format("2006-01-02 15:04:05")
		}
	}
	if d.RunStats != nil {
		if stats, err := d.RunStats(ctx); err == nil {
			status.Runs = stats
		}
	}
	return status
}
