package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
)

type activitiesResponse struct {
	Count      int               `json:"count"`
	LastUpdate string            `json:"last_update,omitempty"`
	Activities []domain.Activity `json:"activities"`
}

// Activities lists the latest extraction held in memory.
func Activities(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := d.MemoryIndex.All()
		if all == nil {
			all = []domain.Activity{}
		}
		resp := activitiesResponse{
			Count:      len(all),
			Activities: all,
		}
		if last := d.MemoryIndex.LastUpdate(); !last.IsZero() {
			resp.LastUpdate = last.Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Activity returns one activity by id. Ids contain slashes from the due
// date, so clients send them path-escaped.
func Activity(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := url.PathUnescape(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid activity id", http.StatusBadRequest)
			return
		}
		a, ok := d.MemoryIndex.Get(id)
		if !ok {
			http.Error(w, "activity not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
