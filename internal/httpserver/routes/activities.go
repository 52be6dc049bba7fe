package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/mw"
)

func init() { Register(registerActivities) }

func registerActivities(r chi.Router, d deps.Deps) {
	api := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
	api.Get("/api/activities", handlers.Activities(d))
	api.Get("/api/activities/{id}", handlers.Activity(d))
	api.Get("/api/status", handlers.Status(d))
}
