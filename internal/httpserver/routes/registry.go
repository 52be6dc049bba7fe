package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
)

// Registrar mounts a group of routes.
type Registrar func(r chi.Router, d deps.Deps)

// Middleware guards the routes of a single Registrar.
type Middleware = func(http.Handler) http.Handler

type registration struct {
	mount  Registrar
	guards []Middleware
}

var registrations []registration

// Register queues a Registrar. Route files call it from init.
func Register(mount Registrar, guards ...Middleware) {
	registrations = append(registrations, registration{mount: mount, guards: guards})
}

// RegisterAll mounts every queued Registrar on r, each behind its own guards.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registrations {
		if len(reg.guards) == 0 {
			reg.mount(r, d)
			continue
		}
		reg.mount(r.With(reg.guards...), d)
	}
}
