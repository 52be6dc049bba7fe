package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/mw"
)

func init() { Register(registerDispatch) }

func registerDispatch(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		triggerLimit(d),
	).Post("/api/dispatch", handlers.Dispatch(d))
}
