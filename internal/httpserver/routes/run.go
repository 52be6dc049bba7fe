package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/mw"
)

func init() { Register(registerRun) }

// triggerLimit guards the endpoints that start browser sessions or
// remote workflows.
func triggerLimit(d deps.Deps) Middleware {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:             3,
		RefillPerIPPerMin: 6,
		MaxEntries:        1024,
		SweepInterval:     time.Minute,
		IdleTTL:           10 * time.Minute,
		TrustProxy:        d.TrustProxy,
	})
}

func registerRun(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		triggerLimit(d),
	).Post("/api/run", handlers.Run(d))
}
