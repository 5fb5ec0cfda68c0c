// Package router wires the HTTP surface of the gateway.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/account"
	healthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	socialctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/social"
	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	mw "github.com/dropDatabas3/socialgate/internal/http/middlewares"
	"github.com/dropDatabas3/socialgate/internal/rate"
)

// Deps contains everything the router needs.
type Deps struct {
	Social  *socialctrl.Controllers
	Health  *healthctrl.Controller
	Account *accountctrl.Controller

	Sessions mw.SessionVerifier

	// RateLimiter throttles the OAuth endpoints per client IP. Nil disables it.
	RateLimiter rate.Limiter

	// DefaultProvider backs the bare /authorize and /callback aliases for
	// single-provider deployments. Empty disables the aliases.
	DefaultProvider string
}

// New builds the chi router with the full middleware chain.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares globales, de afuera hacia adentro.
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithRecover())
	r.Use(mw.WithSecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Flujo OAuth. Nada de cachear redirects con códigos.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Use(mw.WithRateLimit(d.RateLimiter))
		// Con Bearer válido, /auth/{provider} entra en modo link.
		r.Use(mw.OptionalSessionAuth(d.Sessions))

		r.Get("/auth/{provider}", d.Social.Authorize.Authorize)
		r.Get("/auth/{provider}/callback", d.Social.Callback.Callback)

		if d.DefaultProvider != "" {
			r.Get("/authorize", withProvider(d.DefaultProvider, d.Social.Authorize.Authorize))
			r.Get("/callback", withProvider(d.DefaultProvider, d.Social.Callback.Callback))
		}
	})

	// Gestión de cuenta: requiere sesión.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithSessionAuth(d.Sessions))

		r.Get("/account", d.Account.Profile)
		r.Post("/account/unlink", d.Account.Unlink)
		r.Delete("/account", d.Account.Delete)
	})

	r.Get("/health", d.Health.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// withProvider fija el path value {provider} para las rutas alias.
func withProvider(provider string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.SetPathValue("provider", provider)
		next(w, r)
	}
}
