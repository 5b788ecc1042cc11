package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crudzilla/crudzilla/internal/auth"
	"github.com/crudzilla/crudzilla/internal/config"
	"github.com/crudzilla/crudzilla/internal/transport/middleware"
)

type tokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// RouterDeps bundles what NewRouter mounts.
type RouterDeps struct {
	CRUD     *CRUDHandler
	Health   *HealthHandler
	Verifier tokenVerifier
	CORS     config.CORSConfig
	Log      *slog.Logger
}

// NewRouter builds the HTTP handler: health endpoints at the root, entity endpoints
// under /api/crud behind authentication.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(deps.Log),
		middleware.Recovery(deps.Log),
		middleware.CORS(deps.CORS),
	))

	r.Get("/live", deps.Health.Live)
	r.Get("/ready", deps.Health.Ready)
	r.Get("/health", deps.Health.Health)

	r.Route("/api/crud", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Verifier, deps.Log))
		deps.CRUD.Routes(r)
	})

	return r
}
