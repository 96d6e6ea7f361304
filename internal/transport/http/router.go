package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountservice "researchmatch/internal/account/service"
	applicationservice "researchmatch/internal/application/service"
	"researchmatch/internal/platform/metrics"
	"researchmatch/internal/platform/middleware"
	projectservice "researchmatch/internal/project/service"
	"researchmatch/internal/token"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Accounts     *accountservice.Service
	Projects     *projectservice.Service
	Applications *applicationservice.Service
	Tokens       *token.Service
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// NewRouter wires all endpoints. Identity endpoints sit at the root; project
// and application endpoints are mounted behind bearer auth.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Logger)

	accounts := NewAccountHandler(deps.Accounts, deps.Logger)
	accounts.PublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		accounts.AuthedRoutes(r)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Use(requireAuth)
		NewProjectHandler(deps.Projects, deps.Logger).Routes(r)
	})
	r.Route("/applications", func(r chi.Router) {
		r.Use(requireAuth)
		NewApplicationHandler(deps.Applications, deps.Logger).Routes(r)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
