package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/branchstack/engine/internal/api/handlers"
	mw "github.com/branchstack/engine/internal/api/middleware"
)

type Dependencies struct {
	BranchesHandler  *handlers.BranchesHandler
	ResourcesHandler *handlers.ResourcesHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler()
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/resources", dep.ResourcesHandler.List)

	r.Route("/{resource}/branches", func(br chi.Router) {
		br.Post("/", dep.BranchesHandler.Create)
		br.Get("/", dep.BranchesHandler.List)
		br.Get("/{name}", dep.BranchesHandler.Get)
		br.Delete("/{name}", dep.BranchesHandler.Delete)
		br.Get("/{name}/events", dep.BranchesHandler.Events)
	})

	return r
}
