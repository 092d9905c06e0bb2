package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdimtricp/cinereco/internal/config"
)

func NewRouter(app *App, sec config.SecurityConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(sec))

	r.Get("/ping", PingHandler)
	r.Get("/healthz", app.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimit(sec))
		r.Post("/search", app.SearchHandler)
		r.Post("/recommend", app.RecommendHandler)
		r.Get("/movies/{id}", app.MovieHandler)
	})

	return r
}
