package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/graos-sa/salescore/internal/http/analytics"
	"github.com/graos-sa/salescore/internal/http/ledgerops"
)

func New(
	ledgersV1 *ledgerops.Handler,
	analyticsV1 *analytics.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/ledgers", ledgersV1.Routes)
		r.Route("/analytics", analyticsV1.Routes)
	})

	return router
}
