package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stocksense/config"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	// The stream is long lived and must not be cut by the request timeout
	r.Get("/api/stream", h.HandleStream)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second))

		// Root routes
		r.Get("/", h.HandleIndex)
		r.Get("/index.html", h.HandleIndex)

		// API routes
		r.Route("/api", func(r chi.Router) {
			// Health check
			r.Get("/health", h.HandleHealth)

			// Tracked stocks
			r.Route("/stocks", func(r chi.Router) {
				r.Get("/", h.HandleGetStocks)
				r.Post("/", h.HandleAddStock)
				r.Delete("/{symbol}", h.HandleRemoveStock)
			})
			r.Post("/refresh", h.HandleRefresh)

			// Untracked lookups
			r.Get("/stock/{symbol}", h.HandleGetStock)
			r.Post("/quotes", h.HandleBatchQuotes)

			// Market data
			r.Get("/news", h.HandleGetNews)
			r.Get("/indices", h.HandleGetIndices)
			r.Get("/indices/series", h.HandleGetIndexSeries)
			r.Get("/sentiment", h.HandleGetSentiment)
			r.Get("/market-status", h.HandleGetMarketStatus)

			// Notifications
			r.Get("/notifications", h.HandleGetNotifications)
			r.Delete("/notifications/{id}", h.HandleDismissNotification)
		})
	})

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, HX-Request, HX-Target, HX-Trigger")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
