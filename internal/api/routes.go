package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paydesk/internal/metrics"
)

// Routes returns the root handler. Every /api route is served twice: under
// /api with live collaborators and under /api/sandbox with sandbox ones.
func (s *Server) Routes() http.Handler {
	metrics.RegisterDefault()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	// Set before the subrouters are mounted so they inherit both.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.HealthHandler)
	r.Get("/readyz", s.ReadyHandler)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Get("/transactions", s.Pages.Transactions)
	r.Get("/sandbox/transactions", s.Pages.SandboxTransactions)

	r.Route("/api/sandbox", s.apiRoutes)
	r.Route("/api", s.apiRoutes)

	return rewriteSandboxAPI(r)
}

func (s *Server) apiRoutes(r chi.Router) {
	r.Get("/debug/mode", s.DebugModeHandler)
	r.Get("/events/ws", s.EventStreamHandler)

	r.Route("/monoova", func(r chi.Router) {
		// Webhook intake is never rate limited.
		r.Post("/webhooks/{kind}", s.WebhookHandler)
		r.Get("/webhooks/events", s.WebhookEventsHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Get("/financial/status/{startDate}/{endDate}", s.StatusByDateHandler)
			// An empty endDate segment is a missing parameter, not an unknown route.
			r.Get("/financial/status/{startDate}/", s.StatusByDateHandler)
			r.Get("/financial/status/{uniqueReference}", s.StatusByReferenceHandler)
			r.HandleFunc("/financial/validate", s.ValidateTransactionHandler)
			r.Get("/public/ping", s.PingHandler)
		})
	})
}
