/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in error logs
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/holidays                 Public holiday calendar
  /api/users/{userID}/records   Attendance records
  /api/users/{userID}/settings  Work schedule and vacation policy
  /api/users/{userID}/summary   Weekly and monthly reports
  /api/users/{userID}/balance   Cumulative overtime balance
  /api/users/{userID}/vacation  Vacation snapshot

SECURITY NOTE:
  No authentication middleware. All endpoints are public and the user is
  taken from the path.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultOrigins are the dev frontends allowed when none are configured.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultOrigins
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/holidays", h.ListHolidays)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Route("/records", func(r chi.Router) {
				r.Get("/", h.ListRecords)
				r.Post("/", h.CreateRecord)
				r.Get("/defaults", h.RecordDefaults)
				r.Get("/{id}", h.GetRecord)
				r.Put("/{id}", h.UpdateRecord)
				r.Delete("/{id}", h.DeleteRecord)
				r.Post("/{id}/submit", h.SubmitRecord)
			})

			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)

			r.Get("/summary/week", h.WeeklySummary)
			r.Get("/summary/month", h.MonthlySummary)
			r.Get("/balance", h.Balance)
			r.Get("/vacation", h.VacationSnapshot)
		})
	})

	return r
}
