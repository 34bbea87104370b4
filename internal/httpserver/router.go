package httpserver

import (
	"net/http"

	"mb-basketd/internal/auth"
	"mb-basketd/internal/baskets"
	"mb-basketd/internal/broker"
	"mb-basketd/internal/health"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	BasketHandler *baskets.Handler
	BrokerHandler *broker.Handler
	AuthHandler   *auth.Handler
	AuthService   *auth.Service
	HealthHandler *health.Handler
	QuotesWS      http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)

	r.Get("/health", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)

	r.Route("/basket-orders", func(r chi.Router) {
		r.Post("/", d.BasketHandler.Create)
		r.Get("/", d.BasketHandler.List)
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			d.BasketHandler.Get(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/{id}/execute", func(w http.ResponseWriter, r *http.Request) {
			d.BasketHandler.Execute(w, r, chi.URLParam(r, "id"))
		})
		r.Get("/{id}/progress", func(w http.ResponseWriter, r *http.Request) {
			d.BasketHandler.Progress(w, r, chi.URLParam(r, "id"))
		})
		r.Put("/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
			d.BasketHandler.Cancel(w, r, chi.URLParam(r, "id"))
		})
	})

	r.Post("/auth/login", d.AuthHandler.Login)
	r.Group(func(r chi.Router) {
		r.Use(WithAuth(d.AuthService))
		r.Get("/brokers", d.BrokerHandler.List)
	})

	if d.QuotesWS != nil {
		r.Get("/quotes/ws", d.QuotesWS.ServeHTTP)
	}

	return r
}
