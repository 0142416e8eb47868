package app

import (
	"github.com/gorilla/mux"
	"github.com/klokku/gcalbridge/internal/config"
	"github.com/klokku/gcalbridge/internal/rest"
	"github.com/klokku/gcalbridge/pkg/calendar"
)

// RegisterRoutes registers all endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	r.HandleFunc("/", deps.Index.Index).Methods("GET")

	// OAuth2
	r.HandleFunc("/oauth2", deps.AuthHandler.OAuthLogin).Methods("GET")
	r.HandleFunc("/oauth2callback", deps.AuthHandler.OAuthCallback).Methods("GET")

	// Calendar via the interactive session
	withOAuth2 := r.PathPrefix("/with-oauth2").Subrouter()
	withOAuth2.Use(calendar.BindHandle(deps.OAuth2Handles))
	withOAuth2.HandleFunc("/events", deps.CalendarHandler.ListEvents).Methods("GET")
	withOAuth2.HandleFunc("/create-event", deps.CalendarHandler.CreateEvent).Methods("GET")

	// Calendar via the service account
	withService := r.PathPrefix("/with-service").Subrouter()
	withService.Use(calendar.BindHandle(deps.ServiceHandles))
	withService.HandleFunc("/events", deps.CalendarHandler.ListEvents).Methods("GET")
	withService.HandleFunc("/create-event", deps.CalendarHandler.CreateEvent).Methods("GET")

	// Probes
	r.HandleFunc("/healthz", deps.Health.Liveness).Methods("GET")
	r.HandleFunc("/readyz", deps.Health.Readiness).Methods("GET")

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	r.NotFoundHandler = rest.NotFoundHandler()
	r.MethodNotAllowedHandler = rest.MethodNotAllowedHandler()
	if cfg.Metrics.Enabled {
		// router middleware skips unmatched requests, count them here
		r.NotFoundHandler = deps.Metrics.Middleware(r.NotFoundHandler)
		r.MethodNotAllowedHandler = deps.Metrics.Middleware(r.MethodNotAllowedHandler)
	}
}
