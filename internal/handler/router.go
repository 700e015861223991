// Package handler implements the HTTP API: routing, request decoding and
// response encoding around the auth and note services.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/notesapi/internal/middleware"
	"github.com/hitoshi/notesapi/internal/model"
	"github.com/hitoshi/notesapi/internal/repository"
)

// RouterDeps groups what NewRouter needs.
type RouterDeps struct {
	// middleware
	Logger            *slog.Logger
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           middleware.HTTPRecorder // optional
	MetricsHandler    http.Handler            // optional, served at /metrics

	// services
	AuthService AuthServiceInterface
	NoteService NoteServiceInterface
	Pinger      repository.Pinger
}

// NewRouter builds the API router.
//
// Middleware order for every request:
//
//	RequestID → Logging → Recovery → SecurityHeaders → CORS → Metrics
//
// /auth/register and /auth/login add the per-IP auth limit. /auth/me and
// /notes/* add the auth gate followed by the per-user general limit.
// The API is served both at the root and under /api.
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError(r.Method))
	})

	if deps.Pinger != nil {
		r.Get("/health", NewHealthHandler(deps.Pinger))
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	api := apiRoutes(deps)
	api(r)
	r.Route("/api", api)

	return r
}

func apiRoutes(deps *RouterDeps) func(r chi.Router) {
	authHandler := NewAuthHandler(deps.AuthService)
	noteHandler := NewNoteHandler(deps.NoteService)

	authGate := middleware.NewAuthMiddleware(deps.Authenticator)
	authLimit, generalLimit := passthrough, passthrough
	if deps.RateLimiter != nil {
		authLimit = deps.RateLimiter.AuthMiddleware()
		generalLimit = deps.RateLimiter.GeneralMiddleware()
	}

	return func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", authHandler.Register)
			r.With(authLimit).Post("/login", authHandler.Login)
			r.With(authGate, generalLimit).Get("/me", authHandler.Me)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(authGate)
			r.Use(generalLimit)

			r.Post("/", noteHandler.CreateNote)
			r.Get("/", noteHandler.ListNotes)
			r.Get("/favorites", noteHandler.ListFavorites)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", noteHandler.GetNote)
				r.Put("/", noteHandler.UpdateNote)
				r.Delete("/", noteHandler.DeleteNote)
				r.Put("/favorite", noteHandler.ToggleFavorite)
			})
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }
