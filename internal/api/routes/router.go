package routes

import (
	"net/http"

	"github.com/healthconnect/backend/internal/api/handlers"
	"github.com/healthconnect/backend/internal/api/middleware"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	hospitalHandler     *handlers.HospitalHandler
	consultationHandler *handlers.ConsultationHandler
	adminHandler        *handlers.AdminHandler

	auth            *middleware.AuthMiddleware
	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// RouterOptions wires a Router. CacheMiddleware and Metrics may be nil.
type RouterOptions struct {
	HospitalHandler     *handlers.HospitalHandler
	ConsultationHandler *handlers.ConsultationHandler
	AdminHandler        *handlers.AdminHandler
	Auth                *middleware.AuthMiddleware
	CacheMiddleware     *middleware.CacheMiddleware
	AllowedOrigins      []string
	Metrics             *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(opts RouterOptions) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		hospitalHandler:     opts.HospitalHandler,
		consultationHandler: opts.ConsultationHandler,
		adminHandler:        opts.AdminHandler,
		auth:                opts.Auth,
		cacheMiddleware:     opts.CacheMiddleware,
		allowedOrigins:      opts.AllowedOrigins,
		metrics:             opts.Metrics,
	}
}

func (r *Router) handle(pattern string, h http.Handler) {
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		middleware.TagRoute(req)
		h.ServeHTTP(w, req)
	})
}

func (r *Router) public(pattern string, fn http.HandlerFunc) {
	r.handle(pattern, fn)
}

func (r *Router) authenticated(pattern string, fn http.HandlerFunc) {
	r.handle(pattern, r.auth.RequireAuth(fn))
}

func (r *Router) admin(pattern string, fn http.HandlerFunc) {
	r.handle(pattern, r.auth.RequireAdmin(fn))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.public("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Hospital finder endpoints
	r.public("GET /api/hospitals/search", r.hospitalHandler.Search)
	r.public("POST /api/hospitals/nearby", r.hospitalHandler.Nearby)
	r.public("GET /api/hospitals/results", r.hospitalHandler.Results)
	r.public("GET /api/geocode", r.hospitalHandler.Geocode)

	// Consultation catalog and booking wizard
	r.public("GET /api/consultation-types", r.consultationHandler.ListTypes)
	r.public("GET /api/consultation-slots", r.consultationHandler.ListTimeSlots)
	r.public("POST /api/consultations/validate", r.consultationHandler.Validate)

	r.authenticated("POST /api/consultations", r.consultationHandler.Book)
	r.authenticated("GET /api/consultations/mine", r.consultationHandler.ListMine)
	r.authenticated("POST /api/consultations/{id}/cancel", r.consultationHandler.Cancel)
	r.authenticated("GET /api/me", handlers.Me)

	// Admin review
	r.admin("GET /api/admin/consultations", r.adminHandler.ListConsultations)
	r.admin("POST /api/admin/consultations/{id}/approve", r.adminHandler.Approve)
	r.admin("POST /api/admin/consultations/{id}/reject", r.adminHandler.Reject)
	r.admin("POST /api/admin/consultations/{id}/complete", r.adminHandler.Complete)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
