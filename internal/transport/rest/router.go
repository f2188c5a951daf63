package rest

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"feedbackdesk/internal/metrics"
	"feedbackdesk/internal/service"
	"feedbackdesk/internal/transport/rest/handler"
	"feedbackdesk/internal/transport/rest/middleware"
	"feedbackdesk/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	IntakeService    *service.IntakeService
	DashboardService *service.DashboardService
	AdminService     *service.AdminService
	ExportService    *service.ExportService
	WSHub            *ws.Hub
	Metrics          *metrics.Metrics
	Logger           *slog.Logger

	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	intakeHandler := handler.NewIntakeHandler(c.IntakeService, c.Logger)
	adminHandler := handler.NewAdminHandler(c.AdminService, c.Logger)
	dashboardHandler := handler.NewDashboardHandler(c.DashboardService, c.ExportService, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.DashboardService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService, c.Logger)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))
	r.Use(middleware.RequestLogger(c.Logger, c.Metrics))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", c.Metrics.Handler()).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions", intakeHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", intakeHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", intakeHandler.End).Methods("DELETE")
	v1.HandleFunc("/sessions/{id}/form", intakeHandler.Form).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/access", intakeHandler.Access).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/submit", intakeHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/reset", intakeHandler.Reset).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/admin", wsHandler.AdminWS).Methods("GET")

	// Admin routes (require admin claim)
	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/dashboard", dashboardHandler.Get).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/dashboard/refresh", dashboardHandler.Refresh).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/export.csv", dashboardHandler.Export).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/questions", adminHandler.ListQuestions).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/questions", adminHandler.CreateQuestion).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/questions/{id}", adminHandler.UpdateQuestion).Methods("PATCH", "OPTIONS")
	adminRoutes.HandleFunc("/questions/{id}", adminHandler.DeleteQuestion).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/access-pin", adminHandler.ChangeAccessPIN).Methods("PUT", "OPTIONS")

	// Websocket upgrades bypass tracing so the raw connection can be hijacked
	return otelhttp.NewHandler(r, "feedbackdesk", otelhttp.WithFilter(func(req *http.Request) bool {
		return !strings.HasPrefix(req.URL.Path, "/v1/ws/")
	}))
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}

	allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
	if allowedMethods == "" {
		allowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}

	allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
	if allowedHeaders == "" {
		allowedHeaders = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
