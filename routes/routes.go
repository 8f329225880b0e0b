package routes

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civicpulse/handler"
	"civicpulse/middleware"
	"civicpulse/models"
	"civicpulse/service"
)

// Services bundles what the HTTP layer needs
type Services struct {
	Reports       *service.ReportService
	Scoring       *service.ScoringEngine
	Notifications *service.NotificationService
	Routing       *service.RouteService
	Auth          *service.AuthService
	JWTSecret     string
	// Ping checks store reachability for /health; nil skips the check
	Ping func(ctx context.Context) error
}

// SetupRoutes configures all API routes
func SetupRoutes(s *Services) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.CountRequests)

	// Initialize handlers
	reportHandler := handler.NewReportHandler(s.Reports)
	workerHandler := handler.NewWorkerHandler(s.Reports, s.Routing)
	scoreHandler := handler.NewScoreHandler(s.Scoring)
	notificationHandler := handler.NewNotificationHandler(s.Notifications)
	authHandler := handler.NewAuthHandler(s.Auth)
	healthHandler := handler.NewHealthHandler(s.Ping)

	auth := middleware.NewAuthMiddleware(s.JWTSecret)
	citizen := auth.RequireRole(models.RoleCitizen)
	staff := auth.RequireRole(models.RoleAdmin, models.RoleWorker)
	worker := auth.RequireRole(models.RoleWorker)

	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	// POST /api/v1/auth/staff/login - Staff login (admin, worker)
	apiV1.HandleFunc("/auth/staff/login", authHandler.StaffLogin).Methods("POST")

	reports := apiV1.PathPrefix("/reports").Subrouter()

	// Citizen report routes. Literal paths are registered before /{id}.
	reports.Handle("", citizen(http.HandlerFunc(reportHandler.ListMyReports))).Methods("GET")
	reports.Handle("", citizen(http.HandlerFunc(reportHandler.CreateReport))).Methods("POST")
	reports.Handle("/nearby", citizen(http.HandlerFunc(reportHandler.CheckNearby))).Methods("POST")
	reports.Handle("/feedback-prompts", citizen(http.HandlerFunc(reportHandler.FeedbackPrompts))).Methods("GET")
	reports.Handle("/{id}/comments", citizen(http.HandlerFunc(reportHandler.AddComment))).Methods("POST")
	reports.Handle("/{id}/feedback", citizen(http.HandlerFunc(reportHandler.SubmitFeedback))).Methods("POST")

	// Any authenticated actor may read a report and its timeline
	reports.Handle("/{id}", auth.RequireAuth(http.HandlerFunc(reportHandler.GetReport))).Methods("GET")
	reports.Handle("/{id}/timeline", auth.RequireAuth(http.HandlerFunc(reportHandler.GetTimeline))).Methods("GET")

	// POST /api/v1/reports/{id}/transition - Status change (admin, worker on own task)
	reports.Handle("/{id}/transition", staff(http.HandlerFunc(reportHandler.Transition))).Methods("POST")

	// Worker dashboard
	apiV1.Handle("/worker/tasks", worker(http.HandlerFunc(workerHandler.ListTasks))).Methods("GET")
	apiV1.Handle("/worker/route", worker(http.HandlerFunc(workerHandler.Route))).Methods("POST")

	// Scores
	apiV1.Handle("/scores/me", auth.RequireAuth(http.HandlerFunc(scoreHandler.MyScore))).Methods("GET")
	apiV1.Handle("/scores/leaderboard", auth.RequireAuth(http.HandlerFunc(scoreHandler.Leaderboard))).Methods("GET")

	// Notifications
	apiV1.Handle("/notifications", auth.RequireAuth(http.HandlerFunc(notificationHandler.List))).Methods("GET")
	apiV1.Handle("/notifications/{id}/read", auth.RequireAuth(http.HandlerFunc(notificationHandler.MarkRead))).Methods("POST")

	return router
}
