package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"civicpulse/config"
	"civicpulse/logger"
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/routes"
	"civicpulse/schema"
	"civicpulse/service"
	"civicpulse/worker"
)

func main() {
	// Load configuration (.env merged inside)
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.GetLogger("main").Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(&cfg.Log)
	log := logger.GetLogger("main")

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}
	log.Infof("Policy: duplicate radius %.0fm, overdue after %v", policy.Duplicate.RadiusMeters, policy.Overdue.Threshold)

	store, ping, closeStore := openStore(cfg, log)
	defer closeStore()

	// Side effects (scoring, notifications) run off the request path
	dispatcher := service.NewDispatcher(models.DefaultDispatchConfig(), cfg.Worker.DispatchWorkers)

	// Initialize services
	scoring := service.NewScoringEngine(store, policy.Scoring)
	notifications := service.NewNotificationService(store, store, policy.Overdue)
	detector := service.NewDuplicateDetector(store, policy.Duplicate.RadiusMeters)
	reports := service.NewReportService(store, detector, scoring, notifications, dispatcher)
	routing := service.NewRouteService(store, store, service.NewTaskRouter(policy.Routing), cfg.Server.RouteTimeout)
	auth := service.NewAuthService(store, cfg.JWTSecret)

	overdueWorker := worker.NewOverdueWorker(notifications, cfg.Worker.OverdueCheckInterval)
	overdueWorker.Start()

	// Setup routes
	router := routes.SetupRoutes(&routes.Services{
		Reports:       reports,
		Scoring:       scoring,
		Notifications: notifications,
		Routing:       routing,
		Auth:          auth,
		JWTSecret:     cfg.JWTSecret,
		Ping:          ping,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           corsHandler(cfg.Server.CORSOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	overdueWorker.Stop()
	dispatcher.Close()
	log.Info("Stopped")
}

// openStore returns the configured store, an optional health pinger and a close func
func openStore(cfg *config.Config, log *logrus.Entry) (repository.Store, func(context.Context) error, func()) {
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		log.Infof("Using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil, func() {}
	}

	// Initialize database connection (UTC for consistent timestamps)
	db, err := sql.Open("mysql", cfg.Database.MySQLDSN())
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test database connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Infof("Database connection established")

	if cfg.Database.InitSchema {
		if err := schema.InitializeDatabase(db); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}
	// Verify required columns exist (prevents version-check and scoring failures from schema lag)
	if err := schema.ValidateRequiredColumns(db, nil); err != nil {
		log.Fatalf("Schema validation failed: %v", err)
	}

	return repository.NewMySQLStore(db), db.PingContext, func() { _ = db.Close() }
}

// corsHandler sets CORS headers and answers preflight requests
func corsHandler(origins string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
