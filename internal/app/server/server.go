package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/dashboard"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/domain/org"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/platform/db"
	"leavedesk/internal/platform/email"
	"leavedesk/internal/platform/metrics"
	authhandler "leavedesk/internal/transport/http/handlers/auth"
	dashboardhandler "leavedesk/internal/transport/http/handlers/dashboard"
	leavehandler "leavedesk/internal/transport/http/handlers/leave"
	notificationshandler "leavedesk/internal/transport/http/handlers/notifications"
	orghandler "leavedesk/internal/transport/http/handlers/org"
	"leavedesk/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	Pool   *pgxpool.Pool
	Router http.Handler
}

// New connects, migrates, seeds, and builds the router. Callers own
// Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrationsDir()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	if cfg.MetricsEnabled {
		metrics.Init()
	}
	return &App{Config: cfg, Pool: pool, Router: NewRouter(cfg, pool)}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

// migrationsDir walks up from the working directory so the server
// also starts from cmd/server or a test package directory.
func migrationsDir() string {
	dir := "migrations"
	for i := 0; i < 4; i++ {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		dir = filepath.Join("..", dir)
	}
	return "migrations"
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("leavedesk listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-shutdown
	log.Println("shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// NewRouter wires stores, services, and handlers; split out of Run so
// integration tests can mount the full API on httptest.
func NewRouter(cfg config.Config, pool *pgxpool.Pool) http.Handler {
	authStore := auth.NewStore(pool)
	leaveStore := leave.NewStore(pool)
	orgStore := org.NewStore(pool)
	notifStore := notifications.NewStore(pool)

	mailer := email.New(cfg)
	notifSvc := notifications.NewService(notifStore, mailer, cfg.EmailFrom)
	leaveSvc := leave.NewService(leaveStore, notifSvc)
	authSvc := auth.NewService(authStore, leaveStore, cfg.JWTSecret, cfg.TokenTTL, cfg.MaxLoginFailures)
	orgSvc := org.NewService(orgStore)
	dashSvc := dashboard.NewService(leaveStore)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		router.Use(metrics.Instrument)
	}
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, leaveSvc, mailer, cfg.EmailFrom).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc).RegisterRoutes(r)
		orghandler.NewHandler(orgSvc).RegisterRoutes(r)
		dashboardhandler.NewHandler(dashSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifSvc).RegisterRoutes(r)
	})

	return router
}
