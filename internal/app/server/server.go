package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"xinan/internal/domain/payroll"
	"xinan/internal/platform/config"
	"xinan/internal/platform/db"
	"xinan/internal/platform/jobs"
	"xinan/internal/platform/metrics"
	"xinan/internal/requestctx"
	"xinan/internal/transport/http/api"
	payrollhandler "xinan/internal/transport/http/handlers/payroll"
	"xinan/internal/transport/http/middleware"
)

var errStaticSchedules = errors.New("schedules are not loaded from a database")

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Payroll *payroll.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Router  http.Handler
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func Run() {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()
	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "err", err)
		}
		slog.Info("payroll server stopped")
	}
}

// New wires the schedule source, the payroll service and the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.New()}

	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.DB = pool
	}

	schedules, source, err := LoadSchedules(ctx, cfg, app.DB)
	if err != nil {
		app.Close()
		return nil, err
	}
	slog.Info("insurance schedules loaded", "source", source, "cities", len(schedules.Cities()))
	if !schedules.KnownCity(cfg.DefaultCity) {
		slog.Warn("default city has no schedule", "city", cfg.DefaultCity)
	}

	app.Payroll = payroll.NewService(schedules, cfg.BatchWorkers, cfg.PayslipFontPath)
	app.Jobs = jobs.New(jobs.Task{
		Name:     jobs.JobScheduleReload,
		Interval: app.reloadInterval(),
		Run:      app.reloadSchedules,
	})
	app.Router = app.routes()
	return app, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// LoadSchedules picks the schedule source: the database when a pool is
// given, then INSURANCE_CONFIG_FILE, then the built-in defaults.
func LoadSchedules(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*payroll.Config, string, error) {
	if pool != nil {
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				return nil, "", fmt.Errorf("migrations: %w", err)
			}
		}
		if cfg.RunSeed {
			defaults, err := payroll.DefaultConfig()
			if err != nil {
				return nil, "", err
			}
			if err := db.Seed(ctx, pool, defaults); err != nil {
				return nil, "", fmt.Errorf("seed: %w", err)
			}
		}
		loaded, err := payroll.LoadConfigFromStore(ctx, payroll.NewStore(pool))
		return loaded, "database", err
	}
	if cfg.InsuranceConfigFile != "" {
		f, err := os.Open(cfg.InsuranceConfigFile)
		if err != nil {
			return nil, "", fmt.Errorf("open insurance config: %w", err)
		}
		defer f.Close()
		loaded, err := payroll.LoadConfig(f)
		return loaded, cfg.InsuranceConfigFile, err
	}
	loaded, err := payroll.DefaultConfig()
	return loaded, "builtin", err
}

func (a *App) reloadInterval() time.Duration {
	if a.DB == nil {
		return 0
	}
	return a.Config.ScheduleReload
}

func (a *App) reloadSchedules(ctx context.Context) error {
	if a.DB == nil {
		return errStaticSchedules
	}
	loaded, err := payroll.LoadConfigFromStore(ctx, payroll.NewStore(a.DB))
	if err != nil {
		return err
	}
	a.Payroll.Replace(loaded)
	slog.Info("insurance schedules reloaded", "cities", len(loaded.Cities()))
	return nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			snapshot := a.Metrics.Snapshot()
			if info, ok := a.Jobs.LastRun(jobs.JobScheduleReload); ok {
				snapshot["lastScheduleReload"] = info
			}
			api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		payrollHandler := payrollhandler.NewHandler(a.Payroll, a.Metrics, cfg.DefaultCity, cfg.MaxBatchRows, cfg.JWTSecret != "")
		payrollHandler.RegisterRoutes(r)

		authEnabled := cfg.JWTSecret != ""
		r.With(middleware.RequireUser(authEnabled), middleware.RequirePayrollRole(authEnabled)).
			Post("/schedules/reload", a.handleReloadSchedules)
	})
	return router
}

// handleReloadSchedules re-reads the schedule table outside the ticker, e.g.
// right after an operator edits a city's bases.
func (a *App) handleReloadSchedules(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	err := a.Jobs.RunNow(r.Context(), jobs.JobScheduleReload)
	switch {
	case errors.Is(err, errStaticSchedules):
		api.Fail(w, http.StatusConflict, "reload_unavailable", err.Error(), requestID)
		return
	case err != nil:
		requestctx.Logger(r.Context()).Error("schedule reload failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "reload_failed", "failed to reload insurance schedules", requestID)
		return
	}
	info, _ := a.Jobs.LastRun(jobs.JobScheduleReload)
	api.Success(w, map[string]any{
		"cities":  a.Payroll.Cities(),
		"lastRun": info,
	}, requestID)
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
