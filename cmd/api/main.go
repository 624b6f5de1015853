package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"financemanager/internal/app"
	"financemanager/internal/config"
	"financemanager/internal/database"
	"financemanager/internal/logger"
	"financemanager/internal/services"

	_ "financemanager/internal/docs" // Import swagger docs
)

const (
	shutdownTimeout = 10 * time.Second
	sweepTimeout    = 5 * time.Minute
)

// @title           Finance Manager API
// @version         1.0
// @description     Personal finance tracking: categories, transactions, budgets, savings goals and reports.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Shared key for the scheduler-facing pipeline routes.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	svc := app.NewServices(cfg, dbManager.DB())
	router := app.NewRouter(cfg, svc)

	scheduler, err := startScheduler(cfg.RecurringSchedule, svc.Recurring)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { <-scheduler.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting finance manager API on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// startScheduler runs the recurring-transaction sweep on the configured cron
// spec. An empty spec leaves the sweep to the pipeline endpoint.
func startScheduler(spec string, recurring services.RecurringServicer) (*cron.Cron, error) {
	log := logger.Named("scheduler")
	if spec == "" {
		log.Info("recurring sweep schedule disabled")
		return nil, nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := recurring.ProcessDue(ctx, time.Now()); err != nil {
			log.Errorw("recurring sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid RECURRING_SCHEDULE %q: %w", spec, err)
	}

	c.Start()
	log.Infow("recurring sweep scheduled", "schedule", spec)
	return c, nil
}
