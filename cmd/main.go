package main

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

	"loanshop/internal/api"
	"loanshop/internal/batch"
	"loanshop/internal/config"
	"loanshop/internal/domain/customer"
	"loanshop/internal/domain/loan"
	"loanshop/internal/domain/report"
	"loanshop/internal/event"
	"loanshop/internal/importer"
	"loanshop/internal/infrastructure/docstore"
	"loanshop/internal/infrastructure/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)
	rabbitConn, publisher := initializePublisher(cfg, logger)
	svcs, reportJob := initializeServices(dbPool, publisher, cfg, logger)

	cronScheduler := startBatchJobs(cfg, logger, reportJob)
	router := api.SetupRouter(svcs, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, rabbitConn, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := docstore.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// initializePublisher connects to RabbitMQ when events are enabled and
// falls back to log-only publishing otherwise.
func initializePublisher(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, event.Publisher) {
	if !cfg.Events.Enabled {
		logger.Info("Event publishing disabled; using log publisher.")
		return nil, event.NewLogPublisher(logger)
	}

	conn, err := amqp.Dial(cfg.Events.URL)
	if err != nil {
		logger.Warn("Failed to connect to RabbitMQ; falling back to log publisher.", slog.Any("error", err))
		return nil, event.NewLogPublisher(logger)
	}
	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.Events.ExchangeName, logger)
	if err != nil {
		logger.Warn("Failed to set up RabbitMQ publisher; falling back to log publisher.", slog.Any("error", err))
		_ = conn.Close()
		return nil, event.NewLogPublisher(logger)
	}
	logger.Info("RabbitMQ event publisher connected.", "exchange", cfg.Events.ExchangeName)
	return conn, publisher
}

func initializeServices(dbPool *pgxpool.Pool, publisher event.Publisher, cfg *config.Config, logger *slog.Logger) (api.Services, *batch.ReportRefreshJob) {
	logger.Info("Initializing application components...")

	store := docstore.NewPostgresStore(dbPool, logger)
	if err := store.EnsureSchema(context.Background()); err != nil {
		logger.Error("Failed to ensure document store schema", "error", err)
		os.Exit(1)
	}

	customerRepo := customer.NewRepository(store, logger)
	loanRepo := loan.NewRepository(store, logger)
	reportRepo := report.NewRepository(store, logger)

	customerService := customer.NewCustomerService(customerRepo, logger)
	loanService := loan.NewLoanService(loanRepo, publisher, logger)
	reportService := report.NewReportService(reportRepo, loanRepo, logger)
	pipeline := importer.NewPipeline(customerRepo, loanRepo, publisher, logger)

	svcs := api.Services{
		Customers: customerService,
		Loans:     loanService,
		Reports:   reportService,
		Imports:   pipeline,
	}
	return svcs, batch.NewReportRefreshJob(reportService, logger)
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, job *batch.ReportRefreshJob) *cron.Cron {
	scheduler := cron.New()
	schedule := cfg.Batch.ReportRefreshSchedule

	_, err := scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Batch.ReportRefreshTimeout)
		defer cancel()
		if err := job.Run(ctx); err != nil {
			logger.Error("Scheduled report refresh failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("Failed to schedule report refresh job", "schedule", schedule, "error", err)
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info("Cron scheduler started.", "reportRefreshSchedule", schedule)
	return scheduler
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, rabbitConn *amqp.Connection,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	closeRabbitMQConnection(rabbitConn, logger)
	shutdownHTTPServer(srv, serverErrors, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
		return
	}
	if rabbitConn.IsClosed() {
		logger.Info("RabbitMQ connection already closed, skipping close.")
		return
	}
	logger.Info("Closing RabbitMQ connection...")
	if err := rabbitConn.Close(); err != nil {
		logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
	} else {
		logger.Info("RabbitMQ connection closed.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}
