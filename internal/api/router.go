package api

import (
	"log/slog"
	"net/http"
	"time"

	"loanshop/internal/api/handler"
	mw "loanshop/internal/api/middleware"
	"loanshop/internal/config"
	"loanshop/internal/domain/customer"
	"loanshop/internal/domain/loan"
	"loanshop/internal/domain/report"
	"loanshop/internal/importer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Customers customer.CustomerService
	Loans     loan.LoanService
	Reports   report.ReportService
	Imports   *importer.Pipeline
}

func SetupRouter(svcs Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCustomerRoutes(router, cfg, svcs.Customers, logger)
	setupLoanRoutes(router, cfg, svcs.Loans, logger)
	setupReportRoutes(router, cfg, svcs.Reports, logger)
	setupImportRoutes(router, cfg, svcs.Imports, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(*cfg, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, svc customer.CustomerService, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)

	router.Route("/customers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Get("/export", h.ExportCustomers)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Put("/", h.UpdateCustomer)
			r.Delete("/", h.DeleteCustomer)
		})
	})
}

func setupLoanRoutes(router *chi.Mux, cfg *config.Config, svc loan.LoanService, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateLoan)
		r.Get("/", h.ListLoans)
		r.Get("/export", h.ExportLoans)
		r.Post("/bulk/status", h.BulkSetStatus)
		r.Post("/bulk/delete", h.BulkDelete)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.Put("/", h.UpdateLoan)
			r.Delete("/", h.DeleteLoan)
			r.Put("/status", h.SetStatus)
			r.Put("/payamount", h.SetPayAmount)
		})
	})
}

func setupReportRoutes(router *chi.Mux, cfg *config.Config, svc report.ReportService, logger *slog.Logger) {
	h := handler.NewReportHandler(svc, cfg.Report, logger)

	router.Route("/reports", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", h.ListReports)
		r.Get("/history", h.History)
		r.Get("/totals", h.GrandTotals)
		r.Route("/{year}/{month}", func(r chi.Router) {
			r.Get("/", h.GetMonth)
			r.Get("/detail", h.MonthDetail)
			r.Get("/export", h.ExportMonth)
			r.Post("/refresh", h.RefreshMonth)
		})
	})
}

func setupImportRoutes(router *chi.Mux, cfg *config.Config, pipeline *importer.Pipeline, logger *slog.Logger) {
	h := handler.NewImportHandler(pipeline, logger)

	router.Route("/imports", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/customers", h.ImportCustomers)
		r.Post("/loans", h.ImportLoans)
	})
}
