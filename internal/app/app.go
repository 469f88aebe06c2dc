// Package app wires configuration, storage and services into the processes
// started from cmd/.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"invoicepro/internal/config"
	"invoicepro/internal/core/clock"
	"invoicepro/internal/domain/auth"
	"invoicepro/internal/domain/catalogs/client"
	"invoicepro/internal/domain/catalogs/product"
	"invoicepro/internal/domain/documents/invoice"
	"invoicepro/internal/domain/documents/payment"
	"invoicepro/internal/domain/documents/quotation"
	"invoicepro/internal/domain/reports"
	"invoicepro/internal/infrastructure/cache"
	v1 "invoicepro/internal/infrastructure/http/v1"
	"invoicepro/internal/infrastructure/http/v1/dto"
	"invoicepro/internal/infrastructure/http/v1/handlers"
	"invoicepro/internal/infrastructure/http/v1/middleware"
	"invoicepro/internal/infrastructure/numerator"
	"invoicepro/internal/infrastructure/storage/postgres"
	"invoicepro/internal/infrastructure/storage/postgres/catalog_repo"
	"invoicepro/internal/infrastructure/storage/postgres/document_repo"
	"invoicepro/internal/infrastructure/storage/postgres/report_repo"
	"invoicepro/pkg/logger"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Pool        *postgres.Pool
	TxManager   *postgres.TxManager
	Redis       *redis.Client
	Audit       *postgres.AuditRecorder
	Idempotency *postgres.IdempotencyStore
	JWT         *auth.JWTService

	Clients    *client.Service
	Products   *product.Service
	Quotations *quotation.Service
	Invoices   *invoice.Service
	Payments   *payment.Service
	Reports    *reports.Service
}

// New connects to Postgres (and Redis when REDIS_ADDR is set) and builds
// the services.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool
	a.TxManager = postgres.NewTxManager(pool)

	var dashboardCache reports.Cache = reports.NopCache{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		dashboardCache = cache.NewDashboardCache(rdb)
	} else {
		log.Info("REDIS_ADDR not set, dashboard cache disabled")
	}

	a.Audit, err = postgres.NewAuditRecorder(a.TxManager, cfg.AuditCompress)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Idempotency = postgres.NewIdempotencyStore(a.TxManager, cfg.IdempotencyTTL)
	a.JWT = auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))

	termsPolicy, err := cfg.TermsPolicy()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("payment terms: %w", err)
	}

	clk := clock.System{}
	gen := numerator.New(a.TxManager)
	invoiceRepo := document_repo.NewInvoiceRepo(a.TxManager)

	a.Clients = client.NewService(catalog_repo.NewClientRepo(a.TxManager))
	a.Products = product.NewService(catalog_repo.NewProductRepo(a.TxManager))
	a.Invoices = invoice.NewService(invoiceRepo, gen, a.TxManager, clk, a.Audit, invoice.WithTerms(termsPolicy))
	a.Quotations = quotation.NewService(quotation.Deps{
		Repo:      document_repo.NewQuotationRepo(a.TxManager),
		Invoices:  a.Invoices,
		Terms:     termsPolicy,
		Numerator: gen,
		TxManager: a.TxManager,
		Clock:     clk,
		Audit:     a.Audit,
	})
	a.Payments = payment.NewService(document_repo.NewPaymentRepo(a.TxManager), invoiceRepo, a.TxManager, clk, a.Audit)
	a.Reports = reports.NewService(report_repo.NewReportRepo(a.TxManager), dashboardCache, cfg.DashboardCacheTTL, clk)

	a.Quotations.Hooks().OnAnyChange(reports.InvalidateHook[*quotation.Quotation](a.Reports))
	a.Invoices.Hooks().OnAnyChange(reports.InvalidateHook[*invoice.Invoice](a.Reports))
	a.Payments.Hooks().OnAnyChange(reports.InvalidateHook[*payment.Payment](a.Reports))

	return a, nil
}

// Router builds the HTTP handler.
func (a *App) Router() (*gin.Engine, error) {
	if err := dto.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	checks := map[string]handlers.Check{
		"database": a.Pool.Ping,
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}

	return v1.NewRouter(v1.RouterConfig{
		Logger:       a.Log,
		JWTValidator: a.JWT,
		Services: v1.Services{
			Quotations: a.Quotations,
			Invoices:   a.Invoices,
			Payments:   a.Payments,
			Clients:    a.Clients,
			Products:   a.Products,
			Dashboard:  a.Reports,
			History:    a.Audit,
		},
		Idempotency:  a.Idempotency,
		HealthChecks: checks,
		Secure: middleware.SecureConfig{
			AllowedHosts: a.Config.AllowedHosts,
			SSLRedirect:  a.Config.SSLRedirect,
			Development:  !a.Config.IsProduction(),
		},
		RequestTimeout: a.Config.RequestTimeout,
		Development:    a.Config.AppEnv == "development",
		Tracing:        a.Config.OTLPEndpoint != "",
	}), nil
}

// Sweeper builds the scheduled-transition runner.
func (a *App) Sweeper() *Sweeper {
	return NewSweeper(a.Invoices, a.Quotations, a.Idempotency, a.Log).
		WithPoolStats(func(ctx context.Context) { postgres.LogPoolStats(ctx, a.Pool.Pool) })
}

// Close releases connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warnw("close redis", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}
