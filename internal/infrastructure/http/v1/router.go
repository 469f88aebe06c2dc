// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"invoicepro/internal/core/clock"
	"invoicepro/internal/domain/audit"
	"invoicepro/internal/infrastructure/http/v1/handlers"
	"invoicepro/internal/infrastructure/http/v1/middleware"
	"invoicepro/pkg/logger"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Quotations handlers.QuotationService
	Invoices   handlers.InvoiceService
	Payments   interface {
		handlers.PaymentService
		handlers.InvoicePayments
	}
	Clients interface {
		handlers.ClientService
		handlers.ClientChecker
	}
	Products  handlers.ProductService
	Dashboard handlers.DashboardService
	History   audit.Reader
}

const serviceName = "invoicepro"

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator
	Services     Services
	Clock        clock.Clock

	// Idempotency is applied to POST /payments when set.
	Idempotency middleware.IdempotencyStore

	HealthChecks   map[string]handlers.Check
	Secure         middleware.SecureConfig
	RequestTimeout time.Duration
	Development    bool

	// Tracing starts a server span per request.
	Tracing bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}

	router := gin.New()

	// Order matters: recovery outermost, errors rendered before logging.
	router.Use(middleware.Recovery())
	if cfg.Tracing {
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Secure(cfg.Secure))
	router.Use(middleware.ErrorHandler())
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	health := handlers.NewHealthHandler(cfg.HealthChecks)
	health.RegisterRoutes(router.Group("/health"))

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	registerRoutes(api, cfg)

	return router
}

func registerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	svc := cfg.Services
	base := handlers.NewBaseHandler()

	items := handlers.NewItemResolver(svc.Products)
	docs := handlers.NewDocumentSupport(svc.Clients, items, svc.History, cfg.Clock)

	handlers.NewQuotationHandler(base, svc.Quotations, docs).RegisterRoutes(rg.Group("/quotations"))
	handlers.NewInvoiceHandler(base, svc.Invoices, svc.Payments, docs).RegisterRoutes(rg.Group("/invoices"))

	var idempotent gin.HandlerFunc
	if cfg.Idempotency != nil {
		idempotent = middleware.Idempotency(cfg.Idempotency)
	}
	handlers.NewPaymentHandler(base, svc.Payments, docs).RegisterRoutes(rg.Group("/payments"), idempotent)

	handlers.NewCatalogHandler(base, svc.Clients, svc.Products).RegisterRoutes(rg)

	totals := handlers.NewTotalsHandler(base, items)
	rg.POST("/totals/preview", totals.Preview)

	reports := handlers.NewReportsHandler(base, svc.Dashboard)
	rg.GET("/dashboard", reports.Dashboard)
}
