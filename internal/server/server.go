// Package server exposes the invoicing API over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicegen/internal/auth"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	"github.com/smallbiznis/invoicegen/internal/config"
	dashboarddomain "github.com/smallbiznis/invoicegen/internal/dashboard/domain"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/observability/logger"
	"github.com/smallbiznis/invoicegen/internal/observability/metrics"
	"github.com/smallbiznis/invoicegen/internal/observability/tracing"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	readHeaderTimeout = 10 * time.Second
	healthTimeout     = 2 * time.Second
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
	}),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Cfg          config.Config
	Log          *zap.Logger
	DB           *gorm.DB `optional:"true"`
	Engine       *gin.Engine
	Auth         *auth.Middleware
	InvoiceSvc   invoicedomain.Service
	ClientSvc    clientdomain.Service
	SettingsSvc  settingsdomain.Service
	DashboardSvc dashboarddomain.Service `optional:"true"`
}

type Server struct {
	cfg          config.Config
	log          *zap.Logger
	db           *gorm.DB
	engine       *gin.Engine
	auth         *auth.Middleware
	invoiceSvc   invoicedomain.Service
	clientSvc    clientdomain.Service
	settingsSvc  settingsdomain.Service
	dashboardSvc dashboarddomain.Service
	paymentLimit *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:          p.Cfg,
		log:          p.Log.Named("server"),
		db:           p.DB,
		engine:       p.Engine,
		auth:         p.Auth,
		invoiceSvc:   p.InvoiceSvc,
		clientSvc:    p.ClientSvc,
		settingsSvc:  p.SettingsSvc,
		dashboardSvc: p.DashboardSvc,
		paymentLimit: newRateLimiter(p.Cfg.PaymentRateLimit, p.Cfg.PaymentRateWindow),
	}
}

// EngineParams carries the optional HTTP metrics instruments.
type EngineParams struct {
	fx.In

	Cfg         config.Config
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

// NewEngine builds the gin engine with request logging, tracing and
// metrics middleware installed.
func NewEngine(p EngineParams) *gin.Engine {
	if p.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths:  []string{"/healthz", "/metrics"},
		LogHeaders: !p.Cfg.IsProduction(),
	}))
	r.Use(tracing.GinMiddleware())
	r.Use(metrics.GinMiddleware(p.HTTPMetrics))
	return r
}

// Handler returns the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	r := s.engine
	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", s.auth.Required())

	clients := api.Group("/clients")
	clients.POST("", s.CreateClient)
	clients.GET("", s.ListClients)
	clients.GET("/:id", s.GetClient)
	clients.PATCH("/:id", s.UpdateClient)
	clients.DELETE("/:id", s.DeleteClient)

	settings := api.Group("/settings")
	settings.GET("/currency", s.GetCurrencySettings)
	settings.PUT("/currency", s.UpdateCurrencySettings)
	settings.GET("/business", s.GetBusinessProfile)
	settings.PUT("/business", s.UpdateBusinessProfile)
	settings.GET("/bank-account", s.GetBankAccount)
	settings.PUT("/bank-account", s.UpdateBankAccount)

	invoices := api.Group("/invoices")
	invoices.POST("", s.CreateInvoice)
	invoices.GET("", s.ListInvoices)
	invoices.GET("/export.xlsx", s.ExportInvoices)
	invoices.GET("/:id", s.GetInvoice)
	invoices.PATCH("/:id", s.UpdateInvoice)
	invoices.DELETE("/:id", s.DeleteInvoice)
	invoices.POST("/:id/send", s.SendInvoice)
	invoices.GET("/:id/preview", s.PreviewInvoice)
	invoices.GET("/:id/document", s.RenderInvoice)
	invoices.GET("/:id/totals", s.InvoiceTotals)
	invoices.POST("/:id/payments", s.PaymentRateLimit(), s.RecordPayment)
	invoices.GET("/:id/payments", s.ListPayments)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/summary", s.DashboardSummary)
	dashboard.GET("/collections", s.DashboardCollections)
}

// Health reports whether the database answers.
func (s *Server) Health(c *gin.Context) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP serves the engine for the lifetime of the fx app.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
