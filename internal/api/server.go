package api

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kingrain94/table-qr-api/internal/middleware"
	"github.com/kingrain94/table-qr-api/internal/service"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

const maxRequestBodySize = 1 << 20 // 1MB

type Server struct {
	qr         *QRHandler
	scan       *ScanHandler
	export     *ExportHandler
	health     *HealthHandler
	auth       *middleware.AuthMiddleware
	rateLimit  *middleware.RateLimitMiddleware
	validation *middleware.ValidationMiddleware
}

type Services struct {
	Access   *service.TableAccessService
	Batch    *service.BatchCoordinator
	Exports  *service.ExportService
	Renderer service.Renderer
	DB       Pinger
}

func NewServer(
	services Services,
	auth *middleware.AuthMiddleware,
	rateLimit *middleware.RateLimitMiddleware,
	validation *middleware.ValidationMiddleware,
) *Server {
	s := &Server{
		qr:         NewQRHandler(services.Access, services.Renderer, services.Batch),
		scan:       NewScanHandler(services.Access),
		health:     NewHealthHandler(services.DB),
		auth:       auth,
		rateLimit:  rateLimit,
		validation: validation,
	}
	if services.Exports != nil {
		s.export = NewExportHandler(services.Exports)
	}
	return s
}

func (s *Server) SetupRoutes(api *gin.RouterGroup) {
	// Admission control runs before authentication and any business logic
	api.Use(s.rateLimit.Admit())

	api.Use(s.validation.ValidateRequestSize(maxRequestBodySize))
	api.Use(s.validation.ValidateContentType("application/json"))

	{
		api.GET("/scan/:token", s.scan.ValidateScan)

		tables := api.Group("/tables", s.auth.JWTAuth())
		{
			tables.POST("/:id/qr", s.qr.GenerateCode)
			tables.GET("/:id/qr", s.qr.GetCurrentCode)
			tables.GET("/:id/qr/download", s.qr.DownloadCode)
			tables.POST("/qr/regenerate", s.auth.RequireRole("admin"), s.qr.BulkRegenerate)
			tables.POST("/qr/download", s.qr.BatchDownload)
		}

		if s.export != nil {
			exports := api.Group("/qr/exports", s.auth.JWTAuth())
			{
				exports.POST("", s.export.CreateExport)
				exports.GET("/:id", s.export.GetExport)
			}
		}
	}
}

type RouterOptions struct {
	AllowedOrigins []string
	TrustedProxies []string
	Metrics        middleware.HTTPMetrics
	MetricsHandler http.Handler
	Logger         *logger.Logger
}

// NewRouter builds the engine. /health and /metrics sit outside /api/v1 so
// health checks and scrapes are never throttled. Forwarding headers are honoured only
// from TrustedProxies; with none, the client is the connection peer.
func NewRouter(server *Server, opts RouterOptions) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger, opts.Metrics))
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/health", server.health.Health)
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	server.SetupRoutes(router.Group("/api/v1"))
	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader}
	cfg.ExposeHeaders = []string{
		"Content-Disposition",
		"Retry-After",
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
		"X-Batch-Succeeded",
		"X-Batch-Failed",
		"X-Batch-Failed-IDs",
		middleware.RequestIDHeader,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
