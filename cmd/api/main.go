package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/skip2/go-qrcode"

	"github.com/kingrain94/table-qr-api/internal/api"
	"github.com/kingrain94/table-qr-api/internal/config"
	"github.com/kingrain94/table-qr-api/internal/metrics"
	"github.com/kingrain94/table-qr-api/internal/middleware"
	"github.com/kingrain94/table-qr-api/internal/qrtoken"
	"github.com/kingrain94/table-qr-api/internal/ratelimit"
	"github.com/kingrain94/table-qr-api/internal/render"
	"github.com/kingrain94/table-qr-api/internal/repository/postgres"
	"github.com/kingrain94/table-qr-api/internal/service"
	"github.com/kingrain94/table-qr-api/internal/service/queue"
	"github.com/kingrain94/table-qr-api/internal/service/storage"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

// @title           Table QR API
// @version         1.0
// @description     Signed table QR codes, scan validation, and batch downloads.

// @host      localhost:10000
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"), logger.WithLevel(os.Getenv("LOG_LEVEL")), logger.WithService("api"))

	cfg, err := config.Load()
	if err != nil {
		appLogger.Fatal("Failed to load config", err)
	}
	for _, warning := range cfg.Warnings() {
		appLogger.Warn(warning)
	}

	dbConnections, err := config.NewDatabaseConnections()
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer dbConnections.Close()

	if os.Getenv("DB_AUTO_MIGRATE") == "true" {
		if err := postgres.AutoMigrate(dbConnections.Writer); err != nil {
			appLogger.Fatal("Failed to migrate database", err)
		}
	}
	appLogger.Info("Database connections established - writer and reader connected")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	appMetrics := metrics.NewMetrics()

	admitter, err := newAdmitter(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize rate limiter", err)
	}

	// Initialize SQS
	sqsConfig := config.DefaultSQSConfig()
	sqsClient, err := sqsConfig.GetClient(ctx)
	if err != nil {
		appLogger.Fatal("Failed to connect to SQS", err)
	}
	sqsService := queue.NewSQSService(sqsClient, sqsConfig)

	// Initialize S3
	s3Config := config.DefaultS3Config()
	s3Client, err := s3Config.GetClient(ctx)
	if err != nil {
		appLogger.Fatal("Failed to connect to S3", err)
	}
	exportStore := storage.NewS3Store(s3Client, s3Config)

	codec, err := qrtoken.NewCodec(cfg.QR.SecretKey)
	if err != nil {
		appLogger.Fatal("Failed to initialize token codec", err)
	}

	tables := postgres.NewPostgresRepository(dbConnections).Table()
	pipeline := render.NewPipeline(render.Options{
		PreviewSize:  cfg.QR.PreviewSize,
		DownloadSize: cfg.QR.DownloadSize,
		Level:        qrcode.Medium,
		Observer:     appMetrics,
	})

	// Initialize services
	scanPublisher := service.NewScanEventPublisher(sqsService, appLogger)
	accessService := service.NewTableAccessService(tables, codec, service.TableAccessConfig{
		BaseURL:     cfg.QR.BaseURL,
		MaxTokenAge: cfg.QR.MaxTokenAge,
	}, appLogger)
	accessService.SetScanRecorder(scanPublisher)
	accessService.SetMetrics(appMetrics)

	batchCoordinator := service.NewBatchCoordinator(accessService, pipeline, tables, service.BatchConfig{
		Concurrency: cfg.Batch.Concurrency,
		ItemTimeout: cfg.Batch.ItemTimeout,
	}, appLogger)
	batchCoordinator.SetMetrics(appMetrics)

	exportService := service.NewExportService(sqsService, exportStore, batchCoordinator, s3Config.PresignTTL)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecretKey)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(admitter, appLogger)
	rateLimitMiddleware.SetMetrics(appMetrics)
	validationMiddleware := middleware.NewValidationMiddleware(appLogger)

	sqlDB, err := dbConnections.Writer.DB()
	if err != nil {
		appLogger.Fatal("Failed to access database handle", err)
	}

	// Initialize server
	server := api.NewServer(
		api.Services{
			Access:   accessService,
			Batch:    batchCoordinator,
			Exports:  exportService,
			Renderer: pipeline,
			DB:       sqlDB,
		},
		authMiddleware,
		rateLimitMiddleware,
		validationMiddleware,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := api.NewRouter(server, api.RouterOptions{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies: cfg.RateLimit.TrustedProxies,
		Metrics:        appMetrics,
		MetricsHandler: appMetrics.Handler(),
		Logger:         appLogger,
	})
	if err != nil {
		appLogger.Fatal("Failed to build router", err)
	}

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", err)
		}
	}()
	appLogger.Infof("Server listening on :%d", cfg.ServerPort)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	// Shutdown the HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	stop()
	scanPublisher.Wait()

	appLogger.Info("Server exiting")
	appLogger.Sync()
}

// newAdmitter picks the rate limit backend. The memory limiter is swept in
// the background until ctx is canceled.
func newAdmitter(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (ratelimit.Admitter, error) {
	if cfg.RateLimit.Backend == config.RateLimitBackendRedis {
		redisClient, err := config.DefaultRedisConfig().GetClient(ctx)
		if err != nil {
			return nil, err
		}
		appLogger.Info("Rate limiting backed by Redis")
		return ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window), nil
	}

	limiter := ratelimit.NewLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	go limiter.Run(ctx, cfg.RateLimit.SweepInterval)
	appLogger.Info("Rate limiting backed by process memory")
	return limiter, nil
}
