package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/skip2/go-qrcode"

	"github.com/kingrain94/table-qr-api/internal/config"
	"github.com/kingrain94/table-qr-api/internal/qrtoken"
	"github.com/kingrain94/table-qr-api/internal/render"
	"github.com/kingrain94/table-qr-api/internal/repository/postgres"
	"github.com/kingrain94/table-qr-api/internal/service"
	"github.com/kingrain94/table-qr-api/internal/service/queue"
	"github.com/kingrain94/table-qr-api/internal/service/storage"
	"github.com/kingrain94/table-qr-api/internal/worker"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"), logger.WithLevel(os.Getenv("LOG_LEVEL")), logger.WithService("export-worker"))

	cfg, err := config.Load()
	if err != nil {
		appLogger.Fatal("Failed to load config", err)
	}

	dbConnections, err := config.NewDatabaseConnections()
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer dbConnections.Close()

	// Initialize SQS
	sqsConfig := config.DefaultSQSConfig()
	sqsClient, err := sqsConfig.GetClient(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to connect to SQS", err)
	}
	sqsService := queue.NewSQSService(sqsClient, sqsConfig)

	// Initialize S3
	s3Config := config.DefaultS3Config()
	s3Client, err := s3Config.GetClient(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to connect to S3", err)
	}

	codec, err := qrtoken.NewCodec(cfg.QR.SecretKey)
	if err != nil {
		appLogger.Fatal("Failed to initialize token codec", err)
	}

	tables := postgres.NewPostgresRepository(dbConnections).Table()
	pipeline := render.NewPipeline(render.Options{
		PreviewSize:  cfg.QR.PreviewSize,
		DownloadSize: cfg.QR.DownloadSize,
		Level:        qrcode.Medium,
	})

	// Exports sign the current version only; nothing is revoked here
	accessService := service.NewTableAccessService(tables, codec, service.TableAccessConfig{
		BaseURL:     cfg.QR.BaseURL,
		MaxTokenAge: cfg.QR.MaxTokenAge,
	}, appLogger)
	batchCoordinator := service.NewBatchCoordinator(accessService, pipeline, tables, service.BatchConfig{
		Concurrency: cfg.Batch.Concurrency,
		ItemTimeout: cfg.Batch.ItemTimeout,
	}, appLogger)

	exportService := service.NewExportService(sqsService, storage.NewS3Store(s3Client, s3Config), batchCoordinator, s3Config.PresignTTL)

	workerConfig := config.DefaultWorkerConfig()
	exportWorker := worker.NewExportWorker(
		sqsService,
		sqsService.ExportQueueURL(),
		exportService,
		appLogger,
		workerConfig.Count,
		workerConfig.PollInterval,
	)

	// Start the worker
	exportWorker.Start()
	appLogger.Info("Export worker started")

	// Wait for interrupt signal to gracefully shutdown the worker
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Stop the worker
	appLogger.Info("Shutting down worker...")
	exportWorker.Stop()
	appLogger.Info("Worker stopped")
	appLogger.Sync()
}
