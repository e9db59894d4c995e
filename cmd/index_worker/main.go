package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kingrain94/table-qr-api/internal/config"
	"github.com/kingrain94/table-qr-api/internal/repository/opensearch"
	"github.com/kingrain94/table-qr-api/internal/service/queue"
	"github.com/kingrain94/table-qr-api/internal/worker"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"), logger.WithLevel(os.Getenv("LOG_LEVEL")), logger.WithService("index-worker"))

	// Initialize OpenSearch
	osConfig := config.DefaultOpenSearchConfig()
	osClient, err := osConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to OpenSearch", err)
	}
	scanEvents := opensearch.NewScanEventRepository(osClient, osConfig)

	appLogger.Info("OpenSearch connection established for index worker")

	// Initialize SQS
	sqsConfig := config.DefaultSQSConfig()
	sqsClient, err := sqsConfig.GetClient(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to connect to SQS", err)
	}
	sqsService := queue.NewSQSService(sqsClient, sqsConfig)

	appLogger.Info("SQS connection established for index worker")

	workerConfig := config.DefaultWorkerConfig()
	indexWorker := worker.NewScanIndexWorker(
		sqsService,
		sqsService.ScanQueueURL(),
		scanEvents,
		appLogger,
		workerConfig.Count,
		workerConfig.PollInterval,
	)

	// Start the worker
	indexWorker.Start()
	appLogger.Info("Scan index worker started")

	// Wait for interrupt signal to gracefully shutdown the worker
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Stop the worker
	appLogger.Info("Shutting down worker...")
	indexWorker.Stop()
	appLogger.Info("Worker stopped")
	appLogger.Sync()
}
