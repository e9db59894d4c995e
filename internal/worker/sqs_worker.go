package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingrain94/table-qr-api/internal/service/queue"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

//go:generate mockery --name MessageQueue --output ../mocks
type MessageQueue interface {
	ReceiveMessages(ctx context.Context, queueURL string, maxMessages int32, waitTimeSeconds int32) ([]queue.ReceivedMessage, error)
	DeleteMessage(ctx context.Context, queueURL string, receiptHandle *string) error
}

// handleFunc processes one message. Returning nil or a discard error removes
// the message from the queue; any other error leaves it for redelivery.
type handleFunc func(ctx context.Context, msg queue.Message) error

// discardError marks a message that can never succeed.
type discardError struct {
	err error
}

func (e *discardError) Error() string { return e.err.Error() }
func (e *discardError) Unwrap() error { return e.err }

func discard(err error) error {
	return &discardError{err: err}
}

type SQSWorker struct {
	name         string
	queue        MessageQueue
	queueURL     string
	handle       handleFunc
	logger       *logger.Logger
	workerCount  int
	pollInterval time.Duration
	maxMessages  int32
	waitTime     int32
	shutdownChan chan struct{}
	waitGroup    sync.WaitGroup
}

func newSQSWorker(name string, q MessageQueue, queueURL string, handle handleFunc, logger *logger.Logger, workerCount int, pollInterval time.Duration) *SQSWorker {
	if workerCount < 1 {
		workerCount = 1
	}
	return &SQSWorker{
		name:         name,
		queue:        q,
		queueURL:     queueURL,
		handle:       handle,
		logger:       logger.With(zap.String("worker", name)),
		workerCount:  workerCount,
		pollInterval: pollInterval,
		maxMessages:  10, // Process up to 10 messages at a time
		waitTime:     20, // Long polling: wait up to 20 seconds for messages
		shutdownChan: make(chan struct{}),
	}
}

func (w *SQSWorker) Start() {
	w.logger.Info("Starting workers", zap.Int("count", w.workerCount))

	// Start multiple worker goroutines
	for i := 0; i < w.workerCount; i++ {
		w.waitGroup.Add(1)
		go w.runWorker(i)
	}
}

func (w *SQSWorker) Stop() {
	w.logger.Info("Stopping workers")
	close(w.shutdownChan)
	w.waitGroup.Wait()
	w.logger.Info("All workers stopped")
}

func (w *SQSWorker) runWorker(workerID int) {
	defer w.waitGroup.Done()

	w.logger.Info("Worker started", zap.Int("worker_id", workerID))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdownChan:
			w.logger.Info("Worker shutting down", zap.Int("worker_id", workerID))
			return
		case <-ticker.C:
			if err := w.processMessages(context.Background()); err != nil {
				w.logger.Error("Failed to process messages", err, zap.Int("worker_id", workerID))
			}
		}
	}
}

func (w *SQSWorker) processMessages(ctx context.Context) error {
	messages, err := w.queue.ReceiveMessages(ctx, w.queueURL, w.maxMessages, w.waitTime)
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range messages {
		if err := w.handle(ctx, msg.Message); err != nil {
			var d *discardError
			if !errors.As(err, &d) {
				w.logger.Error("Failed to process message, leaving it for redelivery", err)
				continue
			}
			w.logger.Warn("Discarding message", zap.Error(err))
		}

		if err := w.queue.DeleteMessage(ctx, w.queueURL, msg.ReceiptHandle); err != nil {
			w.logger.Error("Failed to delete message", err)
		}
	}

	return nil
}
