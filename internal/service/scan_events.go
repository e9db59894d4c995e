package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

//go:generate mockery --name ScanEventSender --output ../mocks
type ScanEventSender interface {
	SendScanEvent(ctx context.Context, event domain.ScanEvent) error
}

// ScanEventPublisher ships scan events to the queue off the request path.
// Failures are logged and dropped.
type ScanEventPublisher struct {
	sender  ScanEventSender
	logger  *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewScanEventPublisher(sender ScanEventSender, logger *logger.Logger) *ScanEventPublisher {
	return &ScanEventPublisher{
		sender:  sender,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

func (p *ScanEventPublisher) RecordScan(ctx context.Context, event domain.ScanEvent) {
	ctx = context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		if err := p.sender.SendScanEvent(ctx, event); err != nil {
			p.logger.Warn("Failed to publish scan event",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until in-flight publishes finish.
func (p *ScanEventPublisher) Wait() {
	p.wg.Wait()
}
