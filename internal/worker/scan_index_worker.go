package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/kingrain94/table-qr-api/internal/repository"
	"github.com/kingrain94/table-qr-api/internal/service/queue"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

// NewScanIndexWorker drains scan analytics events into the search index.
func NewScanIndexWorker(
	q MessageQueue,
	queueURL string,
	scanEvents repository.ScanEventRepository,
	logger *logger.Logger,
	workerCount int,
	pollInterval time.Duration,
) *SQSWorker {
	handle := func(ctx context.Context, msg queue.Message) error {
		if msg.Type != queue.MessageTypeScanEvent {
			return discard(fmt.Errorf("unexpected message type %q on scan queue", msg.Type))
		}
		if len(msg.ScanEvents) == 0 {
			return discard(fmt.Errorf("empty scan events for %s message", msg.Type))
		}
		return scanEvents.BulkIndex(ctx, msg.ScanEvents)
	}
	return newSQSWorker("scan index", q, queueURL, handle, logger, workerCount, pollInterval)
}
