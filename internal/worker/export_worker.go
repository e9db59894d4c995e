package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/service/queue"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

type ExportRunner interface {
	Run(ctx context.Context, job *domain.ExportJob) (*domain.BatchResult, error)
}

// NewExportWorker renders scheduled exports and uploads them. Jobs whose
// selection or rendering can never succeed are dropped; transient failures
// are left on the queue for redelivery.
func NewExportWorker(
	q MessageQueue,
	queueURL string,
	exports ExportRunner,
	logger *logger.Logger,
	workerCount int,
	pollInterval time.Duration,
) *SQSWorker {
	handle := func(ctx context.Context, msg queue.Message) error {
		if msg.Type != queue.MessageTypeExport || msg.Export == nil {
			return discard(fmt.Errorf("unexpected message type %q on export queue", msg.Type))
		}

		job := msg.Export
		result, err := exports.Run(ctx, job)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrRenderFailed) {
				return discard(err)
			}
			return err
		}

		logger.Info("Export uploaded",
			zap.String("export_id", job.ID),
			zap.String("tenant_id", job.TenantID),
			zap.String("format", string(job.Format)),
			zap.Int("succeeded", result.SuccessCount),
			zap.Int("failed", result.FailedCount),
		)
		return nil
	}
	return newSQSWorker("export", q, queueURL, handle, logger, workerCount, pollInterval)
}
