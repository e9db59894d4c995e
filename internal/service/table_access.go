package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/qrtoken"
	"github.com/kingrain94/table-qr-api/internal/repository"
	"github.com/kingrain94/table-qr-api/internal/utils"
	"github.com/kingrain94/table-qr-api/pkg/logger"
)

// Internal scan rejection reasons. They are logged and recorded, never returned to the scanner.
const (
	ReasonBadSignature = "bad_signature"
	ReasonStaleVersion = "stale_version"
	ReasonExpired      = "expired"
	ReasonInactive     = "inactive"
	ReasonNotFound     = "not_found"
	ReasonStoreError   = "store_error"
)

//go:generate mockery --name TokenCodec --output ../mocks
type TokenCodec interface {
	Sign(p qrtoken.Payload) (string, error)
	Verify(token string) (qrtoken.Payload, error)
}

// ScanRecorder receives every scan outcome. Implementations must not block.
//
//go:generate mockery --name ScanRecorder --output ../mocks
type ScanRecorder interface {
	RecordScan(ctx context.Context, event domain.ScanEvent)
}

type AccessMetrics interface {
	RecordTokenIssued(kind string)
	RecordScan(outcome, reason string)
}

type TableAccessConfig struct {
	BaseURL     string
	MaxTokenAge time.Duration
}

type TableAccessService struct {
	tables   repository.TableRepository
	codec    TokenCodec
	baseURL  string
	maxAge   time.Duration
	now      func() time.Time
	logger   *logger.Logger
	recorder ScanRecorder
	metrics  AccessMetrics
}

func NewTableAccessService(tables repository.TableRepository, codec TokenCodec, cfg TableAccessConfig, logger *logger.Logger) *TableAccessService {
	return &TableAccessService{
		tables:  tables,
		codec:   codec,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		maxAge:  cfg.MaxTokenAge,
		now:     time.Now,
		logger:  logger,
	}
}

// SetScanRecorder sets the analytics sink for scan outcomes
func (s *TableAccessService) SetScanRecorder(recorder ScanRecorder) {
	s.recorder = recorder
}

func (s *TableAccessService) SetMetrics(metrics AccessMetrics) {
	s.metrics = metrics
}

// SetClock replaces time.Now, used by tests.
func (s *TableAccessService) SetClock(now func() time.Time) {
	s.now = now
}

// IssueNew bumps the table's token version, invalidating every earlier code, and signs the new version.
func (s *TableAccessService) IssueNew(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error) {
	if err := requireIDs(tenantID, tableID); err != nil {
		return nil, err
	}

	table, err := s.tables.IncrementTokenVersion(ctx, tenantID, tableID)
	if err != nil {
		return nil, issuanceError(err)
	}

	code, err := s.sign(table)
	if err != nil {
		return nil, err
	}
	s.recordIssued("new")
	return code, nil
}

// IssueCurrent signs the table's current version without revoking anything.
func (s *TableAccessService) IssueCurrent(ctx context.Context, tenantID, tableID string) (*domain.TableCode, error) {
	if err := requireIDs(tenantID, tableID); err != nil {
		return nil, err
	}

	table, err := s.tables.GetByID(ctx, tenantID, tableID)
	if err != nil {
		return nil, issuanceError(err)
	}

	code, err := s.sign(table)
	if err != nil {
		return nil, err
	}
	s.recordIssued("current")
	return code, nil
}

// Validate resolves a scanned token to its table. Rejections are either
// ErrInvalidToken or ErrTableNotFound; the precise reason only reaches logs.
func (s *TableAccessService) Validate(ctx context.Context, token string) (*domain.ScanTarget, error) {
	event := domain.ScanEvent{
		ID:        uuid.NewString(),
		ClientID:  utils.GetClientIDFromContext(ctx),
		Timestamp: s.now().UTC(),
	}

	target, reason, err := s.validate(ctx, token, &event)
	if err != nil {
		event.Outcome = domain.ScanRejected
		event.Reason = reason
		s.logger.Info("Scan rejected",
			zap.String("reason", reason),
			zap.String("tenant_id", event.TenantID),
			zap.String("table_id", event.TableID),
			zap.String("client_id", event.ClientID),
		)
	} else {
		event.Outcome = domain.ScanAccepted
	}

	if s.metrics != nil {
		s.metrics.RecordScan(string(event.Outcome), event.Reason)
	}
	if s.recorder != nil {
		s.recorder.RecordScan(ctx, event)
	}

	return target, err
}

func (s *TableAccessService) validate(ctx context.Context, token string, event *domain.ScanEvent) (*domain.ScanTarget, string, error) {
	payload, err := s.codec.Verify(token)
	if err != nil {
		return nil, ReasonBadSignature, domain.ErrInvalidToken
	}
	event.TenantID = payload.TenantID
	event.TableID = payload.TableID
	event.TokenVersion = payload.TokenVersion

	table, err := s.tables.GetByID(ctx, payload.TenantID, payload.TableID)
	if err != nil {
		if errors.Is(err, domain.ErrTableNotFound) {
			return nil, ReasonNotFound, domain.ErrTableNotFound
		}
		s.logger.Error("Failed to load table for scan", err, zap.String("table_id", payload.TableID))
		return nil, ReasonStoreError, domain.ErrTableNotFound
	}

	if table.TokenVersion != payload.TokenVersion {
		return nil, ReasonStaleVersion, domain.ErrInvalidToken
	}
	if !table.IsActive {
		return nil, ReasonInactive, domain.ErrTableNotFound
	}
	if s.now().Sub(payload.IssuedAtTime()) > s.maxAge {
		return nil, ReasonExpired, domain.ErrInvalidToken
	}

	return &domain.ScanTarget{
		TenantID:  table.TenantID,
		TableID:   table.ID,
		TableName: table.Name,
	}, "", nil
}

func (s *TableAccessService) sign(table *domain.Table) (*domain.TableCode, error) {
	token, err := s.codec.Sign(qrtoken.Payload{
		TableID:      table.ID,
		TenantID:     table.TenantID,
		TokenVersion: table.TokenVersion,
		IssuedAt:     s.now().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign table token: %w", err)
	}

	return &domain.TableCode{
		URL:          s.ScanURL(token),
		Token:        token,
		TableID:      table.ID,
		TableName:    table.Name,
		TokenVersion: table.TokenVersion,
	}, nil
}

// ScanURL is the public URL a code resolves to.
func (s *TableAccessService) ScanURL(token string) string {
	return s.baseURL + "/qr/" + token
}

func (s *TableAccessService) recordIssued(kind string) {
	if s.metrics != nil {
		s.metrics.RecordTokenIssued(kind)
	}
}

func requireIDs(tenantID, tableID string) error {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(tableID) == "" {
		return fmt.Errorf("%w: tenant and table id are required", domain.ErrInvalidInput)
	}
	return nil
}

func issuanceError(err error) error {
	if errors.Is(err, domain.ErrTableNotFound) || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
