package domain

import "time"

type ScanOutcome string

const (
	ScanAccepted ScanOutcome = "ACCEPTED"
	ScanRejected ScanOutcome = "REJECTED"
)

// ScanEvent is an analytics record of one ValidateScan call. Reason is internal
// only (bad_signature, stale_version, expired, inactive, not_found, store_error)
// and must never be echoed to the scanning client.
type ScanEvent struct {
	ID           string      `json:"id"`
	TenantID     string      `json:"tenant_id,omitempty"`
	TableID      string      `json:"table_id,omitempty"`
	TokenVersion int64       `json:"token_version,omitempty"`
	Outcome      ScanOutcome `json:"outcome"`
	Reason       string      `json:"reason,omitempty"`
	ClientID     string      `json:"client_id,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}
