// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// ResultFilter defines filtering options for verification result queries.
type ResultFilter struct {
	Since    *time.Time
	Status   model.VerificationStatus
	TenantID string
	Limit    int
	Offset   int
}

// AlertFilter defines filtering options for fraud alert queries.
type AlertFilter struct {
	Since     *time.Time
	FraudType model.FraudType
	Severity  model.Severity
	TenantID  string
	Limit     int
	Offset    int
}

// Storage defines the contract for the persistence collaborator. The pipeline
// generates its own record ids and never reads results back; queries exist
// for the review tooling.
type Storage interface {
	// Verification results
	SaveVerificationResult(ctx context.Context, result *model.VerificationResult) error
	GetVerificationResult(ctx context.Context, recordID string) (*model.VerificationResult, error)
	ListVerificationResults(ctx context.Context, filter ResultFilter) ([]model.VerificationResult, error)

	// Fraud alerts
	SaveFraudAlert(ctx context.Context, alert *model.FraudAlert) error
	ListFraudAlerts(ctx context.Context, filter AlertFilter) ([]model.FraudAlert, error)
	// NextAlertSequence returns the next per-day sequence number used to
	// build human-readable alert ids.
	NextAlertSequence(ctx context.Context, day time.Time) (int, error)

	// CountVerifiedByTransactionID reports how many already-verified results
	// carry the given extracted transaction id, excluding the record being
	// verified. Used for duplicate-transaction detection.
	CountVerifiedByTransactionID(ctx context.Context, transactionID, excludeRecordID string) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// AuditEntry is one append-only record of a verification step, keyed by
// tenant and record.
type AuditEntry struct {
	At       time.Time
	TenantID string
	RecordID string
	Step     string
	Detail   string
}

// AuditSink receives audit entries from the verification flow. Appends are
// fire-and-forget: failures are logged by the caller and must never fail
// verification.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
