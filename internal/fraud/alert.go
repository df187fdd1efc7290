package fraud

import (
	"fmt"
	"time"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// AlertID builds the human-readable alert identifier from the creation day
// and the per-day sequence number, e.g. FA-20260104-0003.
func AlertID(day time.Time, sequence int) string {
	return fmt.Sprintf("FA-%s-%04d", day.Format("20060102"), sequence)
}

// AlertInput carries everything needed to assemble a fraud alert for one
// failed verification attempt.
type AlertInput struct {
	UploadedAt time.Time
	CreatedAt  time.Time
	Record     model.OcrRecord
	Validation model.DateValidation
	FraudType  model.FraudType
	RecordID   string
	InvoiceID  string
	CustomerID string
	TenantID   string
	Reason     string
	Sequence   int
}

// NewAlert assembles a fraud alert with its severity grading and evidentiary
// fields. The alert is created in the PENDING review state; the review
// lifecycle belongs to the external audit collaborator.
func NewAlert(in AlertInput) *model.FraudAlert {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = in.UploadedAt
	}

	reason := in.Reason
	if reason == "" {
		reason = in.Validation.Reason
	}

	return &model.FraudAlert{
		AlertID:         AlertID(createdAt, in.Sequence),
		FraudType:       in.FraudType,
		Severity:        model.SeverityForFraud(in.FraudType, in.Validation.AgeDays),
		ReviewStatus:    model.ReviewPending,
		RecordID:        in.RecordID,
		InvoiceID:       in.InvoiceID,
		CustomerID:      in.CustomerID,
		TenantID:        in.TenantID,
		TransactionID:   in.Record.TransactionID,
		Amount:          in.Record.Amount,
		RawDateText:     in.Record.TransactionDateRaw,
		TransactionDate: in.Validation.ParsedDate,
		AgeDays:         in.Validation.AgeDays,
		UploadedAt:      in.UploadedAt,
		CreatedAt:       createdAt,
		Reason:          reason,
	}
}
