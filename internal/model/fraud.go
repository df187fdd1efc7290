package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FraudType classifies the fraud-relevant cause behind a rejection.
type FraudType string

// Fraud types.
const (
	FraudMissingDate          FraudType = "MISSING_DATE"
	FraudInvalidDate          FraudType = "INVALID_DATE"
	FraudFutureDate           FraudType = "FUTURE_DATE"
	FraudOldScreenshot        FraudType = "OLD_SCREENSHOT"
	FraudDuplicateTransaction FraudType = "DUPLICATE_TRANSACTION"
	FraudWrongRecipient       FraudType = "WRONG_RECIPIENT"
)

// Severity grades a fraud alert for the review queue.
type Severity string

// Severity levels.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// oldScreenshotHighAgeDays is the age past which a stale screenshot is graded
// HIGH instead of MEDIUM.
const oldScreenshotHighAgeDays = 30

// SeverityForFraud returns the fixed severity grading for a fraud type.
// ageDays only matters for OLD_SCREENSHOT.
func SeverityForFraud(fraudType FraudType, ageDays int) Severity {
	switch fraudType {
	case FraudDuplicateTransaction:
		return SeverityCritical
	case FraudFutureDate:
		return SeverityHigh
	case FraudOldScreenshot:
		if ageDays > oldScreenshotHighAgeDays {
			return SeverityHigh
		}
		return SeverityMedium
	case FraudInvalidDate:
		return SeverityMedium
	case FraudWrongRecipient:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ReviewStatus is the lifecycle state of an alert in the review queue. The
// lifecycle is owned by the external audit collaborator; the core only ever
// creates alerts in ReviewPending.
type ReviewStatus string

// Review statuses.
const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewConfirmed ReviewStatus = "CONFIRMED"
	ReviewDismissed ReviewStatus = "DISMISSED"
)

// FraudAlert is the durable record created when a rejection stems from a
// fraud-relevant cause. Created once per failed attempt, never mutated by the
// core.
type FraudAlert struct {
	CreatedAt       time.Time        `json:"createdAt"`
	TransactionDate *time.Time       `json:"transactionDate,omitempty"`
	UploadedAt      time.Time        `json:"uploadedAt"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	AlertID         string           `json:"alertId"`
	RecordID        string           `json:"recordId,omitempty"`
	InvoiceID       string           `json:"invoiceId,omitempty"`
	CustomerID      string           `json:"customerId,omitempty"`
	TenantID        string           `json:"tenantId,omitempty"`
	TransactionID   string           `json:"transactionId,omitempty"`
	RawDateText     string           `json:"rawDateText,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	FraudType       FraudType        `json:"fraudType"`
	Severity        Severity         `json:"severity"`
	ReviewStatus    ReviewStatus     `json:"reviewStatus"`
	AgeDays         int              `json:"ageDays"`
}
