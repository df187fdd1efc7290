package model

import "time"

// VerificationStatus is the terminal status of one verification attempt.
type VerificationStatus string

// Verification statuses.
const (
	StatusVerified VerificationStatus = "verified"
	StatusPending  VerificationStatus = "pending"
	StatusRejected VerificationStatus = "rejected"
)

// PaymentLabel is the merchant-facing label derived from the status.
type PaymentLabel string

// Payment labels.
const (
	LabelPaid    PaymentLabel = "PAID"
	LabelPending PaymentLabel = "PENDING"
	LabelUnpaid  PaymentLabel = "UNPAID"
)

// LabelForStatus maps a verification status to its payment label. The mapping
// is a strict function: verified→PAID, pending→PENDING, rejected→UNPAID.
func LabelForStatus(status VerificationStatus) PaymentLabel {
	switch status {
	case StatusVerified:
		return LabelPaid
	case StatusPending:
		return LabelPending
	default:
		return LabelUnpaid
	}
}

// RejectionReason explains a non-verified terminal status.
type RejectionReason string

// Rejection and pending reasons.
const (
	ReasonNotBankStatement    RejectionReason = "NOT_BANK_STATEMENT"
	ReasonBlurry              RejectionReason = "BLURRY"
	ReasonWrongRecipient      RejectionReason = "WRONG_RECIPIENT"
	ReasonAmountMismatch      RejectionReason = "AMOUNT_MISMATCH"
	ReasonRequiresGPTJudgment RejectionReason = "REQUIRES_GPT_JUDGMENT"
	ReasonMissingDate         RejectionReason = "MISSING_DATE"
	ReasonInvalidDate         RejectionReason = "INVALID_DATE"
	ReasonFutureDate          RejectionReason = "FUTURE_DATE"
	ReasonOldScreenshot       RejectionReason = "OLD_SCREENSHOT"
)

// FieldCheck records the outcome of one expected-vs-actual comparison.
type FieldCheck struct {
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Match    bool   `json:"match"`
	Skipped  bool   `json:"skipped"`
}

// DateValidation is the DateValidator's result, embedded in the validation
// report. AgeDays is negative for future-dated screenshots.
type DateValidation struct {
	ParsedDate *time.Time `json:"parsedDate,omitempty"`
	FraudType  FraudType  `json:"fraudType,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	AgeDays    int        `json:"ageDays"`
	IsValid    bool       `json:"isValid"`
	Skipped    bool       `json:"skipped"`
}

// ValidationReport collects every check the pipeline ran, whether or not it
// decided the outcome.
type ValidationReport struct {
	Amount         FieldCheck     `json:"amount"`
	Bank           FieldCheck     `json:"bank"`
	ToAccount      FieldCheck     `json:"toAccount"`
	RecipientNames FieldCheck     `json:"recipientNames"`
	DateValidation DateValidation `json:"dateValidation"`
}

// VerificationResult is the pipeline's output. Immutable once returned:
// exactly one of {rejected with reason, pending with reason, verified with no
// reason} holds.
type VerificationResult struct {
	CreatedAt       time.Time          `json:"createdAt"`
	UploadedAt      time.Time          `json:"uploadedAt"`
	RecordID        string             `json:"recordId"`
	InvoiceID       string             `json:"invoiceId,omitempty"`
	CustomerID      string             `json:"customerId,omitempty"`
	TenantID        string             `json:"tenantId,omitempty"`
	TransactionID   string             `json:"transactionId,omitempty"`
	Status          VerificationStatus `json:"status"`
	PaymentLabel    PaymentLabel       `json:"paymentLabel"`
	RejectionReason RejectionReason    `json:"rejectionReason,omitempty"`
	Confidence      Confidence         `json:"confidence"`
	Validation      ValidationReport   `json:"validation"`
	Fraud           *FraudAlert        `json:"fraud,omitempty"`
}
