// Package model defines the core domain models used throughout the application.
package model

import "github.com/shopspring/decimal"

// Confidence is the discrete classification attached to a fused OCR result.
// Only ConfidenceHigh unlocks the security-sensitive verification checks.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	// ConfidenceFailed marks a record where every adapter was stubbed out.
	// The pipeline treats it the same as a blurry image, never a hard error.
	ConfidenceFailed Confidence = "failed"
)

// Currency identifies the currency of an extracted or expected amount.
type Currency string

// Supported currencies.
const (
	CurrencyKHR Currency = "KHR"
	CurrencyUSD Currency = "USD"
)

// OcrRecord is the normalized output of text extraction for one image.
// JSON field names are the contract other components expect; do not rename.
type OcrRecord struct {
	// IsBankStatement and IsPaid are tri-state: nil means the engines could
	// not determine the flag.
	IsBankStatement *bool `json:"isBankStatement"`
	IsPaid          *bool `json:"isPaid"`

	// Amount is always a positive magnitude; the sign is stripped during
	// normalization.
	Amount   *decimal.Decimal `json:"amount"`
	Currency Currency         `json:"currency,omitempty"`

	TransactionID   string `json:"transactionId,omitempty"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
	FromAccount     string `json:"fromAccount,omitempty"`
	ToAccount       string `json:"toAccount,omitempty"`
	RecipientName   string `json:"recipientName,omitempty"`
	BankName        string `json:"bankName,omitempty"`

	// TransactionDateRaw is the free-text timestamp exactly as extracted.
	// Parsing and validity classification happen in the fraud package.
	TransactionDateRaw string `json:"transactionDateRaw,omitempty"`

	Confidence Confidence `json:"confidence"`

	// Engine names the adapter that supplied the primary structured fields.
	Engine string `json:"engine,omitempty"`

	// RawText is the concatenated engine output, kept for diagnostics only.
	RawText string `json:"rawText,omitempty"`

	// FallbackReason records why earlier, cheaper engines were rejected
	// before this record was produced.
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// NormalizeAmount strips the sign from an extracted amount. Engines sometimes
// report debits as negatives; the verification contract is a positive
// magnitude. Idempotent.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	return d.Abs()
}

// BoolPtr returns a pointer to b, for populating tri-state record flags.
func BoolPtr(b bool) *bool {
	return &b
}
