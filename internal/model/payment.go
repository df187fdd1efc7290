package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTolerancePercent is the allowed deviation between expected and
// extracted amounts when the caller does not configure one.
const DefaultTolerancePercent = 5.0

// AliasGroup maps a primary recipient name to its tenant-configured aliases.
type AliasGroup struct {
	Primary string   `json:"primary"`
	Aliases []string `json:"aliases"`
}

// ExpectedPayment is the caller-declared ground truth a screenshot is checked
// against. Any nil or empty field means "skip that check"; absence is a
// valid configuration, not an error.
type ExpectedPayment struct {
	Amount           *decimal.Decimal `json:"amount"`
	Currency         Currency         `json:"currency,omitempty"`
	Bank             string           `json:"bank,omitempty"`
	ToAccount        string           `json:"toAccount,omitempty"`
	RecipientNames   []string         `json:"recipientNames,omitempty"`
	AllowedAliases   []AliasGroup     `json:"allowedAliases,omitempty"`
	TolerancePercent float64          `json:"tolerancePercent,omitempty"`
}

// Tolerance returns the configured tolerance percent, falling back to the
// default when unset.
func (p ExpectedPayment) Tolerance() float64 {
	if p.TolerancePercent <= 0 {
		return DefaultTolerancePercent
	}
	return p.TolerancePercent
}

// VerificationContext carries the caller-supplied identifiers and the upload
// timestamp the pipeline uses instead of the wall clock.
type VerificationContext struct {
	UploadedAt time.Time `json:"uploadedAt"`
	InvoiceID  string    `json:"invoiceId,omitempty"`
	CustomerID string    `json:"customerId,omitempty"`
	TenantID   string    `json:"tenantId,omitempty"`
}
