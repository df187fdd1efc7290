package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// UploadTime is the fixed upload instant used across tests so age and future
// checks are deterministic.
var UploadTime = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

// HighConfidenceRecord returns a fully populated extraction that passes every
// check against DefaultExpectation.
func HighConfidenceRecord() model.OcrRecord {
	amount := decimal.NewFromInt(50000)
	return model.OcrRecord{
		IsBankStatement:    model.BoolPtr(true),
		IsPaid:             model.BoolPtr(true),
		Amount:             &amount,
		Currency:           model.CurrencyKHR,
		TransactionID:      "TXN100200300",
		ReferenceNumber:    "REF-0042",
		ToAccount:          "000123456",
		RecipientName:      "SOK DARA",
		BankName:           "ABA Bank",
		TransactionDateRaw: UploadTime.Add(-2 * time.Hour).Format("2006-01-02 15:04:05"),
		Confidence:         model.ConfidenceHigh,
		Engine:             "bankocr",
	}
}

// DefaultExpectation returns the expected payment HighConfidenceRecord
// satisfies.
func DefaultExpectation() model.ExpectedPayment {
	amount := decimal.NewFromInt(50000)
	return model.ExpectedPayment{
		Amount:         &amount,
		Currency:       model.CurrencyKHR,
		ToAccount:      "000123456",
		RecipientNames: []string{"SOK DARA"},
		Bank:           "ABA",
	}
}

// Context returns a verification context anchored at UploadTime.
func Context() model.VerificationContext {
	return model.VerificationContext{
		UploadedAt: UploadTime,
		InvoiceID:  "INV-2025-0001",
		CustomerID: "CUST-77",
		TenantID:   "tenant-a",
	}
}
