package pipeline_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamnan-dev/slipguard/internal/match"
	"github.com/chamnan-dev/slipguard/internal/model"
	"github.com/chamnan-dev/slipguard/internal/ocr"
	"github.com/chamnan-dev/slipguard/internal/pipeline"
	"github.com/chamnan-dev/slipguard/internal/service"
	"github.com/chamnan-dev/slipguard/internal/storage"
	"github.com/chamnan-dev/slipguard/internal/testutil"
)

// stubExtractor returns a canned record regardless of the image.
type stubExtractor struct {
	record model.OcrRecord
	err    error
}

func (s *stubExtractor) Process(_ context.Context, _ []byte, _ ocr.Hints) (model.OcrRecord, error) {
	return s.record, s.err
}

func newTestPipeline(t *testing.T, record model.OcrRecord) (*pipeline.Pipeline, *storage.SQLiteStorage) {
	t.Helper()

	store := testutil.SetupTestDB(t)
	matcher, err := match.NewMatcher(match.DefaultConfig())
	require.NoError(t, err)

	p, err := pipeline.New(&stubExtractor{record: record}, matcher, store, store, pipeline.DefaultConfig(), nil)
	require.NoError(t, err)
	return p, store
}

func verify(t *testing.T, p *pipeline.Pipeline, record model.OcrRecord, expected model.ExpectedPayment) *model.VerificationResult {
	t.Helper()
	result, err := p.VerifyRecord(context.Background(), record, expected, testutil.Context())
	require.NoError(t, err)
	return result
}

func TestVerifyHappyPath(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	p, store := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusVerified, result.Status)
	assert.Equal(t, model.LabelPaid, result.PaymentLabel)
	assert.Empty(t, result.RejectionReason)
	assert.Nil(t, result.Fraud)

	assert.True(t, result.Validation.Amount.Match)
	assert.True(t, result.Validation.ToAccount.Match)
	assert.True(t, result.Validation.RecipientNames.Skipped, "name check is skipped once the account matches")
	assert.True(t, result.Validation.DateValidation.IsValid)

	// The verdict was persisted.
	stored, err := store.GetVerificationResult(context.Background(), result.RecordID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, stored.Status)
	assert.Equal(t, result.TransactionID, stored.TransactionID)
}

func TestVerifyNotBankStatement(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.IsBankStatement = model.BoolPtr(false)
	p, _ := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Equal(t, model.LabelUnpaid, result.PaymentLabel)
	assert.Equal(t, model.ReasonNotBankStatement, result.RejectionReason)
	assert.Nil(t, result.Fraud, "a non-statement is a silent reject, not fraud")
}

func TestVerifyLowConfidenceIsPending(t *testing.T) {
	for _, confidence := range []model.Confidence{model.ConfidenceMedium, model.ConfidenceLow, model.ConfidenceFailed} {
		record := testutil.HighConfidenceRecord()
		record.Confidence = confidence
		p, _ := newTestPipeline(t, record)

		result := verify(t, p, record, testutil.DefaultExpectation())

		assert.Equal(t, model.StatusPending, result.Status, "confidence %s", confidence)
		assert.Equal(t, model.LabelPending, result.PaymentLabel)
		assert.Equal(t, model.ReasonBlurry, result.RejectionReason)
	}
}

func TestVerifyWrongRecipient(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.ToAccount = "999999999"
	record.RecipientName = "SOMEONE ELSE"
	p, _ := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Equal(t, model.ReasonWrongRecipient, result.RejectionReason)
	assert.False(t, result.Validation.ToAccount.Match)
	assert.False(t, result.Validation.RecipientNames.Match)
}

func TestVerifyAccountMatchShortCircuitsName(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.RecipientName = "GARBLED TEXT"
	p, _ := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusVerified, result.Status)
	assert.True(t, result.Validation.ToAccount.Match)
	assert.True(t, result.Validation.RecipientNames.Skipped)
}

func TestVerifyBorderlineNameEscalates(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.ToAccount = ""
	record.RecipientName = "SOKDARA"

	expected := testutil.DefaultExpectation()
	expected.ToAccount = ""

	p, _ := newTestPipeline(t, record)
	result := verify(t, p, record, expected)

	assert.Equal(t, model.StatusPending, result.Status)
	assert.Equal(t, model.ReasonRequiresGPTJudgment, result.RejectionReason)

	// Escalation happens after the remaining checks, so their outcomes are
	// still recorded.
	assert.True(t, result.Validation.Amount.Match)
	assert.True(t, result.Validation.DateValidation.IsValid)
}

func TestVerifyOldScreenshotRaisesAlert(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.TransactionDateRaw = "2025-06-06 10:00:00" // nine days before upload
	p, store := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Equal(t, model.LabelUnpaid, result.PaymentLabel)
	assert.Equal(t, model.ReasonOldScreenshot, result.RejectionReason)

	require.NotNil(t, result.Fraud)
	assert.Equal(t, "FA-20250615-0001", result.Fraud.AlertID)
	assert.Equal(t, model.FraudOldScreenshot, result.Fraud.FraudType)
	assert.Equal(t, model.SeverityMedium, result.Fraud.Severity)
	assert.Equal(t, 9, result.Fraud.AgeDays)
	assert.Equal(t, model.ReviewPending, result.Fraud.ReviewStatus)
	assert.Equal(t, record.TransactionID, result.Fraud.TransactionID)

	// The alert was persisted alongside the result.
	alerts, err := store.ListFraudAlerts(context.Background(), service.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, result.Fraud.AlertID, alerts[0].AlertID)
}

func TestVerifyFutureDateRaisesHighSeverityAlert(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.TransactionDateRaw = "2025-06-18 10:30:00"
	p, _ := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Equal(t, model.ReasonFutureDate, result.RejectionReason)
	require.NotNil(t, result.Fraud)
	assert.Equal(t, model.SeverityHigh, result.Fraud.Severity)
	assert.Equal(t, -3, result.Fraud.AgeDays)
}

func TestVerifyMissingDateSkipsCheck(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.TransactionDateRaw = ""
	p, _ := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusVerified, result.Status)
	assert.True(t, result.Validation.DateValidation.Skipped)
}

func TestVerifyDuplicateTransactionID(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	p, _ := newTestPipeline(t, record)

	first := verify(t, p, record, testutil.DefaultExpectation())
	require.Equal(t, model.StatusVerified, first.Status)

	second := verify(t, p, record, testutil.DefaultExpectation())
	assert.Equal(t, model.StatusRejected, second.Status)
	assert.Equal(t, model.RejectionReason(model.FraudDuplicateTransaction), second.RejectionReason)
	require.NotNil(t, second.Fraud)
	assert.Equal(t, model.SeverityCritical, second.Fraud.Severity)
}

func TestVerifyAmountMismatchIsPending(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	wrong := decimal.NewFromInt(10000)
	record.Amount = &wrong
	p, _ := newTestPipeline(t, record)

	result := verify(t, p, record, testutil.DefaultExpectation())

	assert.Equal(t, model.StatusPending, result.Status)
	assert.Equal(t, model.ReasonAmountMismatch, result.RejectionReason)
	assert.False(t, result.Validation.Amount.Match)
}

func TestVerifyAmountToleranceAndCurrency(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		currency   model.Currency
		wantStatus model.VerificationStatus
	}{
		{name: "exact khr", amount: "50000", currency: model.CurrencyKHR, wantStatus: model.StatusVerified},
		{name: "within five percent", amount: "51000", currency: model.CurrencyKHR, wantStatus: model.StatusVerified},
		{name: "just outside tolerance", amount: "53000", currency: model.CurrencyKHR, wantStatus: model.StatusPending},
		{name: "usd converted at configured rate", amount: "12.20", currency: model.CurrencyUSD, wantStatus: model.StatusVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := testutil.HighConfidenceRecord()
			amount, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			record.Amount = &amount
			record.Currency = tt.currency

			p, _ := newTestPipeline(t, record)
			result := verify(t, p, record, testutil.DefaultExpectation())
			assert.Equal(t, tt.wantStatus, result.Status)
		})
	}
}

func TestVerifyWorksWithoutStorage(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.TransactionDateRaw = "2025-06-06 10:00:00"

	matcher, err := match.NewMatcher(match.DefaultConfig())
	require.NoError(t, err)
	p, err := pipeline.New(&stubExtractor{record: record}, matcher, nil, nil, pipeline.DefaultConfig(), nil)
	require.NoError(t, err)

	result, err := p.VerifyRecord(context.Background(), record, testutil.DefaultExpectation(), testutil.Context())
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, result.Status)
	require.NotNil(t, result.Fraud, "alerts are still assembled without storage")
	assert.Equal(t, "FA-20250615-0001", result.Fraud.AlertID)
}

func TestVerifyDeterministicForSameInput(t *testing.T) {
	record := testutil.HighConfidenceRecord()
	record.TransactionDateRaw = "2025-06-06 10:00:00"

	matcher, err := match.NewMatcher(match.DefaultConfig())
	require.NoError(t, err)
	p, err := pipeline.New(&stubExtractor{record: record}, matcher, nil, nil, pipeline.DefaultConfig(), nil)
	require.NoError(t, err)

	first, err := p.VerifyRecord(context.Background(), record, testutil.DefaultExpectation(), testutil.Context())
	require.NoError(t, err)
	second, err := p.VerifyRecord(context.Background(), record, testutil.DefaultExpectation(), testutil.Context())
	require.NoError(t, err)

	// Record ids are fresh per run; everything decided is identical.
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.PaymentLabel, second.PaymentLabel)
	assert.Equal(t, first.RejectionReason, second.RejectionReason)
	assert.Equal(t, first.Validation, second.Validation)
	require.NotNil(t, second.Fraud)
	assert.Equal(t, first.Fraud.AlertID, second.Fraud.AlertID)
	assert.Equal(t, first.Fraud.Severity, second.Fraud.Severity)
}

func TestNewPipelineValidation(t *testing.T) {
	matcher, err := match.NewMatcher(match.DefaultConfig())
	require.NoError(t, err)

	_, err = pipeline.New(nil, matcher, nil, nil, pipeline.DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = pipeline.New(&stubExtractor{}, nil, nil, nil, pipeline.DefaultConfig(), nil)
	assert.Error(t, err)

	bad := pipeline.DefaultConfig()
	bad.MaxAgeDays = 0
	_, err = pipeline.New(&stubExtractor{}, matcher, nil, nil, bad, nil)
	assert.Error(t, err)

	bad = pipeline.DefaultConfig()
	bad.USDToKHRRate = decimal.Zero
	_, err = pipeline.New(&stubExtractor{}, matcher, nil, nil, bad, nil)
	assert.Error(t, err)
}
