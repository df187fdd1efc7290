package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chamnan-dev/slipguard/internal/fraud"
	"github.com/chamnan-dev/slipguard/internal/model"
	"github.com/chamnan-dev/slipguard/internal/ocr"
	"github.com/chamnan-dev/slipguard/internal/service"
)

// Config holds the pipeline's decision parameters.
type Config struct {
	// MaxAgeDays is the staleness cutoff for screenshot dates.
	MaxAgeDays int `validate:"gt=0"`
	// USDToKHRRate converts dollar amounts into the riel reference currency.
	USDToKHRRate decimal.Decimal
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MaxAgeDays:   fraud.DefaultMaxAgeDays,
		USDToKHRRate: DefaultUSDToKHRRate,
	}
}

// Pipeline is the verification decision engine. Given identical inputs it is
// deterministic: the only clock it consults is the explicit upload time, and
// its only collaborators are the injected extractor, storage, and audit sink.
type Pipeline struct {
	extractor Extractor
	matcher   NameMatcher
	storage   service.Storage
	audit     service.AuditSink
	logger    *slog.Logger
	cfg       Config
}

// New creates a verification pipeline, failing fast on invalid
// configuration. Storage and audit may be nil: persistence and audit are
// collaborators, not preconditions for deciding.
func New(extractor Extractor, matcher NameMatcher, storage service.Storage, audit service.AuditSink, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("name matcher is required")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if cfg.USDToKHRRate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("usd-to-khr rate must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		extractor: extractor,
		matcher:   matcher,
		storage:   storage,
		audit:     audit,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Verify runs text extraction on the image and then the staged decision
// process against the expected payment. The only hard errors are unreadable
// input; every extraction or check failure resolves to a terminal status
// with a reason.
func (p *Pipeline) Verify(ctx context.Context, image []byte, expected model.ExpectedPayment, vctx model.VerificationContext) (*model.VerificationResult, error) {
	record, err := p.extractor.Process(ctx, image, ocr.Hints{Bank: expected.Bank})
	if err != nil {
		return nil, err
	}
	return p.VerifyRecord(ctx, record, expected, vctx)
}

// VerifyRecord runs the staged decision process over an already-extracted
// record. Exposed so callers holding a fused record (re-verification, audit
// replay) can skip extraction.
func (p *Pipeline) VerifyRecord(ctx context.Context, record model.OcrRecord, expected model.ExpectedPayment, vctx model.VerificationContext) (*model.VerificationResult, error) {
	state := &verificationState{
		record:   record,
		expected: expected,
		vctx:     vctx,
		result: &model.VerificationResult{
			RecordID:      uuid.NewString(),
			InvoiceID:     vctx.InvoiceID,
			CustomerID:    vctx.CustomerID,
			TenantID:      vctx.TenantID,
			TransactionID: record.TransactionID,
			UploadedAt:    vctx.UploadedAt,
			CreatedAt:     vctx.UploadedAt,
			Confidence:    record.Confidence,
		},
	}

	var result *model.VerificationResult
	for stage := StageTypeCheck; result == nil; {
		next, terminal := p.transition(ctx, stage, state)
		p.logger.Debug("verification stage complete",
			"record_id", state.result.RecordID,
			"stage", stage.String(),
			"terminal", terminal != nil)
		stage = next
		result = terminal
	}

	if state.pendingFraud != nil {
		result.Fraud = p.buildAlert(ctx, state, *state.pendingFraud)
	}

	p.persist(ctx, result)

	p.logger.Info("verification complete",
		"record_id", result.RecordID,
		"invoice_id", result.InvoiceID,
		"status", result.Status,
		"label", result.PaymentLabel,
		"reason", result.RejectionReason,
		"fraud", result.Fraud != nil)

	return result, nil
}

// buildAlert assembles the fraud alert for a fraud-caused rejection, pulling
// the per-day sequence number from storage when available.
func (p *Pipeline) buildAlert(ctx context.Context, state *verificationState, validation model.DateValidation) *model.FraudAlert {
	sequence := 1
	if p.storage != nil {
		seq, err := p.storage.NextAlertSequence(ctx, state.vctx.UploadedAt)
		if err != nil {
			p.logger.Warn("alert sequence lookup failed, defaulting to 1", "error", err)
		} else {
			sequence = seq
		}
	}

	return fraud.NewAlert(fraud.AlertInput{
		FraudType:  validation.FraudType,
		Validation: validation,
		Record:     state.record,
		RecordID:   state.result.RecordID,
		InvoiceID:  state.vctx.InvoiceID,
		CustomerID: state.vctx.CustomerID,
		TenantID:   state.vctx.TenantID,
		UploadedAt: state.vctx.UploadedAt,
		CreatedAt:  state.vctx.UploadedAt,
		Sequence:   sequence,
	})
}

// persist stores the result and any alert. Persistence failure is logged,
// never surfaced: the verdict has already been decided and the caller gets
// it either way.
func (p *Pipeline) persist(ctx context.Context, result *model.VerificationResult) {
	if p.storage == nil {
		return
	}
	if err := p.storage.SaveVerificationResult(ctx, result); err != nil {
		p.logger.Error("failed to persist verification result", "record_id", result.RecordID, "error", err)
	}
	if result.Fraud != nil {
		if err := p.storage.SaveFraudAlert(ctx, result.Fraud); err != nil {
			p.logger.Error("failed to persist fraud alert", "alert_id", result.Fraud.AlertID, "error", err)
		}
	}
}

// appendAudit sends one audit record to the sink. Fire-and-forget: sink
// failures must never fail verification.
func (p *Pipeline) appendAudit(ctx context.Context, state *verificationState, step, detail string) {
	if p.audit == nil {
		return
	}
	entry := service.AuditEntry{
		At:       state.vctx.UploadedAt,
		TenantID: state.vctx.TenantID,
		RecordID: state.result.RecordID,
		Step:     step,
		Detail:   detail,
	}
	if err := p.audit.Append(ctx, entry); err != nil {
		p.logger.Warn("audit append failed", "record_id", entry.RecordID, "step", step, "error", err)
	}
}
