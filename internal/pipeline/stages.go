package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/chamnan-dev/slipguard/internal/fraud"
	"github.com/chamnan-dev/slipguard/internal/match"
	"github.com/chamnan-dev/slipguard/internal/model"
)

// Stage identifies one step of the verification state machine.
type Stage int

// Stages, in execution order.
const (
	StageTypeCheck Stage = iota
	StageConfidenceCheck
	StageSecurityCheck
	StageNameJudgment
	StageTerminal
)

func (s Stage) String() string {
	switch s {
	case StageTypeCheck:
		return "TYPE_CHECK"
	case StageConfidenceCheck:
		return "CONFIDENCE_CHECK"
	case StageSecurityCheck:
		return "SECURITY_CHECK"
	case StageNameJudgment:
		return "NAME_JUDGMENT"
	default:
		return "TERMINAL"
	}
}

// verificationState accumulates the validation report and the deferral flag
// as the stages run.
type verificationState struct {
	record   model.OcrRecord
	expected model.ExpectedPayment
	vctx     model.VerificationContext
	result   *model.VerificationResult

	// requiresGPTJudgment defers a borderline recipient match so the
	// remaining checks still run and get recorded before escalation.
	requiresGPTJudgment bool

	// pendingFraud holds the date validation behind a fraud rejection so
	// the alert can be assembled after the stage returns.
	pendingFraud *model.DateValidation
}

// terminate stamps the terminal status onto the accumulated result. The
// payment label is a strict function of the status.
func (s *verificationState) terminate(status model.VerificationStatus, reason model.RejectionReason) *model.VerificationResult {
	s.result.Status = status
	s.result.PaymentLabel = model.LabelForStatus(status)
	s.result.RejectionReason = reason
	return s.result
}

// transition runs one stage and returns either the next stage or a terminal
// result.
func (p *Pipeline) transition(ctx context.Context, stage Stage, state *verificationState) (Stage, *model.VerificationResult) {
	switch stage {
	case StageTypeCheck:
		return p.stageTypeCheck(state)
	case StageConfidenceCheck:
		return p.stageConfidenceCheck(state)
	case StageSecurityCheck:
		return p.stageSecurityCheck(ctx, state)
	case StageNameJudgment:
		return p.stageNameJudgment(state)
	default:
		return StageTerminal, state.terminate(model.StatusVerified, "")
	}
}

// stageTypeCheck rejects screenshots that are not bank statements at all.
// This is a silent, cheap reject: no fraud alert, no further processing.
func (p *Pipeline) stageTypeCheck(state *verificationState) (Stage, *model.VerificationResult) {
	isStatement := state.record.IsBankStatement
	if isStatement != nil && !*isStatement {
		return StageTerminal, state.terminate(model.StatusRejected, model.ReasonNotBankStatement)
	}
	return StageConfidenceCheck, nil
}

// stageConfidenceCheck gates the security-sensitive checks behind a
// high-confidence extraction: a low-confidence read must not pass amount or
// recipient checks by accident.
func (p *Pipeline) stageConfidenceCheck(state *verificationState) (Stage, *model.VerificationResult) {
	if state.record.Confidence != model.ConfidenceHigh {
		return StageTerminal, state.terminate(model.StatusPending, model.ReasonBlurry)
	}
	return StageSecurityCheck, nil
}

// stageSecurityCheck runs the recipient, date, duplicate, bank, and amount
// checks in their fixed order.
func (p *Pipeline) stageSecurityCheck(ctx context.Context, state *verificationState) (Stage, *model.VerificationResult) {
	if terminal := p.checkRecipient(ctx, state); terminal != nil {
		return StageTerminal, terminal
	}
	if terminal := p.checkDate(ctx, state); terminal != nil {
		return StageTerminal, terminal
	}
	if terminal := p.checkDuplicate(ctx, state); terminal != nil {
		return StageTerminal, terminal
	}
	p.checkBank(state)
	if terminal := p.checkAmount(state); terminal != nil {
		return StageTerminal, terminal
	}
	return StageNameJudgment, nil
}

// stageNameJudgment escalates a deferred borderline recipient match to
// manual review once every other check has run and been recorded.
func (p *Pipeline) stageNameJudgment(state *verificationState) (Stage, *model.VerificationResult) {
	if state.requiresGPTJudgment {
		return StageTerminal, state.terminate(model.StatusPending, model.ReasonRequiresGPTJudgment)
	}
	return StageTerminal, state.terminate(model.StatusVerified, "")
}

// checkRecipient tries the exact account-number match first, short-circuiting
// on success, then falls back to the name matching cascade. A clean
// non-match rejects; a borderline score defers so the remaining checks still
// run.
func (p *Pipeline) checkRecipient(ctx context.Context, state *verificationState) *model.VerificationResult {
	accountConfigured := state.expected.ToAccount != ""
	namesConfigured := len(state.expected.RecipientNames) > 0

	if !accountConfigured && !namesConfigured {
		state.result.Validation.ToAccount = model.FieldCheck{Skipped: true}
		state.result.Validation.RecipientNames = model.FieldCheck{Skipped: true}
		return nil
	}

	if accountConfigured {
		matched := match.AccountsMatch(state.record.ToAccount, state.expected.ToAccount)
		state.result.Validation.ToAccount = model.FieldCheck{
			Expected: state.expected.ToAccount,
			Actual:   state.record.ToAccount,
			Match:    matched,
		}
		if matched {
			state.result.Validation.RecipientNames = model.FieldCheck{Skipped: true}
			p.appendAudit(ctx, state, "recipient", "account number matched")
			return nil
		}
	} else {
		state.result.Validation.ToAccount = model.FieldCheck{Skipped: true}
	}

	if !namesConfigured {
		p.appendAudit(ctx, state, "recipient", "account number mismatch, no expected names configured")
		return state.terminate(model.StatusRejected, model.ReasonWrongRecipient)
	}

	nameResult := p.matcher.Match(state.record.RecipientName, state.expected.RecipientNames, state.expected.AllowedAliases)
	state.result.Validation.RecipientNames = model.FieldCheck{
		Expected: strings.Join(state.expected.RecipientNames, ", "),
		Actual:   state.record.RecipientName,
		Match:    nameResult.IsMatch,
	}
	p.appendAudit(ctx, state, "recipient",
		fmt.Sprintf("name match %s confidence %.0f (%s)", nameResult.MatchType, nameResult.Confidence, strings.Join(nameResult.Details.Steps, "; ")))

	switch {
	case nameResult.IsMatch && !nameResult.RequiresGPTJudgment:
		return nil
	case nameResult.RequiresGPTJudgment:
		state.requiresGPTJudgment = true
		return nil
	default:
		return state.terminate(model.StatusRejected, model.ReasonWrongRecipient)
	}
}

// checkDate validates the extracted transaction date, but only if one was
// extracted. Any invalidity is terminal and produces a fraud alert.
func (p *Pipeline) checkDate(ctx context.Context, state *verificationState) *model.VerificationResult {
	if strings.TrimSpace(state.record.TransactionDateRaw) == "" {
		state.result.Validation.DateValidation = model.DateValidation{Skipped: true}
		return nil
	}

	validation := fraud.Validate(state.record.TransactionDateRaw, state.vctx.UploadedAt, p.cfg.MaxAgeDays)
	state.result.Validation.DateValidation = validation
	p.appendAudit(ctx, state, "date",
		fmt.Sprintf("valid=%t age_days=%d fraud_type=%s", validation.IsValid, validation.AgeDays, validation.FraudType))

	if validation.IsValid {
		return nil
	}

	state.pendingFraud = &validation
	return state.terminate(model.StatusRejected, model.RejectionReason(validation.FraudType))
}

// checkDuplicate rejects a transaction id that has already backed a verified
// payment. Lookup failures are logged and skipped: storage unavailability
// must not turn into false fraud verdicts.
func (p *Pipeline) checkDuplicate(ctx context.Context, state *verificationState) *model.VerificationResult {
	if p.storage == nil || state.record.TransactionID == "" {
		return nil
	}

	count, err := p.storage.CountVerifiedByTransactionID(ctx, state.record.TransactionID, state.result.RecordID)
	if err != nil {
		p.logger.Warn("duplicate lookup failed", "transaction_id", state.record.TransactionID, "error", err)
		return nil
	}
	if count == 0 {
		return nil
	}

	p.appendAudit(ctx, state, "duplicate",
		fmt.Sprintf("transaction id %s already verified %d time(s)", state.record.TransactionID, count))
	state.pendingFraud = &model.DateValidation{
		FraudType: model.FraudDuplicateTransaction,
		Reason:    fmt.Sprintf("transaction id %s reused across verifications", state.record.TransactionID),
	}
	return state.terminate(model.StatusRejected, model.RejectionReason(model.FraudDuplicateTransaction))
}

// checkBank records the bank comparison. Informational only: logo and name
// extraction are too noisy to reject on.
func (p *Pipeline) checkBank(state *verificationState) {
	if state.expected.Bank == "" {
		state.result.Validation.Bank = model.FieldCheck{Skipped: true}
		return
	}

	expected := match.Normalize(state.expected.Bank)
	actual := match.Normalize(state.record.BankName)
	matched := actual != "" && (strings.Contains(actual, expected) || strings.Contains(expected, actual))
	state.result.Validation.Bank = model.FieldCheck{
		Expected: state.expected.Bank,
		Actual:   state.record.BankName,
		Match:    matched,
	}
}

// checkAmount compares the extracted amount against the expectation in the
// reference currency. A mismatch is pending, not rejected: wrong amounts are
// usually input error, not fraud.
func (p *Pipeline) checkAmount(state *verificationState) *model.VerificationResult {
	if state.expected.Amount == nil {
		state.result.Validation.Amount = model.FieldCheck{Skipped: true}
		return nil
	}

	expectedRef := toReferenceCurrency(*state.expected.Amount, state.expected.Currency, p.cfg.USDToKHRRate)

	if state.record.Amount == nil {
		state.result.Validation.Amount = model.FieldCheck{
			Expected: state.expected.Amount.String(),
			Match:    false,
		}
		return state.terminate(model.StatusPending, model.ReasonAmountMismatch)
	}

	actualRef := toReferenceCurrency(*state.record.Amount, state.record.Currency, p.cfg.USDToKHRRate)
	matched := withinTolerance(expectedRef, actualRef, state.expected.Tolerance())
	state.result.Validation.Amount = model.FieldCheck{
		Expected: state.expected.Amount.String(),
		Actual:   state.record.Amount.String(),
		Match:    matched,
	}

	if !matched {
		return state.terminate(model.StatusPending, model.ReasonAmountMismatch)
	}
	return nil
}
