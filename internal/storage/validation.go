package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidResult = errors.New("invalid verification result")
	ErrInvalidAlert  = errors.New("invalid fraud alert")
	ErrNotFound      = errors.New("record not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateResult validates a verification result before persisting.
func validateResult(result *model.VerificationResult) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if result.RecordID == "" {
		return fmt.Errorf("%w: missing record id", ErrInvalidResult)
	}
	switch result.Status {
	case model.StatusVerified, model.StatusPending, model.StatusRejected:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidResult, result.Status)
	}
	if result.PaymentLabel != model.LabelForStatus(result.Status) {
		return fmt.Errorf("%w: label %q does not match status %q", ErrInvalidResult, result.PaymentLabel, result.Status)
	}
	if result.UploadedAt.IsZero() {
		return fmt.Errorf("%w: missing upload time", ErrInvalidResult)
	}
	return nil
}

// validateAlert validates a fraud alert before persisting.
func validateAlert(alert *model.FraudAlert) error {
	if alert == nil {
		return fmt.Errorf("%w: alert", ErrNilParameter)
	}
	if alert.AlertID == "" {
		return fmt.Errorf("%w: missing alert id", ErrInvalidAlert)
	}
	if alert.FraudType == "" {
		return fmt.Errorf("%w: missing fraud type", ErrInvalidAlert)
	}
	if alert.Severity == "" {
		return fmt.Errorf("%w: missing severity", ErrInvalidAlert)
	}
	return nil
}

// nullTime converts an optional time into its sql representation.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
