package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chamnan-dev/slipguard/internal/model"
	"github.com/chamnan-dev/slipguard/internal/service"
)

// SaveVerificationResult persists one verification verdict. The validation
// report is stored as a JSON column: it is read back whole, never queried.
func (s *SQLiteStorage) SaveVerificationResult(ctx context.Context, result *model.VerificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateResult(result); err != nil {
		return err
	}

	validation, err := json.Marshal(result.Validation)
	if err != nil {
		return fmt.Errorf("failed to marshal validation report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_results (
			record_id, invoice_id, customer_id, tenant_id, transaction_id,
			status, payment_label, rejection_reason, confidence, validation,
			uploaded_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			status = excluded.status,
			payment_label = excluded.payment_label,
			rejection_reason = excluded.rejection_reason,
			confidence = excluded.confidence,
			validation = excluded.validation`,
		result.RecordID, result.InvoiceID, result.CustomerID, result.TenantID,
		result.TransactionID, string(result.Status), string(result.PaymentLabel),
		string(result.RejectionReason), string(result.Confidence), string(validation),
		result.UploadedAt, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save verification result: %w", err)
	}
	return nil
}

// GetVerificationResult loads one result by record id.
func (s *SQLiteStorage) GetVerificationResult(ctx context.Context, recordID string) (*model.VerificationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recordID, "recordID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT record_id, invoice_id, customer_id, tenant_id, transaction_id,
			status, payment_label, rejection_reason, confidence, validation,
			uploaded_at, created_at
		FROM verification_results
		WHERE record_id = ?`, recordID)

	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: result %s", ErrNotFound, recordID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification result: %w", err)
	}
	return result, nil
}

// ListVerificationResults returns results matching the filter, newest first.
func (s *SQLiteStorage) ListVerificationResults(ctx context.Context, filter service.ResultFilter) ([]model.VerificationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT record_id, invoice_id, customer_id, tenant_id, transaction_id,
			status, payment_label, rejection_reason, confidence, validation,
			uploaded_at, created_at
		FROM verification_results`
	var clauses []string
	var args []any

	if filter.TenantID != "" {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		clauses = append(clauses, "uploaded_at >= ?")
		args = append(args, *filter.Since)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY uploaded_at DESC, record_id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.VerificationResult
	for rows.Next() {
		result, scanErr := scanResult(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan verification result: %w", scanErr)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verification results: %w", err)
	}
	return results, nil
}

// CountVerifiedByTransactionID reports how many already-verified results carry
// the given extracted transaction id, excluding the record being verified.
func (s *SQLiteStorage) CountVerifiedByTransactionID(ctx context.Context, transactionID, excludeRecordID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM verification_results
		WHERE transaction_id = ? AND status = ? AND record_id != ?`,
		transactionID, string(model.StatusVerified), excludeRecordID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verified transactions: %w", err)
	}
	return count, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*model.VerificationResult, error) {
	var result model.VerificationResult
	var status, label, reason, confidence, validation string
	var invoiceID, customerID, tenantID, transactionID sql.NullString

	err := row.Scan(&result.RecordID, &invoiceID, &customerID, &tenantID,
		&transactionID, &status, &label, &reason, &confidence, &validation,
		&result.UploadedAt, &result.CreatedAt)
	if err != nil {
		return nil, err
	}

	result.InvoiceID = invoiceID.String
	result.CustomerID = customerID.String
	result.TenantID = tenantID.String
	result.TransactionID = transactionID.String
	result.Status = model.VerificationStatus(status)
	result.PaymentLabel = model.PaymentLabel(label)
	result.RejectionReason = model.RejectionReason(reason)
	result.Confidence = model.Confidence(confidence)
	if err := json.Unmarshal([]byte(validation), &result.Validation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation report: %w", err)
	}
	return &result, nil
}
