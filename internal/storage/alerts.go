package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chamnan-dev/slipguard/internal/model"
	"github.com/chamnan-dev/slipguard/internal/service"
)

// SaveFraudAlert persists one fraud alert.
func (s *SQLiteStorage) SaveFraudAlert(ctx context.Context, alert *model.FraudAlert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlert(alert); err != nil {
		return err
	}

	var amount any
	if alert.Amount != nil {
		amount = alert.Amount.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fraud_alerts (
			alert_id, record_id, invoice_id, customer_id, tenant_id,
			fraud_type, severity, review_status, transaction_id,
			raw_date_text, reason, age_days, amount, transaction_date,
			uploaded_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.AlertID, alert.RecordID, alert.InvoiceID, alert.CustomerID,
		alert.TenantID, string(alert.FraudType), string(alert.Severity),
		string(alert.ReviewStatus), alert.TransactionID, alert.RawDateText,
		alert.Reason, alert.AgeDays, amount, nullTime(alert.TransactionDate),
		alert.UploadedAt, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save fraud alert: %w", err)
	}
	return nil
}

// ListFraudAlerts returns alerts matching the filter, newest first.
func (s *SQLiteStorage) ListFraudAlerts(ctx context.Context, filter service.AlertFilter) ([]model.FraudAlert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT alert_id, record_id, invoice_id, customer_id, tenant_id,
			fraud_type, severity, review_status, transaction_id,
			raw_date_text, reason, age_days, amount, transaction_date,
			uploaded_at, created_at
		FROM fraud_alerts`
	var clauses []string
	var args []any

	if filter.TenantID != "" {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if filter.FraudType != "" {
		clauses = append(clauses, "fraud_type = ?")
		args = append(args, string(filter.FraudType))
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Since != nil {
		clauses = append(clauses, "uploaded_at >= ?")
		args = append(args, *filter.Since)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, alert_id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fraud alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.FraudAlert
	for rows.Next() {
		alert, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan fraud alert: %w", scanErr)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fraud alerts: %w", err)
	}
	return alerts, nil
}

// NextAlertSequence returns the next per-day sequence number for alert ids.
// The counter advances inside a transaction so concurrent verifications never
// share a number.
func (s *SQLiteStorage) NextAlertSequence(ctx context.Context, day time.Time) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	key := day.UTC().Format("2006-01-02")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int
	err = tx.QueryRowContext(ctx, `SELECT next_seq FROM alert_sequences WHERE day = ?`, key).Scan(&seq)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		seq = 1
		if _, err := tx.ExecContext(ctx, `INSERT INTO alert_sequences (day, next_seq) VALUES (?, ?)`, key, seq+1); err != nil {
			return 0, fmt.Errorf("failed to initialize alert sequence: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to read alert sequence: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `UPDATE alert_sequences SET next_seq = ? WHERE day = ?`, seq+1, key); err != nil {
			return 0, fmt.Errorf("failed to advance alert sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit alert sequence: %w", err)
	}
	return seq, nil
}

func scanAlert(row rowScanner) (*model.FraudAlert, error) {
	var alert model.FraudAlert
	var fraudType, severity, reviewStatus string
	var recordID, invoiceID, customerID, tenantID, transactionID, rawDate, reason, amount sql.NullString
	var transactionDate sql.NullTime

	err := row.Scan(&alert.AlertID, &recordID, &invoiceID, &customerID,
		&tenantID, &fraudType, &severity, &reviewStatus, &transactionID,
		&rawDate, &reason, &alert.AgeDays, &amount, &transactionDate,
		&alert.UploadedAt, &alert.CreatedAt)
	if err != nil {
		return nil, err
	}

	alert.RecordID = recordID.String
	alert.InvoiceID = invoiceID.String
	alert.CustomerID = customerID.String
	alert.TenantID = tenantID.String
	alert.TransactionID = transactionID.String
	alert.RawDateText = rawDate.String
	alert.Reason = reason.String
	alert.FraudType = model.FraudType(fraudType)
	alert.Severity = model.Severity(severity)
	alert.ReviewStatus = model.ReviewStatus(reviewStatus)
	if amount.Valid {
		parsed, parseErr := decimal.NewFromString(amount.String)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount.String, parseErr)
		}
		alert.Amount = &parsed
	}
	if transactionDate.Valid {
		t := transactionDate.Time
		alert.TransactionDate = &t
	}
	return &alert, nil
}
