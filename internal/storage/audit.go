package storage

import (
	"context"
	"fmt"

	"github.com/chamnan-dev/slipguard/internal/service"
)

// Append writes one audit entry. Implements service.AuditSink.
func (s *SQLiteStorage) Append(ctx context.Context, entry service.AuditEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entry.RecordID, "entry.RecordID"); err != nil {
		return err
	}
	if err := validateString(entry.Step, "entry.Step"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (at, tenant_id, record_id, step, detail)
		VALUES (?, ?, ?, ?, ?)`,
		entry.At, entry.TenantID, entry.RecordID, entry.Step, entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AuditTrail returns the audit entries recorded for one verification, oldest
// first.
func (s *SQLiteStorage) AuditTrail(ctx context.Context, recordID string) ([]service.AuditEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(recordID, "recordID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT at, tenant_id, record_id, step, detail
		FROM audit_log
		WHERE record_id = ?
		ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []service.AuditEntry
	for rows.Next() {
		var entry service.AuditEntry
		if err := rows.Scan(&entry.At, &entry.TenantID, &entry.RecordID, &entry.Step, &entry.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit trail: %w", err)
	}
	return entries, nil
}
