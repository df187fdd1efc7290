package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// RenderResult renders one verification verdict as a bordered summary box.
func RenderResult(result *model.VerificationResult) string {
	var lines []string

	lines = append(lines, labelLine("Status", statusText(result.Status)))
	lines = append(lines, labelLine("Label", string(result.PaymentLabel)))
	if result.RejectionReason != "" {
		lines = append(lines, labelLine("Reason", string(result.RejectionReason)))
	}
	lines = append(lines, labelLine("Confidence", string(result.Confidence)))
	if result.InvoiceID != "" {
		lines = append(lines, labelLine("Invoice", result.InvoiceID))
	}
	if result.TransactionID != "" {
		lines = append(lines, labelLine("Transaction", result.TransactionID))
	}
	lines = append(lines, labelLine("Record", result.RecordID))

	lines = append(lines, "", SubtleStyle.Render("Checks"))
	lines = append(lines, checkLine("Amount", result.Validation.Amount))
	lines = append(lines, checkLine("Recipient account", result.Validation.ToAccount))
	lines = append(lines, checkLine("Recipient name", result.Validation.RecipientNames))
	lines = append(lines, checkLine("Bank", result.Validation.Bank))
	lines = append(lines, dateLine(result.Validation.DateValidation))

	if result.Fraud != nil {
		lines = append(lines, "", ErrorStyle.Render(AlertIcon+" Fraud alert "+result.Fraud.AlertID),
			labelLine("Type", string(result.Fraud.FraudType)),
			labelLine("Severity", string(result.Fraud.Severity)),
			labelLine("Detail", result.Fraud.Reason))
	}

	return RenderBox("Verification "+result.RecordID[:8], strings.Join(lines, "\n"))
}

// RenderResultTable renders verification results as a compact table.
func RenderResultTable(results []model.VerificationResult) string {
	header := []string{"UPLOADED", "RECORD", "INVOICE", "STATUS", "LABEL", "REASON"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.UploadedAt.Format("2006-01-02 15:04"),
			shortID(r.RecordID),
			r.InvoiceID,
			statusText(r.Status),
			string(r.PaymentLabel),
			string(r.RejectionReason),
		})
	}
	return renderTable(header, rows)
}

// RenderAlertTable renders fraud alerts as a compact table.
func RenderAlertTable(alerts []model.FraudAlert) string {
	header := []string{"CREATED", "ALERT", "TYPE", "SEVERITY", "REVIEW", "REASON"}
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{
			a.CreatedAt.Format("2006-01-02 15:04"),
			a.AlertID,
			string(a.FraudType),
			severityText(a.Severity),
			string(a.ReviewStatus),
			a.Reason,
		})
	}
	return renderTable(header, rows)
}

func statusText(status model.VerificationStatus) string {
	switch status {
	case model.StatusVerified:
		return SuccessStyle.Render(string(status))
	case model.StatusPending:
		return WarningStyle.Render(string(status))
	default:
		return ErrorStyle.Render(string(status))
	}
}

func severityText(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical, model.SeverityHigh:
		return ErrorStyle.Render(string(severity))
	case model.SeverityMedium:
		return WarningStyle.Render(string(severity))
	default:
		return SubtleStyle.Render(string(severity))
	}
}

func labelLine(label, value string) string {
	return fmt.Sprintf("%s %s", SubtleStyle.Render(label+":"), value)
}

func checkLine(label string, check model.FieldCheck) string {
	switch {
	case check.Skipped:
		return fmt.Sprintf("  %s %s", SubtleStyle.Render("-"), SubtleStyle.Render(label+" (skipped)"))
	case check.Match:
		return fmt.Sprintf("  %s %s", SuccessStyle.Render(SuccessIcon), label)
	default:
		return fmt.Sprintf("  %s %s (expected %q, got %q)", ErrorStyle.Render(ErrorIcon), label, check.Expected, check.Actual)
	}
}

func dateLine(validation model.DateValidation) string {
	switch {
	case validation.Skipped:
		return fmt.Sprintf("  %s %s", SubtleStyle.Render("-"), SubtleStyle.Render("Transaction date (skipped)"))
	case validation.IsValid:
		return fmt.Sprintf("  %s Transaction date (%d day(s) old)", SuccessStyle.Render(SuccessIcon), validation.AgeDays)
	default:
		return fmt.Sprintf("  %s Transaction date: %s", ErrorStyle.Render(ErrorIcon), validation.Reason)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(TableHeaderStyle.Render(pad(h, widths[i])))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(TableCellStyle.Render(pad(cell, widths[i])))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
