package ocr

import (
	"sort"
	"strings"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// FusionConfig holds the thresholds that map a fused 0–1 confidence onto the
// discrete classification.
type FusionConfig struct {
	// CombinedThreshold is the fused confidence at or above which the
	// extraction counts as high confidence.
	CombinedThreshold float64
	// MediumThreshold separates medium from low.
	MediumThreshold float64
}

// Fuse combines completed adapter results into one record. It is a pure fold
// over the result set: commutative, so arrival order never affects the fused
// output.
//
// Each result whose individual confidence clears its adapter's floor
// contributes confidence×weight to the numerator and weight to the
// denominator; the fused confidence is the quotient. The single highest
// individual confidence supplies the primary structured fields; other
// results may fill fields the primary left empty but never overwrite them.
func Fuse(results []AdapterResult, cfg FusionConfig) (model.OcrRecord, float64) {
	// Sort a copy by descending confidence, ties broken by engine name, so
	// the fold is deterministic regardless of input order.
	ordered := make([]AdapterResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].Engine < ordered[j].Engine
	})

	var numerator, denominator float64
	anySignal := false
	for _, r := range ordered {
		if r.Confidence > 0 {
			anySignal = true
		}
		if r.Confidence >= r.MinConfidence && r.Weight > 0 && r.Confidence > 0 {
			numerator += r.Confidence * r.Weight
			denominator += r.Weight
		}
	}

	if !anySignal {
		// Every adapter was stubbed out; the pipeline treats this the same
		// as an unreadable image.
		return model.OcrRecord{Confidence: model.ConfidenceFailed}, 0
	}

	fused := 0.0
	if denominator > 0 {
		fused = numerator / denominator
	}

	primary := ordered[0]
	record := primary.Record
	record.Engine = primary.Engine

	var texts []string
	for _, r := range ordered {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
		if r.Engine == primary.Engine {
			continue
		}
		fillMissingFields(&record, r.Record)
	}
	record.RawText = strings.Join(texts, "\n---\n")

	switch {
	case fused >= cfg.CombinedThreshold:
		record.Confidence = model.ConfidenceHigh
	case fused >= cfg.MediumThreshold:
		record.Confidence = model.ConfidenceMedium
	default:
		record.Confidence = model.ConfidenceLow
	}

	return record, fused
}

// fillMissingFields copies supplementary evidence into fields the primary
// adapter could not extract. Structured fields the primary did extract are
// never overwritten.
func fillMissingFields(dst *model.OcrRecord, src model.OcrRecord) {
	if dst.IsBankStatement == nil {
		dst.IsBankStatement = src.IsBankStatement
	}
	if dst.IsPaid == nil {
		dst.IsPaid = src.IsPaid
	}
	if dst.Amount == nil && src.Amount != nil {
		dst.Amount = src.Amount
		dst.Currency = src.Currency
	}
	if dst.TransactionID == "" {
		dst.TransactionID = src.TransactionID
	}
	if dst.ReferenceNumber == "" {
		dst.ReferenceNumber = src.ReferenceNumber
	}
	if dst.FromAccount == "" {
		dst.FromAccount = src.FromAccount
	}
	if dst.ToAccount == "" {
		dst.ToAccount = src.ToAccount
	}
	if dst.RecipientName == "" {
		dst.RecipientName = src.RecipientName
	}
	if dst.BankName == "" {
		dst.BankName = src.BankName
	}
	if dst.TransactionDateRaw == "" {
		dst.TransactionDateRaw = src.TransactionDateRaw
	}
}
