// Package ocr implements the multi-engine text extraction layer: one adapter
// per concrete OCR backend, a rate limiter shared by the hosted engine, and
// the orchestrator that fans out over adapters and fuses their results into a
// single best-effort record.
package ocr

import (
	"context"
	"time"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// Engine names.
const (
	EngineBankOCR    = "bankocr"
	EngineTessdaemon = "tessdaemon"
	EngineVision     = "vision"
)

// Hints carries optional caller-supplied context for an extraction pass.
type Hints struct {
	// Bank is the caller's guess at the issuing bank, if any.
	Bank string
	// Texts holds lower-confidence engines' output, passed to the hosted
	// engine to reduce prompt ambiguity.
	Texts []string
}

// AdapterResult is one engine's contribution to fusion.
type AdapterResult struct {
	Record model.OcrRecord
	Engine string
	Text   string
	// Confidence is the engine's own 0–1 estimate for this extraction.
	Confidence float64
	// Weight and MinConfidence are copied from the adapter's spec so fusion
	// needs nothing beyond the result set.
	Weight        float64
	MinConfidence float64
}

// Adapter is the uniform interface over every concrete text-extraction
// backend. Implementations must respect ctx cancellation; they never retry
// internally except where the backend contract requires it (hosted engine).
type Adapter interface {
	Name() string
	Extract(ctx context.Context, image []byte, hints Hints) (AdapterResult, error)
	// Spec describes how the orchestrator should schedule and weigh this
	// adapter.
	Spec() AdapterSpec
}

// AdapterSpec holds the per-adapter scheduling and fusion parameters.
type AdapterSpec struct {
	// Weight is this engine's share in confidence-weighted fusion.
	Weight float64
	// MinConfidence is the floor below which this engine's result is
	// excluded from the fused confidence (its text may still be merged as
	// supplementary evidence).
	MinConfidence float64
	// Timeout bounds a single extraction call.
	Timeout time.Duration
	// Structured marks template-aware engines preferred when the bank is
	// known.
	Structured bool
	// Hosted marks engines that cost money per call and run last.
	Hosted bool
}

// stubResult converts an adapter failure into a zero-confidence contribution
// so one failing engine never aborts the others.
func stubResult(a Adapter, reason string) AdapterResult {
	spec := a.Spec()
	return AdapterResult{
		Engine: a.Name(),
		Record: model.OcrRecord{
			Confidence:     model.ConfidenceLow,
			Engine:         a.Name(),
			FallbackReason: reason,
		},
		Weight:        spec.Weight,
		MinConfidence: spec.MinConfidence,
	}
}
