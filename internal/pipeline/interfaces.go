// Package pipeline implements the staged verification decision process that
// turns a fused OCR record plus caller-supplied expectations into a terminal
// verdict, creating a fraud alert when the rejection has a fraud-relevant
// cause.
package pipeline

import (
	"context"

	"github.com/chamnan-dev/slipguard/internal/model"
	"github.com/chamnan-dev/slipguard/internal/ocr"
)

// Extractor produces a fused OCR record for an image. Satisfied by
// ocr.Orchestrator; tests substitute a canned implementation.
type Extractor interface {
	Process(ctx context.Context, image []byte, hints ocr.Hints) (model.OcrRecord, error)
}

// NameMatcher classifies an extracted recipient identity against the
// expected identities. Satisfied by match.Matcher.
type NameMatcher interface {
	Match(extracted string, expectedNames []string, aliases []model.AliasGroup) model.NameMatchResult
}
