package ocr

import (
	"bytes"
	"strings"

	"github.com/chamnan-dev/slipguard/internal/common"
)

// BankDetection is the cheap, best-effort pre-pass result used only for
// adapter strategy selection, never for verification decisions.
type BankDetection struct {
	Bank       string
	Confidence float64
}

// highConfidenceBank is the detection confidence above which the orchestrator
// prefers the template-aware structured engine.
const highConfidenceBank = 0.8

// DetectBank resolves the caller's bank hint against the known-bank table.
// An exact hint is high confidence; a partial marker inside the hint is
// medium; no hint is no detection.
func DetectBank(hint string) BankDetection {
	trimmed := strings.ToLower(strings.TrimSpace(hint))
	if trimmed == "" {
		return BankDetection{}
	}

	for _, entry := range bankKeywords {
		if trimmed == entry.keyword {
			return BankDetection{Bank: entry.bank, Confidence: 0.95}
		}
	}
	for _, entry := range bankKeywords {
		if strings.Contains(trimmed, entry.keyword) {
			return BankDetection{Bank: entry.bank, Confidence: 0.6}
		}
	}

	// Unknown bank names are still forwarded to the structured engine as a
	// template hint, just without strategy influence.
	return BankDetection{Bank: hint, Confidence: 0.3}
}

// Image magic numbers for the formats the upstream enhancer produces.
var imageMagics = [][]byte{
	{0x89, 'P', 'N', 'G'},  // PNG
	{0xFF, 0xD8, 0xFF},     // JPEG
	{'R', 'I', 'F', 'F'},   // WEBP (RIFF container)
	{'B', 'M'},             // BMP
	{'I', 'I', 0x2A, 0x00}, // TIFF little-endian
	{'M', 'M', 0x00, 0x2A}, // TIFF big-endian
}

// ValidateImage rejects inputs that cannot be an image before any engine is
// invoked. Malformed input is a caller error, never retried.
func ValidateImage(image []byte) error {
	if len(image) == 0 {
		return common.ErrEmptyInput
	}
	for _, magic := range imageMagics {
		if bytes.HasPrefix(image, magic) {
			return nil
		}
	}
	return common.ErrInvalidImage
}
