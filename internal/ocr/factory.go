package ocr

import (
	"fmt"
	"strings"
	"time"
)

// AdapterConfig holds configuration for one OCR engine adapter.
type AdapterConfig struct {
	// Engine selects the adapter implementation: bankocr, tessdaemon, or
	// vision.
	Engine  string
	BaseURL string
	APIKey  string
	Model   string
	// Weight overrides the engine's default fusion weight when positive.
	Weight float64
	// MinConfidence overrides the engine's default fusion floor when
	// positive.
	MinConfidence float64
	// Timeout overrides the engine's default per-call timeout when positive.
	Timeout time.Duration
}

// Per-engine defaults. The structured engine is trusted slightly above the
// general engine; the hosted engine is trusted most but also gated hardest.
var defaultSpecs = map[string]AdapterSpec{
	EngineBankOCR:    {Weight: 1.2, MinConfidence: 0.5, Timeout: 10 * time.Second, Structured: true},
	EngineTessdaemon: {Weight: 1.0, MinConfidence: 0.3, Timeout: 15 * time.Second},
	EngineVision:     {Weight: 1.5, MinConfidence: 0.4, Timeout: 45 * time.Second, Hosted: true},
}

// spec resolves the adapter's scheduling parameters from config overrides
// and engine defaults.
func (c AdapterConfig) spec() AdapterSpec {
	spec := defaultSpecs[strings.ToLower(c.Engine)]
	if c.Weight > 0 {
		spec.Weight = c.Weight
	}
	if c.MinConfidence > 0 {
		spec.MinConfidence = c.MinConfidence
	}
	if c.Timeout > 0 {
		spec.Timeout = c.Timeout
	}
	return spec
}

// NewAdapter creates an adapter for the configured engine. The limiter is
// required by the hosted engine and ignored by the local ones.
func NewAdapter(cfg AdapterConfig, limiter *RateLimiter) (Adapter, error) {
	switch strings.ToLower(cfg.Engine) {
	case EngineBankOCR:
		return newBankOCRAdapter(cfg)
	case EngineTessdaemon:
		return newTessdaemonAdapter(cfg)
	case EngineVision:
		return newVisionAdapter(cfg, limiter)
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", cfg.Engine)
	}
}
