package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// Config holds orchestration thresholds and the overall deadline for one
// multi-engine extraction.
type Config struct {
	CombinedThreshold float64       `validate:"gt=0,lte=1"`
	MediumThreshold   float64       `validate:"gt=0,ltefield=CombinedThreshold"`
	OverallTimeout    time.Duration `validate:"gt=0"`
}

// DefaultConfig returns the default orchestration configuration.
func DefaultConfig() Config {
	return Config{
		CombinedThreshold: 0.8,
		MediumThreshold:   0.5,
		OverallTimeout:    60 * time.Second,
	}
}

// Orchestrator runs the configured adapters per a selected strategy and
// fuses their outputs into one ranked record.
type Orchestrator struct {
	logger   *slog.Logger
	adapters []Adapter
	cfg      Config
}

// NewOrchestrator creates an orchestrator over the given adapters, failing
// fast on invalid thresholds or an empty adapter set.
func NewOrchestrator(adapters []Adapter, cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if len(adapters) == 0 {
		return nil, fmt.Errorf("at least one OCR adapter is required")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid orchestrator config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{adapters: adapters, cfg: cfg, logger: logger}, nil
}

// Process extracts a fused record from one image. The only hard errors are
// input errors (unreadable bytes); engine failures degrade to a
// low-confidence or failed record the pipeline handles explicitly.
func (o *Orchestrator) Process(ctx context.Context, image []byte, hints Hints) (model.OcrRecord, error) {
	if err := ValidateImage(image); err != nil {
		return model.OcrRecord{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.OverallTimeout)
	defer cancel()

	detection := DetectBank(hints.Bank)
	selected, strategy := o.selectAdapters(detection)
	hints.Bank = detection.Bank

	o.logger.Debug("ocr strategy selected",
		"strategy", strategy,
		"bank", detection.Bank,
		"bank_confidence", detection.Confidence,
		"adapters", adapterNames(selected))

	results := o.fanOut(ctx, selected, image, hints)

	// A hosted pass is worth its cost in two cases: the local engines could
	// not read the image well enough, or the text is dominated by Khmer
	// script, which the local engines handle poorly.
	if hosted := o.hostedAdapter(); hosted != nil && !ranHosted(results) {
		_, fused := Fuse(results, FusionConfig{CombinedThreshold: o.cfg.CombinedThreshold, MediumThreshold: o.cfg.MediumThreshold})
		mix := DetectScriptMix(collectText(results))

		var fallbackReason string
		switch {
		case mix.KhmerDominant():
			fallbackReason = fmt.Sprintf("khmer script dominant (%.0f%% of letters)", mix.KhmerRatio*100)
		case fused < o.cfg.CombinedThreshold:
			fallbackReason = fmt.Sprintf("local engines below combined threshold (%.2f < %.2f)", fused, o.cfg.CombinedThreshold)
		}

		if fallbackReason != "" {
			o.logger.Info("invoking hosted vision engine", "reason", fallbackReason)
			hostedHints := hints
			hostedHints.Texts = splitTexts(results)
			result := o.runAdapter(ctx, hosted, image, hostedHints)
			result.Record.FallbackReason = fallbackReason
			results = append(results, result)
		}
	}

	fusionCfg := FusionConfig{CombinedThreshold: o.cfg.CombinedThreshold, MediumThreshold: o.cfg.MediumThreshold}
	record, fused := Fuse(results, fusionCfg)

	o.logger.Info("ocr fusion complete",
		"engines", adapterResultNames(results),
		"fused_confidence", fused,
		"confidence", record.Confidence,
		"primary_engine", record.Engine)

	return record, nil
}

// selectAdapters picks the engine set for this image: a high-confidence bank
// detection prefers the template-aware structured engine plus one general
// engine; otherwise every general-purpose engine runs. The hosted engine is
// never part of the initial set.
func (o *Orchestrator) selectAdapters(detection BankDetection) ([]Adapter, string) {
	var structured Adapter
	var general []Adapter
	for _, a := range o.adapters {
		spec := a.Spec()
		switch {
		case spec.Hosted:
			// Scheduled separately, after the local pass.
		case spec.Structured:
			structured = a
		default:
			general = append(general, a)
		}
	}

	if detection.Confidence >= highConfidenceBank && structured != nil {
		selected := []Adapter{structured}
		if len(general) > 0 {
			selected = append(selected, general[0])
		}
		return selected, "template"
	}

	selected := general
	if structured != nil {
		// Without a bank hint the structured engine still runs; its own
		// confidence reflects whether a template matched.
		selected = append([]Adapter{structured}, general...)
	}
	if len(selected) == 0 {
		// Configuration left only the hosted engine; run it directly.
		if hosted := o.hostedAdapter(); hosted != nil {
			return []Adapter{hosted}, "hosted-only"
		}
	}
	return selected, "general"
}

func (o *Orchestrator) hostedAdapter() Adapter {
	for _, a := range o.adapters {
		if a.Spec().Hosted {
			return a
		}
	}
	return nil
}

// fanOut runs the selected adapters concurrently, each bounded by its own
// timeout, and joins their results. A failing adapter yields a
// zero-confidence stub, never aborting the others.
func (o *Orchestrator) fanOut(ctx context.Context, selected []Adapter, image []byte, hints Hints) []AdapterResult {
	resultCh := make(chan AdapterResult, len(selected))

	for _, adapter := range selected {
		go func(a Adapter) {
			resultCh <- o.runAdapter(ctx, a, image, hints)
		}(adapter)
	}

	results := make([]AdapterResult, 0, len(selected))
	for range selected {
		results = append(results, <-resultCh)
	}
	return results
}

// runAdapter executes one adapter call, converting timeouts, crashes, and
// errors into a zero-confidence stub.
func (o *Orchestrator) runAdapter(ctx context.Context, a Adapter, image []byte, hints Hints) (result AdapterResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("ocr adapter panicked", "engine", a.Name(), "panic", r)
			result = stubResult(a, fmt.Sprintf("adapter panicked: %v", r))
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, a.Spec().Timeout)
	defer cancel()

	res, err := a.Extract(callCtx, image, hints)
	if err != nil {
		o.logger.Warn("ocr adapter failed", "engine", a.Name(), "error", err)
		return stubResult(a, err.Error())
	}
	return res
}

func ranHosted(results []AdapterResult) bool {
	for _, r := range results {
		if r.Engine == EngineVision {
			return true
		}
	}
	return false
}

func collectText(results []AdapterResult) string {
	return strings.Join(splitTexts(results), "\n")
}

func splitTexts(results []AdapterResult) []string {
	var texts []string
	for _, r := range results {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}
	return texts
}

func adapterNames(adapters []Adapter) []string {
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	return names
}

func adapterResultNames(results []AdapterResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Engine
	}
	return names
}
