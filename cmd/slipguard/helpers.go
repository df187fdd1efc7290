package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/chamnan-dev/slipguard/internal/config"
	"github.com/chamnan-dev/slipguard/internal/match"
	"github.com/chamnan-dev/slipguard/internal/ocr"
	"github.com/chamnan-dev/slipguard/internal/pipeline"
	"github.com/chamnan-dev/slipguard/internal/storage"
)

// databasePath resolves the database location from config, falling back to
// the XDG data directory.
func databasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return config.ExpandPath(path), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "slipguard", "slipguard.db"), nil
}

// openStorage opens the configured database and ensures the schema is
// current.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	path, err := databasePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return store, nil
}

// buildAdapters assembles the OCR adapter set from config. Local engines are
// included when a base URL is configured; the hosted vision engine when an
// API key is present (config or SLIPGUARD_OCR_VISION_API_KEY).
func buildAdapters() ([]ocr.Adapter, error) {
	var adapters []ocr.Adapter

	if url := viper.GetString("ocr.bankocr.url"); url != "" {
		adapter, err := ocr.NewAdapter(ocr.AdapterConfig{
			Engine:  ocr.EngineBankOCR,
			BaseURL: url,
			Timeout: viper.GetDuration("ocr.bankocr.timeout"),
		}, nil)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	if url := viper.GetString("ocr.tessdaemon.url"); url != "" {
		adapter, err := ocr.NewAdapter(ocr.AdapterConfig{
			Engine:  ocr.EngineTessdaemon,
			BaseURL: url,
			Timeout: viper.GetDuration("ocr.tessdaemon.timeout"),
		}, nil)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	if key := viper.GetString("ocr.vision.api_key"); key != "" {
		rpm := viper.GetInt("ocr.vision.requests_per_minute")
		limiter := ocr.NewRateLimiter(rpm)
		adapter, err := ocr.NewAdapter(ocr.AdapterConfig{
			Engine:  ocr.EngineVision,
			BaseURL: viper.GetString("ocr.vision.base_url"),
			APIKey:  key,
			Model:   viper.GetString("ocr.vision.model"),
			Timeout: viper.GetDuration("ocr.vision.timeout"),
		}, limiter)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no OCR engines configured: set ocr.bankocr.url, ocr.tessdaemon.url, or ocr.vision.api_key")
	}
	return adapters, nil
}

// buildPipeline wires the full verification stack from config.
func buildPipeline(store *storage.SQLiteStorage, logger *slog.Logger) (*pipeline.Pipeline, error) {
	adapters, err := buildAdapters()
	if err != nil {
		return nil, err
	}

	ocrCfg := ocr.DefaultConfig()
	if v := viper.GetFloat64("ocr.combined_threshold"); v > 0 {
		ocrCfg.CombinedThreshold = v
	}
	if v := viper.GetFloat64("ocr.medium_threshold"); v > 0 {
		ocrCfg.MediumThreshold = v
	}
	if v := viper.GetDuration("ocr.overall_timeout"); v > 0 {
		ocrCfg.OverallTimeout = v
	}

	orchestrator, err := ocr.NewOrchestrator(adapters, ocrCfg, logger)
	if err != nil {
		return nil, err
	}

	matchCfg := match.DefaultConfig()
	if v := viper.GetFloat64("match.strict_threshold"); v > 0 {
		matchCfg.StrictThreshold = v
	}
	if v := viper.GetFloat64("match.gpt_threshold"); v > 0 {
		matchCfg.GPTThreshold = v
	}
	matcher, err := match.NewMatcher(matchCfg)
	if err != nil {
		return nil, err
	}

	pipeCfg := pipeline.DefaultConfig()
	if v := viper.GetInt("pipeline.max_age_days"); v > 0 {
		pipeCfg.MaxAgeDays = v
	}
	if v := viper.GetString("pipeline.usd_to_khr_rate"); v != "" {
		rate, rateErr := decimal.NewFromString(v)
		if rateErr != nil {
			return nil, fmt.Errorf("invalid usd_to_khr_rate %q: %w", v, rateErr)
		}
		pipeCfg.USDToKHRRate = rate
	}

	return pipeline.New(orchestrator, matcher, store, store, pipeCfg, logger)
}

// sinceFlag parses a --since duration flag into an absolute time.
func sinceFlag(since time.Duration) *time.Time {
	if since <= 0 {
		return nil
	}
	t := time.Now().Add(-since)
	return &t
}
