package ocr

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamnan-dev/slipguard/internal/model"
)

var fusionCfg = FusionConfig{CombinedThreshold: 0.8, MediumThreshold: 0.5}

func result(engine string, confidence, weight, minConfidence float64, record model.OcrRecord) AdapterResult {
	record.Engine = engine
	return AdapterResult{
		Record:        record,
		Engine:        engine,
		Confidence:    confidence,
		Weight:        weight,
		MinConfidence: minConfidence,
	}
}

func TestFuseWeightedAverage(t *testing.T) {
	results := []AdapterResult{
		result(EngineBankOCR, 0.9, 1.2, 0.5, model.OcrRecord{RecipientName: "SOK DARA"}),
		result(EngineTessdaemon, 0.6, 1.0, 0.3, model.OcrRecord{}),
	}

	record, fused := Fuse(results, fusionCfg)

	// (0.9*1.2 + 0.6*1.0) / (1.2 + 1.0)
	assert.InDelta(t, 1.68/2.2, fused, 0.0001)
	assert.Equal(t, EngineBankOCR, record.Engine)
	assert.Equal(t, "SOK DARA", record.RecipientName)
	assert.Equal(t, model.ConfidenceMedium, record.Confidence)
}

func TestFuseIsCommutative(t *testing.T) {
	amount := decimal.NewFromInt(50000)
	base := []AdapterResult{
		result(EngineBankOCR, 0.85, 1.2, 0.5, model.OcrRecord{
			IsBankStatement: model.BoolPtr(true),
			Amount:          &amount,
			Currency:        model.CurrencyKHR,
			RecipientName:   "SOK DARA",
		}),
		result(EngineTessdaemon, 0.7, 1.0, 0.3, model.OcrRecord{
			TransactionID: "TXN42",
			BankName:      "ABA Bank",
		}),
		result(EngineVision, 0.92, 1.5, 0.4, model.OcrRecord{
			IsPaid:    model.BoolPtr(true),
			ToAccount: "000123456",
		}),
	}

	reference, referenceFused := Fuse(base, fusionCfg)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]AdapterResult, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		record, fused := Fuse(shuffled, fusionCfg)
		assert.InDelta(t, referenceFused, fused, 0.0001)
		assert.Equal(t, reference, record)
	}
}

func TestFuseBelowFloorExcluded(t *testing.T) {
	results := []AdapterResult{
		result(EngineBankOCR, 0.9, 1.2, 0.5, model.OcrRecord{}),
		// Below its own floor: contributes nothing to the average.
		result(EngineTessdaemon, 0.2, 1.0, 0.3, model.OcrRecord{}),
	}

	_, fused := Fuse(results, fusionCfg)
	assert.InDelta(t, 0.9, fused, 0.0001)
}

func TestFuseFillsMissingFieldsWithoutOverwriting(t *testing.T) {
	amount := decimal.NewFromInt(25)
	otherAmount := decimal.NewFromInt(99)
	results := []AdapterResult{
		result(EngineBankOCR, 0.9, 1.2, 0.5, model.OcrRecord{
			Amount:        &amount,
			Currency:      model.CurrencyUSD,
			RecipientName: "SOK DARA",
		}),
		result(EngineTessdaemon, 0.6, 1.0, 0.3, model.OcrRecord{
			Amount:             &otherAmount,
			Currency:           model.CurrencyKHR,
			RecipientName:      "WRONG NAME",
			TransactionID:      "TXN42",
			TransactionDateRaw: "2025-06-14 09:30:00",
		}),
	}

	record, _ := Fuse(results, fusionCfg)

	// Primary fields win; gaps are filled from the secondary.
	require.NotNil(t, record.Amount)
	assert.True(t, amount.Equal(*record.Amount))
	assert.Equal(t, model.CurrencyUSD, record.Currency)
	assert.Equal(t, "SOK DARA", record.RecipientName)
	assert.Equal(t, "TXN42", record.TransactionID)
	assert.Equal(t, "2025-06-14 09:30:00", record.TransactionDateRaw)
}

func TestFuseAllEnginesFailed(t *testing.T) {
	results := []AdapterResult{
		result(EngineBankOCR, 0, 1.2, 0.5, model.OcrRecord{}),
		result(EngineTessdaemon, 0, 1.0, 0.3, model.OcrRecord{}),
	}

	record, fused := Fuse(results, fusionCfg)
	assert.Equal(t, model.ConfidenceFailed, record.Confidence)
	assert.Zero(t, fused)
}

func TestFuseConfidenceBands(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       model.Confidence
	}{
		{name: "high band", confidence: 0.85, want: model.ConfidenceHigh},
		{name: "high boundary", confidence: 0.8, want: model.ConfidenceHigh},
		{name: "medium band", confidence: 0.6, want: model.ConfidenceMedium},
		{name: "low band", confidence: 0.4, want: model.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := []AdapterResult{
				result(EngineBankOCR, tt.confidence, 1.0, 0.1, model.OcrRecord{}),
			}
			record, _ := Fuse(results, fusionCfg)
			assert.Equal(t, tt.want, record.Confidence)
		})
	}
}
