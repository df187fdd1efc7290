package ocr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamnan-dev/slipguard/internal/model"
)

const sampleSlip = `ABA Bank
Transfer Successful
Amount: 50,000 KHR
Trx. ID: 100200300
Ref No: REF-0042
To Account: 000 123 456
Paid to: SOK DARA
2025-06-14 09:30:00`

func TestParseTextFullSlip(t *testing.T) {
	record, score := ParseText(sampleSlip, EngineTessdaemon)

	require.NotNil(t, record.Amount)
	assert.True(t, decimal.NewFromInt(50000).Equal(*record.Amount))
	assert.Equal(t, model.CurrencyKHR, record.Currency)
	assert.Equal(t, "100200300", record.TransactionID)
	assert.Equal(t, "REF-0042", record.ReferenceNumber)
	assert.Equal(t, "000 123 456", record.ToAccount)
	assert.Equal(t, "SOK DARA", record.RecipientName)
	assert.Equal(t, "ABA", record.BankName)
	assert.Equal(t, "2025-06-14 09:30:00", record.TransactionDateRaw)

	require.NotNil(t, record.IsPaid)
	assert.True(t, *record.IsPaid)
	require.NotNil(t, record.IsBankStatement)
	assert.True(t, *record.IsBankStatement)

	assert.InDelta(t, 0.95, score, 0.0001, "score is capped")
	assert.Equal(t, model.ConfidenceHigh, record.Confidence)
	assert.Equal(t, EngineTessdaemon, record.Engine)
}

func TestParseTextAmounts(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantAmount   string
		wantCurrency model.Currency
	}{
		{name: "labeled khr", text: "Amount: 50,000 KHR", wantAmount: "50000", wantCurrency: model.CurrencyKHR},
		{name: "dollar symbol", text: "you sent $12.50 today", wantAmount: "12.5", wantCurrency: model.CurrencyUSD},
		{name: "riel symbol", text: "៛8,000 transferred", wantAmount: "8000", wantCurrency: model.CurrencyKHR},
		{name: "trailing currency", text: "total 4000 KHR", wantAmount: "4000", wantCurrency: model.CurrencyKHR},
		{name: "negative sign stripped", text: "Amount: -25,000 KHR", wantAmount: "25000", wantCurrency: model.CurrencyKHR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, _ := ParseText(tt.text, EngineTessdaemon)
			require.NotNil(t, record.Amount, "no amount parsed from %q", tt.text)
			want, err := decimal.NewFromString(tt.wantAmount)
			require.NoError(t, err)
			assert.True(t, want.Equal(*record.Amount), "want %s, got %s", want, record.Amount)
			assert.Equal(t, tt.wantCurrency, record.Currency)
		})
	}
}

func TestParseTextNonStatement(t *testing.T) {
	record, score := ParseText("a photo of a cat", EngineTessdaemon)

	require.NotNil(t, record.IsBankStatement)
	assert.False(t, *record.IsBankStatement)
	assert.Equal(t, model.ConfidenceLow, record.Confidence)
	assert.Zero(t, score)
}

func TestParseTextEmpty(t *testing.T) {
	record, score := ParseText("   ", EngineTessdaemon)
	assert.Equal(t, model.ConfidenceLow, record.Confidence)
	assert.Zero(t, score)
}

func TestClassifyStatementTriState(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *bool
	}{
		{name: "dense markers", text: "transaction amount account", want: model.BoolPtr(true)},
		{name: "no markers", text: "good morning", want: model.BoolPtr(false)},
		{name: "single marker is unknown", text: "amount only", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStatement(tt.text)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestDetectBank(t *testing.T) {
	tests := []struct {
		name           string
		hint           string
		wantBank       string
		wantConfidence float64
	}{
		{name: "exact keyword", hint: "aba", wantBank: "ABA", wantConfidence: 0.95},
		{name: "case insensitive", hint: "ACLEDA", wantBank: "ACLEDA", wantConfidence: 0.95},
		{name: "keyword inside longer hint", hint: "aba bank cambodia", wantBank: "ABA", wantConfidence: 0.6},
		{name: "unknown bank forwarded", hint: "Some Rural Bank", wantBank: "Some Rural Bank", wantConfidence: 0.3},
		{name: "empty hint", hint: "", wantBank: "", wantConfidence: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectBank(tt.hint)
			assert.Equal(t, tt.wantBank, got.Bank)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 0.0001)
		})
	}
}

func TestValidateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	assert.NoError(t, ValidateImage(png))
	assert.NoError(t, ValidateImage(jpeg))
	assert.Error(t, ValidateImage(nil))
	assert.Error(t, ValidateImage([]byte("plain text, not an image")))
}

func TestDetectScriptMix(t *testing.T) {
	latin := DetectScriptMix("Transfer Successful")
	assert.False(t, latin.KhmerDominant())

	khmer := DetectScriptMix("ការផ្ទេរប្រាក់ជោគជ័យ")
	assert.True(t, khmer.KhmerDominant())

	empty := DetectScriptMix("12345 :- ")
	assert.False(t, empty.KhmerDominant())
	assert.Zero(t, empty.Letters)
}
