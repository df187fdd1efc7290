package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		input decimal.Decimal
		want  decimal.Decimal
	}{
		{name: "positive unchanged", input: decimal.NewFromInt(50000), want: decimal.NewFromInt(50000)},
		{name: "negative debit flipped", input: decimal.NewFromInt(-50000), want: decimal.NewFromInt(50000)},
		{name: "zero stays zero", input: decimal.Zero, want: decimal.Zero},
		{name: "fractional sign stripped", input: decimal.NewFromFloat(-12.20), want: decimal.NewFromFloat(12.20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmount(tt.input)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.False(t, got.IsNegative())

			// Normalizing an already-normalized amount changes nothing.
			assert.True(t, got.Equal(NormalizeAmount(got)))
		})
	}
}

func TestBoolPtr(t *testing.T) {
	p := BoolPtr(true)
	assert.NotNil(t, p)
	assert.True(t, *p)

	q := BoolPtr(false)
	assert.False(t, *q)
	assert.NotSame(t, p, q)
}
