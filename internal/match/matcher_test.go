package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamnan-dev/slipguard/internal/model"
)

func TestNewMatcherValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "default config is valid",
			cfg:  DefaultConfig(),
		},
		{
			name: "gpt threshold above strict threshold",
			cfg: Config{
				StrictThreshold: 70,
				GPTThreshold:    85,
				MaxDistance:     2,
				TokenSimilarity: 0.8,
			},
			wantErr: true,
		},
		{
			name:    "zero thresholds",
			cfg:     Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatcher(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchCascade(t *testing.T) {
	matcher, err := NewMatcher(DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name           string
		extracted      string
		expected       []string
		aliases        []model.AliasGroup
		wantType       model.MatchType
		wantConfidence float64
		wantMatch      bool
		wantJudgment   bool
	}{
		{
			name:           "identical name matches exactly",
			extracted:      "JOHN SMITH",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchExact,
			wantConfidence: 100,
			wantMatch:      true,
		},
		{
			name:           "case and spacing differences match exactly",
			extracted:      "  john smith ",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchExact,
			wantConfidence: 100,
			wantMatch:      true,
		},
		{
			name:           "punctuation stripped by normalization",
			extracted:      "JOHN. SMITH",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchNormalized,
			wantConfidence: 98,
			wantMatch:      true,
		},
		{
			name:           "digit-for-letter OCR confusion",
			extracted:      "JOHN SM1TH",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchOCRCorrected,
			wantConfidence: 95,
			wantMatch:      true,
		},
		{
			name:           "one-for-L OCR confusion",
			extracted:      "1IM SOK",
			expected:       []string{"LIM SOK"},
			wantType:       model.MatchOCRCorrected,
			wantConfidence: 95,
			wantMatch:      true,
		},
		{
			name:           "reordered tokens match by token rule",
			extracted:      "SMITH JOHN",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchToken,
			wantConfidence: 100,
			wantMatch:      true,
		},
		{
			name:           "abbreviated first name matches by initial rule",
			extracted:      "J. SMITH",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchInitial,
			wantConfidence: 95,
			wantMatch:      true,
		},
		{
			name:           "missing space recovered by fuzzy rule",
			extracted:      "JOHNSMITH",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchFuzzy,
			wantConfidence: 80,
			wantMatch:      true,
			wantJudgment:   true,
		},
		{
			name:      "configured alias matches",
			extracted: "JS TRADING",
			expected:  []string{"JOHN SMITH"},
			aliases: []model.AliasGroup{
				{Primary: "JOHN SMITH", Aliases: []string{"JS TRADING"}},
			},
			wantType:       model.MatchAlias,
			wantConfidence: 95,
			wantMatch:      true,
		},
		{
			name:      "alias for a different primary is ignored",
			extracted: "JS TRADING",
			expected:  []string{"JOHN SMITH"},
			aliases: []model.AliasGroup{
				{Primary: "SOMEONE ELSE", Aliases: []string{"JS TRADING"}},
			},
			wantType:       model.MatchNone,
			wantConfidence: 0,
		},
		{
			name:           "unrelated name does not match",
			extracted:      "SOMCHAI LEE",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchNone,
			wantConfidence: 0,
		},
		{
			name:           "empty extracted name does not match",
			extracted:      "   ",
			expected:       []string{"JOHN SMITH"},
			wantType:       model.MatchNone,
			wantConfidence: 0,
		},
		{
			name:           "second expected name can match",
			extracted:      "DARA CHAN",
			expected:       []string{"JOHN SMITH", "DARA CHAN"},
			wantType:       model.MatchExact,
			wantConfidence: 100,
			wantMatch:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matcher.Match(tt.extracted, tt.expected, tt.aliases)

			assert.Equal(t, tt.wantType, result.MatchType)
			assert.InDelta(t, tt.wantConfidence, result.Confidence, 0.01)
			assert.Equal(t, tt.wantMatch, result.IsMatch)
			assert.Equal(t, tt.wantJudgment, result.RequiresGPTJudgment)
			assert.NotEmpty(t, result.Details.Steps, "every attempt must leave an audit step")
		})
	}
}

func TestMatchIsReflexive(t *testing.T) {
	matcher, err := NewMatcher(DefaultConfig())
	require.NoError(t, err)

	names := []string{"JOHN SMITH", "ចាន់ ដារា", "MARIA DE LA CRUZ", "A"}
	for _, name := range names {
		result := matcher.Match(name, []string{name}, nil)
		assert.Equal(t, model.MatchExact, result.MatchType, "name %q must match itself", name)
		assert.InDelta(t, 100.0, result.Confidence, 0.01)
		assert.True(t, result.IsMatch)
		assert.False(t, result.RequiresGPTJudgment)
	}
}

func TestMatchRecordsFailedStrategies(t *testing.T) {
	matcher, err := NewMatcher(DefaultConfig())
	require.NoError(t, err)

	result := matcher.Match("SOMCHAI LEE", []string{"JOHN SMITH"}, nil)
	require.False(t, result.IsMatch)

	// Every cascade rule ran and was recorded before the final no_match.
	assert.GreaterOrEqual(t, len(result.Details.Steps), 6)
	assert.Equal(t, "no_match", result.Details.Steps[len(result.Details.Steps)-1])
}

func TestMatchBorderlineRequiresJudgment(t *testing.T) {
	matcher, err := NewMatcher(DefaultConfig())
	require.NoError(t, err)

	// Edit distance 1 on the collapsed name scores 80: above the match floor,
	// below the strict acceptance line.
	result := matcher.Match("JOHNSMITH", []string{"JOHN SMITH"}, nil)
	assert.True(t, result.IsMatch)
	assert.True(t, result.RequiresGPTJudgment)
	assert.GreaterOrEqual(t, result.Confidence, 70.0)
	assert.Less(t, result.Confidence, 85.0)
}
