package match

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// Config holds the thresholds governing the matching cascade.
type Config struct {
	// StrictThreshold is the confidence at or above which a match is
	// accepted outright.
	StrictThreshold float64 `validate:"gt=0,lte=100"`
	// GPTThreshold is the confidence at or above which a candidate counts as
	// a match; scores between GPTThreshold and StrictThreshold must be
	// escalated for judgment rather than accepted.
	GPTThreshold float64 `validate:"gt=0,ltefield=StrictThreshold"`
	// MaxDistance is the largest edit distance the fuzzy rule accepts.
	MaxDistance int `validate:"gte=0"`
	// TokenSimilarity is the per-token similarity floor for the token rule.
	TokenSimilarity float64 `validate:"gt=0,lte=1"`
}

// DefaultConfig returns the default cascade thresholds.
func DefaultConfig() Config {
	return Config{
		StrictThreshold: 85,
		GPTThreshold:    70,
		MaxDistance:     2,
		TokenSimilarity: 0.8,
	}
}

// Per-rule acceptance thresholds. These belong to the rules themselves, not
// to the caller-facing strict/gpt gates.
const (
	tokenAcceptScore   = 85.0
	initialAcceptScore = 80.0
	aliasAcceptScore   = 80.0
)

// Matcher classifies whether an OCR-extracted recipient identity matches one
// or more expected identities.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a matcher, failing fast on invalid thresholds.
func NewMatcher(cfg Config) (*Matcher, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}
	return &Matcher{cfg: cfg}, nil
}

// Match runs the ordered rule cascade for the extracted name against every
// expected name. The first rule to clear its own acceptance threshold wins;
// each failed strategy is appended to the result's audit steps.
func (m *Matcher) Match(extracted string, expectedNames []string, aliases []model.AliasGroup) model.NameMatchResult {
	result := model.NameMatchResult{
		MatchType: model.MatchNone,
		Details: model.NameMatchDetails{
			ExtractedName: extracted,
			Steps:         []string{},
		},
	}

	if strings.TrimSpace(extracted) == "" || len(expectedNames) == 0 {
		result.Reason = "no extracted or expected name to compare"
		result.Details.Steps = append(result.Details.Steps, "skipped: empty input")
		return m.finalize(result)
	}

	type rule struct {
		apply func(extracted, expected string) (float64, bool)
		kind  model.MatchType
	}

	rules := []rule{
		{kind: model.MatchExact, apply: m.exactRule},
		{kind: model.MatchNormalized, apply: m.normalizedRule},
		{kind: model.MatchOCRCorrected, apply: m.ocrCorrectedRule},
		{kind: model.MatchToken, apply: m.tokenRule},
		{kind: model.MatchInitial, apply: m.initialRule},
		{kind: model.MatchFuzzy, apply: m.fuzzyRule},
	}

	for _, r := range rules {
		for _, expected := range expectedNames {
			confidence, ok := r.apply(extracted, expected)
			step := fmt.Sprintf("%s vs %q: %.0f", r.kind, expected, confidence)
			if !ok {
				result.Details.Steps = append(result.Details.Steps, step+" (below rule threshold)")
				continue
			}
			result.Details.Steps = append(result.Details.Steps, step+" (accepted)")
			result.MatchType = r.kind
			result.Confidence = confidence
			result.Reason = fmt.Sprintf("%s match against %q", r.kind, expected)
			result.Details.MatchedName = expected
			return m.finalize(result)
		}
	}

	// Tenant-specific aliases are the last resort before giving up.
	confidence, matched, aliasSteps := m.aliasRule(extracted, expectedNames, aliases)
	result.Details.Steps = append(result.Details.Steps, aliasSteps...)
	if matched != "" {
		result.MatchType = model.MatchAlias
		result.Confidence = confidence
		result.Reason = fmt.Sprintf("alias match against %q", matched)
		result.Details.MatchedName = matched
		return m.finalize(result)
	}

	result.Reason = "no matching strategy succeeded"
	result.Details.Steps = append(result.Details.Steps, "no_match")
	return m.finalize(result)
}

// finalize derives the caller-facing verdict from the raw confidence.
func (m *Matcher) finalize(result model.NameMatchResult) model.NameMatchResult {
	result.IsMatch = result.Confidence >= m.cfg.GPTThreshold
	result.RequiresGPTJudgment = result.IsMatch && result.Confidence < m.cfg.StrictThreshold
	return result
}

func (m *Matcher) exactRule(extracted, expected string) (float64, bool) {
	if strings.EqualFold(strings.TrimSpace(extracted), strings.TrimSpace(expected)) {
		return 100, true
	}
	return 0, false
}

func (m *Matcher) normalizedRule(extracted, expected string) (float64, bool) {
	a := Normalize(extracted)
	b := Normalize(expected)
	if a != "" && a == b {
		return 98, true
	}
	return 0, false
}

func (m *Matcher) ocrCorrectedRule(extracted, expected string) (float64, bool) {
	a := CanonicalizeOCR(Normalize(extracted))
	b := CanonicalizeOCR(Normalize(expected))
	if a != "" && a == b {
		return 95, true
	}
	return 0, false
}

// tokenRule scores the share of extracted tokens that find a sufficiently
// similar expected token, over the larger of the two token counts.
func (m *Matcher) tokenRule(extracted, expected string) (float64, bool) {
	extTokens := Tokenize(extracted)
	expTokens := Tokenize(expected)
	if len(extTokens) == 0 || len(expTokens) == 0 {
		return 0, false
	}

	matched := 0
	for _, et := range extTokens {
		best := 0.0
		for _, xt := range expTokens {
			if sim := Similarity(et, xt); sim > best {
				best = sim
			}
		}
		if best >= m.cfg.TokenSimilarity {
			matched++
		}
	}

	maxCount := len(extTokens)
	if len(expTokens) > maxCount {
		maxCount = len(expTokens)
	}

	score := float64(matched) / float64(maxCount) * 100
	return score, score >= tokenAcceptScore
}

// initialRule pairs tokens positionally and scores abbreviation patterns:
// identical tokens 100, a 1–2 character initial that prefixes its pair 90,
// any other one-sided prefix 70.
func (m *Matcher) initialRule(extracted, expected string) (float64, bool) {
	extTokens := Tokenize(extracted)
	expTokens := Tokenize(expected)
	if len(extTokens) == 0 || len(expTokens) == 0 {
		return 0, false
	}

	pairs := len(extTokens)
	if len(expTokens) < pairs {
		pairs = len(expTokens)
	}

	total := 0.0
	for i := 0; i < pairs; i++ {
		a, b := extTokens[i], expTokens[i]
		switch {
		case a == b:
			total += 100
		case isInitialOf(a, b) || isInitialOf(b, a):
			total += 90
		case strings.HasPrefix(b, a) || strings.HasPrefix(a, b):
			total += 70
		}
	}

	score := total / float64(pairs)
	return score, score >= initialAcceptScore
}

// isInitialOf reports whether short is a 1–2 character prefix of full.
func isInitialOf(short, full string) bool {
	n := len([]rune(short))
	return n >= 1 && n <= 2 && n < len([]rune(full)) && strings.HasPrefix(full, short)
}

func (m *Matcher) fuzzyRule(extracted, expected string) (float64, bool) {
	a := Normalize(extracted)
	b := Normalize(expected)
	if a == "" || b == "" {
		return 0, false
	}

	dist := levenshtein.ComputeDistance(a, b)
	if dist > m.cfg.MaxDistance {
		return 0, false
	}

	confidence := 90 - 10*float64(dist)
	if confidence < 70 {
		confidence = 70
	}
	return confidence, true
}

// aliasRule checks tenant-configured aliases for any expected name that is a
// configured primary. Each alias is scored exact → token → fuzzy-similarity;
// the first alias clearing the acceptance score wins.
func (m *Matcher) aliasRule(extracted string, expectedNames []string, aliases []model.AliasGroup) (float64, string, []string) {
	var steps []string

	for _, group := range aliases {
		primaryMatches := false
		for _, expected := range expectedNames {
			if Normalize(expected) == Normalize(group.Primary) {
				primaryMatches = true
				break
			}
		}
		if !primaryMatches {
			continue
		}

		for _, alias := range group.Aliases {
			var score float64
			switch {
			case strings.EqualFold(strings.TrimSpace(extracted), strings.TrimSpace(alias)):
				score = 95
			default:
				if tokenScore, ok := m.tokenRule(extracted, alias); ok {
					score = tokenScore
				} else {
					score = Similarity(Normalize(extracted), Normalize(alias)) * 100
				}
			}

			steps = append(steps, fmt.Sprintf("alias_match %q (primary %q): %.0f", alias, group.Primary, score))
			if score >= aliasAcceptScore {
				return score, alias, steps
			}
		}
	}

	return 0, "", steps
}
