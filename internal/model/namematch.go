package model

// MatchType identifies which rule of the name-matching cascade accepted a
// candidate.
type MatchType string

// Match types, in cascade order.
const (
	MatchExact        MatchType = "exact"
	MatchNormalized   MatchType = "normalized"
	MatchOCRCorrected MatchType = "ocr_corrected"
	MatchToken        MatchType = "token_match"
	MatchInitial      MatchType = "initial_match"
	MatchFuzzy        MatchType = "fuzzy"
	MatchAlias        MatchType = "alias_match"
	MatchNone         MatchType = "no_match"
)

// NameMatchDetails is the audit trail of matching strategies attempted, in
// order.
type NameMatchDetails struct {
	Steps         []string `json:"steps"`
	ExtractedName string   `json:"extractedName,omitempty"`
	MatchedName   string   `json:"matchedName,omitempty"`
}

// NameMatchResult is the NameMatcher's graded verdict for one extracted name
// against the expected identities.
type NameMatchResult struct {
	MatchType  MatchType        `json:"matchType"`
	Reason     string           `json:"reason"`
	Details    NameMatchDetails `json:"details"`
	Confidence float64          `json:"confidence"`
	IsMatch    bool             `json:"isMatch"`
	// RequiresGPTJudgment flags a borderline score the caller must escalate
	// rather than accept or reject outright.
	RequiresGPTJudgment bool `json:"requiresGPTJudgment"`
}
