package ocr

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// Field extraction patterns shared by the text-based adapters. The
// structured engine returns fields directly and bypasses these.
var (
	labeledAmount = regexp.MustCompile(`(?im)^.*?(?:amount|total|paid)\s*[:=]?\s*(-?[៛$]?\s*-?[\d,]+(?:\.\d{1,2})?)\s*(KHR|USD|៛|\$)?`)
	markedAmount  = regexp.MustCompile(`(-?)\s*(៛|\$|KHR|USD)\s*(-?[\d,]+(?:\.\d{1,2})?)`)
	trailingCurr  = regexp.MustCompile(`(-?[\d,]+(?:\.\d{1,2})?)\s*(KHR|USD|៛)`)

	transactionID = regexp.MustCompile(`(?i)(?:trx\.?|txn\.?|transaction)\s*(?:id|no\.?|#)?\s*[:.]?\s*([A-Z0-9]{6,})`)
	referenceNo   = regexp.MustCompile(`(?i)ref(?:erence)?\s*(?:no\.?|number|id|#)?\s*[:.]?\s*([A-Za-z0-9-]{4,})`)

	toAccountNo   = regexp.MustCompile(`(?i)(?:to|beneficiary|credit)\s*(?:account|a/c)\s*(?:no\.?|number)?\s*[:.]?\s*(\d[\d\s-]{4,}\d)`)
	fromAccountNo = regexp.MustCompile(`(?i)(?:from|debit)\s*(?:account|a/c)\s*(?:no\.?|number)?\s*[:.]?\s*(\d[\d\s-]{4,}\d)`)
	anyAccountNo  = regexp.MustCompile(`(?i)(?:account|a/c)\s*(?:no\.?|number)?\s*[:.]?\s*(\d[\d\s-]{4,}\d)`)

	recipientLine = regexp.MustCompile(`(?im)^\s*(?:paid to|transfer(?:red)? to|received by|to)\s*[:.]?\s*([\p{L}][\p{L}\d .]{1,60})$`)

	dateLine = regexp.MustCompile(`(?im)((?:\d{4}-\d{2}-\d{2}[T ]?\d{0,2}:?\d{0,2}:?\d{0,2})|(?:\d{1,2}[/-]\d{1,2}[/-]\d{2,4}(?:\D{0,3}\d{1,2}:\d{2})?)|(?:[០-៩]{1,2}\s*\S*\s*[០-៩]{2,4}.*)|(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}(?:\s+\d{1,2}:\d{2}(?:\s*[AP]M)?)?))`)

	paidMarkers = []string{"success", "successful", "completed", "paid", "payment complete", "transfer complete", "ជោគជ័យ"}

	statementMarkers = []string{"transaction", "transfer", "payment", "amount", "account", "balance", "reference", "trx", "received"}
)

// bankKeywords maps lowercase markers found in screenshot text to canonical
// bank names. Ordered so detection is deterministic when several markers
// appear.
var bankKeywords = []struct {
	keyword string
	bank    string
}{
	{"aba", "ABA"},
	{"acleda", "ACLEDA"},
	{"wing", "Wing"},
	{"truemoney", "TrueMoney"},
	{"true money", "TrueMoney"},
	{"canadia", "Canadia"},
	{"sathapana", "Sathapana"},
	{"vattanac", "Vattanac"},
	{"prince", "Prince Bank"},
}

// ParseText extracts structured payment fields from raw OCR text and returns
// the record together with a 0–1 extraction confidence derived from how many
// key fields were found.
func ParseText(raw, engine string) (model.OcrRecord, float64) {
	record := model.OcrRecord{
		RawText: raw,
		Engine:  engine,
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		record.Confidence = model.ConfidenceLow
		return record, 0
	}

	score := 0.0

	if amount, currency, ok := parseAmount(text); ok {
		normalized := model.NormalizeAmount(amount)
		record.Amount = &normalized
		record.Currency = currency
		score += 0.25
	}

	if m := transactionID.FindStringSubmatch(text); m != nil {
		record.TransactionID = m[1]
		score += 0.15
	}
	if m := referenceNo.FindStringSubmatch(text); m != nil && record.TransactionID != m[1] {
		record.ReferenceNumber = m[1]
		score += 0.05
	}

	if m := toAccountNo.FindStringSubmatch(text); m != nil {
		record.ToAccount = strings.TrimSpace(m[1])
		score += 0.15
	} else if m := anyAccountNo.FindStringSubmatch(text); m != nil {
		record.ToAccount = strings.TrimSpace(m[1])
		score += 0.10
	}
	if m := fromAccountNo.FindStringSubmatch(text); m != nil {
		record.FromAccount = strings.TrimSpace(m[1])
	}

	if m := recipientLine.FindStringSubmatch(text); m != nil {
		record.RecipientName = strings.TrimSpace(m[1])
		score += 0.15
	}

	if bank := detectBankInText(text); bank != "" {
		record.BankName = bank
		score += 0.10
	}

	if m := dateLine.FindStringSubmatch(text); m != nil {
		record.TransactionDateRaw = strings.TrimSpace(m[1])
		score += 0.10
	}

	lower := strings.ToLower(text)
	for _, marker := range paidMarkers {
		if strings.Contains(lower, marker) {
			record.IsPaid = model.BoolPtr(true)
			score += 0.10
			break
		}
	}

	record.IsBankStatement = classifyStatement(lower)

	if score > 0.95 {
		score = 0.95
	}
	record.Confidence = discreteConfidence(score)
	return record, score
}

// classifyStatement decides the tri-state bank-statement flag from marker
// density: two or more markers is a statement, none at all is not, anything
// in between stays unknown.
func classifyStatement(lower string) *bool {
	found := 0
	for _, marker := range statementMarkers {
		if strings.Contains(lower, marker) {
			found++
		}
	}
	switch {
	case found >= 2:
		return model.BoolPtr(true)
	case found == 0:
		return model.BoolPtr(false)
	default:
		return nil
	}
}

func parseAmount(text string) (decimal.Decimal, model.Currency, bool) {
	if m := labeledAmount.FindStringSubmatch(text); m != nil {
		numeric := strings.NewReplacer(",", "", "$", "", "៛", "", " ", "").Replace(m[1])
		if d, err := decimal.NewFromString(numeric); err == nil {
			return d, currencyForSymbol(m[2], m[1]), true
		}
	}
	if m := markedAmount.FindStringSubmatch(text); m != nil {
		numeric := strings.ReplaceAll(m[1]+m[3], ",", "")
		if d, err := decimal.NewFromString(numeric); err == nil {
			return d, currencyForSymbol(m[2], ""), true
		}
	}
	if m := trailingCurr.FindStringSubmatch(text); m != nil {
		numeric := strings.ReplaceAll(m[1], ",", "")
		if d, err := decimal.NewFromString(numeric); err == nil {
			return d, currencyForSymbol(m[2], ""), true
		}
	}
	return decimal.Zero, "", false
}

func currencyForSymbol(symbol, rawAmount string) model.Currency {
	switch symbol {
	case "$", "USD":
		return model.CurrencyUSD
	case "៛", "KHR":
		return model.CurrencyKHR
	}
	if strings.Contains(rawAmount, "$") {
		return model.CurrencyUSD
	}
	// KHR is the default for unmarked amounts in the target market.
	return model.CurrencyKHR
}

func detectBankInText(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range bankKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.bank
		}
	}
	return ""
}

// discreteConfidence maps a 0–1 extraction score onto the record's discrete
// confidence classification.
func discreteConfidence(score float64) model.Confidence {
	switch {
	case score >= 0.8:
		return model.ConfidenceHigh
	case score >= 0.5:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
