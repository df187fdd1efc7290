package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chamnan-dev/slipguard/internal/common"
	"github.com/chamnan-dev/slipguard/internal/model"
)

// bankocrAdapter wraps the template-aware structured extraction service. It
// knows the layouts of the supported banks' receipt screens and returns
// structured fields directly, so it is preferred whenever the bank is known.
type bankocrAdapter struct {
	httpClient *http.Client
	baseURL    string
	spec       AdapterSpec
}

// newBankOCRAdapter creates the structured local engine adapter.
func newBankOCRAdapter(cfg AdapterConfig) (Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("bankocr base URL is required: %w", common.ErrMissingConfig)
	}

	spec := cfg.spec()
	spec.Structured = true
	return &bankocrAdapter{
		baseURL: cfg.BaseURL,
		spec:    spec,
		httpClient: &http.Client{
			Timeout: spec.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

func (a *bankocrAdapter) Name() string      { return EngineBankOCR }
func (a *bankocrAdapter) Spec() AdapterSpec { return a.spec }

// bankocrResponse is the structured service's response shape.
type bankocrResponse struct {
	IsBankStatement *bool   `json:"is_bank_statement"`
	IsPaid          *bool   `json:"is_paid"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	TransactionID   string  `json:"transaction_id"`
	ReferenceNumber string  `json:"reference_number"`
	FromAccount     string  `json:"from_account"`
	ToAccount       string  `json:"to_account"`
	RecipientName   string  `json:"recipient_name"`
	BankName        string  `json:"bank_name"`
	TransactionDate string  `json:"transaction_date"`
	RawText         string  `json:"raw_text"`
	Confidence      float64 `json:"confidence"`
}

// Extract posts the image and bank hint to the structured service and maps
// its fields onto an OcrRecord.
func (a *bankocrAdapter) Extract(ctx context.Context, image []byte, hints Hints) (AdapterResult, error) {
	payload, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(image),
		"bank":  hints.Bank,
	})
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return AdapterResult{}, fmt.Errorf("bankocr request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return AdapterResult{}, &common.HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response bankocrResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return AdapterResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	record := mapStructuredFields(structuredFields(response), EngineBankOCR)

	return AdapterResult{
		Engine:        EngineBankOCR,
		Record:        record,
		Text:          response.RawText,
		Confidence:    response.Confidence,
		Weight:        a.spec.Weight,
		MinConfidence: a.spec.MinConfidence,
	}, nil
}

// structuredFields is the engine-agnostic shape shared by the structured
// local service and the hosted vision engine.
type structuredFields struct {
	IsBankStatement *bool
	IsPaid          *bool
	Amount          string
	Currency        string
	TransactionID   string
	ReferenceNumber string
	FromAccount     string
	ToAccount       string
	RecipientName   string
	BankName        string
	TransactionDate string
	RawText         string
	Confidence      float64
}

// mapStructuredFields converts an engine's structured response into an
// OcrRecord, normalizing the amount to a positive magnitude.
func mapStructuredFields(f structuredFields, engine string) model.OcrRecord {
	record := model.OcrRecord{
		IsBankStatement:    f.IsBankStatement,
		IsPaid:             f.IsPaid,
		TransactionID:      f.TransactionID,
		ReferenceNumber:    f.ReferenceNumber,
		FromAccount:        f.FromAccount,
		ToAccount:          f.ToAccount,
		RecipientName:      f.RecipientName,
		BankName:           f.BankName,
		TransactionDateRaw: f.TransactionDate,
		RawText:            f.RawText,
		Engine:             engine,
	}

	if f.Amount != "" {
		if d, err := decimal.NewFromString(f.Amount); err == nil {
			normalized := model.NormalizeAmount(d)
			record.Amount = &normalized
		}
	}
	switch f.Currency {
	case "USD", "$":
		record.Currency = model.CurrencyUSD
	case "KHR", "៛":
		record.Currency = model.CurrencyKHR
	}

	record.Confidence = discreteConfidence(f.Confidence)
	return record
}
