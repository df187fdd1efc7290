package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chamnan-dev/slipguard/internal/common"
	"github.com/chamnan-dev/slipguard/internal/service"
)

// visionAdapter wraps the hosted vision-language engine. It is the most
// expensive backend: every call passes through the shared sliding-window
// rate limiter, and transient failures are retried before the result is
// degraded to a stub.
type visionAdapter struct {
	httpClient *http.Client
	limiter    *RateLimiter
	baseURL    string
	apiKey     string
	model      string
	retryOpts  service.RetryOptions
	spec       AdapterSpec
}

const defaultVisionModel = "gpt-4o-mini"

// newVisionAdapter creates the hosted engine adapter.
func newVisionAdapter(cfg AdapterConfig, limiter *RateLimiter) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision API key is required: %w", common.ErrMissingConfig)
	}
	if limiter == nil {
		return nil, fmt.Errorf("vision adapter requires a shared rate limiter: %w", common.ErrMissingConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	visionModel := cfg.Model
	if visionModel == "" {
		visionModel = defaultVisionModel
	}

	spec := cfg.spec()
	spec.Hosted = true
	return &visionAdapter{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   visionModel,
		limiter: limiter,
		spec:    spec,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     15 * time.Second,
			Multiplier:   2.0,
		},
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

func (a *visionAdapter) Name() string      { return EngineVision }
func (a *visionAdapter) Spec() AdapterSpec { return a.spec }

const visionSystemPrompt = "You are a bank receipt extraction engine. " +
	"Given a payment screenshot, respond ONLY with a JSON object with these keys: " +
	"is_bank_statement (bool), is_paid (bool), amount (string), currency (KHR or USD), " +
	"transaction_id, reference_number, from_account, to_account, recipient_name, " +
	"bank_name, transaction_date (as printed, keep Khmer numerals), raw_text, " +
	"confidence (0-1). Use null for fields you cannot read."

// Extract sends the image through the chat-completions vision API. Earlier
// engines' text is attached as hints so the model resolves ambiguous glyphs
// against something instead of guessing.
func (a *visionAdapter) Extract(ctx context.Context, image []byte, hints Hints) (AdapterResult, error) {
	if err := a.limiter.WaitForSlot(ctx); err != nil {
		return AdapterResult{}, fmt.Errorf("rate limit error: %w", err)
	}

	prompt := "Extract the payment details from this screenshot."
	if hints.Bank != "" {
		prompt += fmt.Sprintf(" The issuing bank is likely %s.", hints.Bank)
	}
	if len(hints.Texts) > 0 {
		prompt += "\n\nLower-confidence OCR engines read the following text; use it to disambiguate:\n" +
			strings.Join(hints.Texts, "\n---\n")
	}

	requestBody := map[string]any{
		"model":       a.model,
		"temperature": 0,
		"messages": []map[string]any{
			{"role": "system", "content": visionSystemPrompt},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
						},
					},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result AdapterResult
	err = common.WithRetry(ctx, func() error {
		parsed, callErr := a.call(ctx, jsonBody)
		if callErr != nil {
			return callErr
		}
		result = parsed
		return nil
	}, a.retryOpts)
	if err != nil {
		return AdapterResult{}, err
	}

	return result, nil
}

// visionResponse is the chat-completions response envelope.
type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *visionAdapter) call(ctx context.Context, jsonBody []byte) (AdapterResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return AdapterResult{}, fmt.Errorf("vision request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return AdapterResult{}, &common.HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope visionResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return AdapterResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return AdapterResult{}, fmt.Errorf("no content in response")
	}

	content := cleanMarkdownWrapper(envelope.Choices[0].Message.Content)

	var fields struct {
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
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return AdapterResult{}, fmt.Errorf("failed to parse JSON content: %w", err)
	}

	record := mapStructuredFields(structuredFields(fields), EngineVision)

	return AdapterResult{
		Engine:        EngineVision,
		Record:        record,
		Text:          fields.RawText,
		Confidence:    fields.Confidence,
		Weight:        a.spec.Weight,
		MinConfidence: a.spec.MinConfidence,
	}, nil
}

// cleanMarkdownWrapper strips a ```json fence the model sometimes wraps
// around its output despite instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
