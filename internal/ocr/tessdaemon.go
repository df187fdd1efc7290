package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chamnan-dev/slipguard/internal/common"
)

// tessdaemonAdapter wraps a local Tesseract sidecar exposing a plain-text
// OCR endpoint. It is the general-purpose engine: cheap, always available,
// weak on Khmer script.
type tessdaemonAdapter struct {
	httpClient *http.Client
	baseURL    string
	spec       AdapterSpec
}

// newTessdaemonAdapter creates the general local engine adapter.
func newTessdaemonAdapter(cfg AdapterConfig) (Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tessdaemon base URL is required: %w", common.ErrMissingConfig)
	}

	spec := cfg.spec()
	return &tessdaemonAdapter{
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

func (a *tessdaemonAdapter) Name() string      { return EngineTessdaemon }
func (a *tessdaemonAdapter) Spec() AdapterSpec { return a.spec }

// tessdaemonResponse is the sidecar's response shape.
type tessdaemonResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Extract sends the image to the sidecar and parses the returned text into
// structured fields.
func (a *tessdaemonAdapter) Extract(ctx context.Context, image []byte, _ Hints) (AdapterResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/ocr", bytes.NewReader(image))
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return AdapterResult{}, fmt.Errorf("tessdaemon request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AdapterResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return AdapterResult{}, &common.HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response tessdaemonResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return AdapterResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	record, parseScore := ParseText(response.Text, EngineTessdaemon)

	// The sidecar's character-level confidence and the field extraction
	// score measure different things; the blend penalizes clean text with
	// no extractable fields and noisy text alike.
	confidence := parseScore
	if response.Confidence > 0 {
		confidence = (response.Confidence + parseScore) / 2
	}

	return AdapterResult{
		Engine:        EngineTessdaemon,
		Record:        record,
		Text:          response.Text,
		Confidence:    confidence,
		Weight:        a.spec.Weight,
		MinConfidence: a.spec.MinConfidence,
	}, nil
}
