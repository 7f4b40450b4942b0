package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/ops-board/internal/model"
)

const apiKeyHeader = "x-goog-api-key"

// ErrMissingAPIKey is returned when no API key is available for a request.
var ErrMissingAPIKey = errors.New("no API key configured")

// ErrMalformedResponse is returned when the model answers with something
// that is not the requested JSON document.
var ErrMalformedResponse = errors.New("malformed model response")

// APIError is a non-200 answer from the model provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// GenerateRequest is a single generateContent call.
type GenerateRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
	// Schema, when set, asks for a JSON response matching it.
	Schema json.RawMessage
}

// Generator produces model text for a request. Client is the production
// implementation.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	baseURL string
	apiKey  func() string
	client  *http.Client
	log     zerolog.Logger
}

var _ Generator = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l.With().Str("component", "ai").Logger() }
}

// NewClient creates a client for cfg. apiKey is consulted on every request,
// so a key stored after startup is picked up without a restart.
func NewClient(cfg model.AIConfig, apiKey func() string, opts ...ClientOption) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs the call and returns the provider's raw JSON body. Non-200
// answers are returned as *APIError.
func (c *Client) Send(ctx context.Context, req GenerateRequest) ([]byte, error) {
	key := ""
	if c.apiKey != nil {
		key = c.apiKey()
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Model == "" {
		req.Model = model.DefaultModel
	}

	bodyBytes, err := json.Marshal(buildPayload(req))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, key)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling model API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug().
		Str("model", req.Model).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("generateContent")

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}

// Generate performs the call and returns the concatenated text of the first
// candidate.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := c.Send(ctx, req)
	if err != nil {
		return "", err
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}
	return sb.String(), nil
}

func buildPayload(req GenerateRequest) apiRequest {
	payload := apiRequest{
		Contents: []apiContent{{Parts: []apiPart{{Text: req.Prompt}}}},
		GenerationConfig: apiGenerationConfig{
			Temperature: 0,
		},
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = &apiContent{Parts: []apiPart{{Text: req.SystemInstruction}}}
	}
	if len(req.Schema) > 0 {
		payload.GenerationConfig.ResponseMimeType = "application/json"
		payload.GenerationConfig.ResponseSchema = req.Schema
	}
	return payload
}

// --- Gemini API types ---

type apiRequest struct {
	Contents          []apiContent        `json:"contents"`
	SystemInstruction *apiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  apiGenerationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type apiGenerationConfig struct {
	Temperature      float64         `json:"temperature"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type apiResponse struct {
	Candidates []struct {
		Content      apiContent `json:"content"`
		FinishReason string     `json:"finishReason"`
	} `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
