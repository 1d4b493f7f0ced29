package xai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"grokmcp/internal/model"
)

const (
	DefaultBaseURL     = "https://api.x.ai"
	DefaultVisionModel = "grok-2-vision-1212"
	DefaultTextModel   = "grok-2-1212"

	completionsPath = "/v1/chat/completions"
)

// Client talks to the xAI chat-completions endpoint. One synchronous POST
// per Complete call; no retries, no streaming. No request timeout is set on
// the default client so the host's context controls cancellation.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     strings.TrimSpace(apiKey),
		HTTPClient: &http.Client{},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs the chat-completion round trip and returns the first
// choice's message text. Array-shaped content is flattened by joining its
// text parts with newlines.
func (c *Client) Complete(ctx context.Context, req model.ChatRequest) (string, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return "", &model.ProviderError{
			Code:      "XAI_AUTH",
			Message:   "missing xAI API key",
			Retryable: false,
		}
	}
	if len(req.Messages) == 0 {
		return "", &model.ProviderError{
			Code:      "XAI_FAILED",
			Message:   "chat request has no messages",
			Retryable: false,
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", &model.ProviderError{Code: "XAI_FAILED", Message: "failed to marshal chat request", Retryable: false, Cause: err}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", &model.ProviderError{Code: "XAI_FAILED", Message: "failed to build chat request", Retryable: false, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return "", &model.ProviderError{Code: "XAI_FAILED", Message: "chat request failed: " + err.Error(), Retryable: true, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &model.ProviderError{Code: "XAI_FAILED", Message: "failed to read chat response", Retryable: true, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = fmt.Sprintf("xai returned status %d", resp.StatusCode)
		}
		return "", mapProviderError(resp.StatusCode, message)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &model.ProviderError{Code: "XAI_FAILED", Message: "failed to decode chat response", Retryable: false, Cause: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &model.ProviderError{Code: "XAI_FAILED", Message: "chat response had no choices", Retryable: false}
	}

	text, err := flattenContent(parsed.Choices[0].Message.Content)
	if err != nil {
		return "", &model.ProviderError{Code: "XAI_FAILED", Message: "chat response had no message content", Retryable: false, Cause: err}
	}
	return text, nil
}

// flattenContent accepts a bare string or an array of {type,text} parts.
func flattenContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("content missing")
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	var asParts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &asParts); err != nil {
		return "", fmt.Errorf("unsupported content shape: %w", err)
	}
	lines := make([]string, 0, len(asParts))
	for _, part := range asParts {
		if strings.TrimSpace(part.Text) == "" {
			continue
		}
		lines = append(lines, part.Text)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("content had no text parts")
	}
	return strings.Join(lines, "\n"), nil
}

func mapProviderError(statusCode int, message string) error {
	pe := &model.ProviderError{
		Code:       "XAI_FAILED",
		Message:    message,
		Retryable:  false,
		StatusCode: statusCode,
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		pe.Code = "XAI_AUTH"
		pe.Retryable = false
	case statusCode == http.StatusTooManyRequests:
		pe.Code = "XAI_RATE_LIMIT"
		pe.Retryable = true
	case statusCode >= http.StatusInternalServerError:
		pe.Retryable = true
	case statusCode >= http.StatusBadRequest:
		pe.Retryable = false
	default:
		pe.Retryable = true
	}

	return pe
}
