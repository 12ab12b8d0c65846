package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/curionest/curionest/pkg/config"
	"github.com/curionest/curionest/pkg/models"
)

const defaultTimeout = 8 * time.Second

// Result is the text and provider-reported usage of one completion call.
type Result struct {
	Text  string
	Usage models.Usage
}

// Client performs a single completion call against a text-generation
// provider. Calls are bounded by a hard timeout and are never retried; a
// timed-out call is abandoned and reported as a ProviderError.
type Client interface {
	Complete(ctx context.Context, systemInstruction, userContent string) (*Result, error)
}

// ProviderError reports a failed provider call: timeout, network failure,
// non-success status, or an unparseable response.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// OpenAIClient is a Client for an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	httpClient      *http.Client
	url             string
	apiKey          string
	model           string
	maxOutputTokens int
	timeout         time.Duration
}

// NewOpenAI creates an OpenAIClient from provider configuration.
func NewOpenAI(cfg config.ProviderConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIClient{
		httpClient:      &http.Client{},
		url:             cfg.URL,
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		timeout:         timeout,
	}
}

// Complete sends one chat completion request and returns the first choice
// with its usage. The call is bounded by the configured timeout even when
// the parent context has none.
func (c *OpenAIClient) Complete(ctx context.Context, systemInstruction, userContent string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := models.ChatCompletionRequest{
		Model: c.model,
		Messages: []models.ChatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userContent},
		},
		MaxTokens: c.maxOutputTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Op: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Op: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Op: "upstream status", Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 256))}
	}

	var chatResp models.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, &ProviderError{Op: "parse response", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &ProviderError{Op: "parse response", Err: fmt.Errorf("no choices returned")}
	}

	result := &Result{Text: chatResp.Choices[0].Message.Content}
	if chatResp.Usage != nil {
		result.Usage = *chatResp.Usage
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
