// Package anthropic implements chronologue.InferenceBackend on the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/chronologue"
)

// Compile-time interface verification.
var _ chronologue.InferenceBackend = (*Backend)(nil)

// DefaultModel is the default Claude model for scene time inference.
const DefaultModel = "claude-sonnet-4-5"

// DefaultMaxTokens is the output budget used when a request sets none.
const DefaultMaxTokens = 4096

// DefaultTimeout is the default timeout for a single inference call.
const DefaultTimeout = 60 * time.Second

// MessageClient abstracts the Messages service for testing.
type MessageClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// NewMessageClient returns the Messages service of a client authenticated
// with apiKey.
func NewMessageClient(apiKey string) MessageClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &client.Messages
}

// Backend implements chronologue.InferenceBackend using Claude.
type Backend struct {
	client  MessageClient
	model   string
	timeout time.Duration
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithTimeout sets the timeout for API calls.
func WithTimeout(d time.Duration) BackendOption {
	return func(b *Backend) {
		b.timeout = d
	}
}

// NewBackend creates a new Backend.
func NewBackend(client MessageClient, model string, opts ...BackendOption) *Backend {
	b := &Backend{client: client, model: model, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Infer sends a completion request to Claude. The Messages API has no
// response schema parameter, so the schema is appended to the system
// prompt.
func (b *Backend) Infer(ctx context.Context, req chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	system, err := systemPrompt(req)
	if err != nil {
		return nil, err
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}

	message, err := b.client.New(ctx, params)
	if err != nil {
		return nil, wrapAPIError(err)
	}
	if message == nil {
		return nil, fmt.Errorf("anthropic: returned nil response")
	}

	for _, block := range message.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: block.Text}, nil
		}
	}
	return &chronologue.InferenceResponse{Status: chronologue.StatusFailure}, nil
}

func systemPrompt(req chronologue.InferenceRequest) (string, error) {
	if req.Schema == nil {
		return req.Instructions, nil
	}
	schema, err := json.MarshalIndent(req.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("anthropic: encode schema: %w", err)
	}
	var sb strings.Builder
	if req.Instructions != "" {
		sb.WriteString(req.Instructions)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Respond with a single JSON object and nothing else. It must match this JSON schema:\n")
	sb.Write(schema)
	return sb.String(), nil
}

// APIError represents an error from the Anthropic API with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string { return e.Message }
func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func wrapAPIError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    fmt.Sprintf("anthropic API error (HTTP %d)", apiErr.StatusCode),
			Err:        err,
		}
	}
	return err
}
