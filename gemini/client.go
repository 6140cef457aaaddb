package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"
)

// DefaultModel is the recommended Gemini model for scene time inference.
const DefaultModel = "gemini-3-flash-preview"

// Compile-time interface verification.
var _ GenerativeClient = (*Client)(nil)

// Client adapts genai.Client to GenerativeClient.
type Client struct {
	models *genai.Models
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger logs token usage of every call at debug level.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client for the Gemini API authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	c := &Client{models: gc.Models, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the client. The genai SDK holds no connections, so it
// never fails.
func (c *Client) Close() error {
	return nil
}

// GenerateContent sends one user turn and returns the model's text with
// the reason generation stopped.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error) {
	turns := make([]*genai.Content, len(contents))
	for i, content := range contents {
		turns[i] = &genai.Content{Role: genai.RoleUser, Parts: toParts(content)}
	}

	result, err := c.models.GenerateContent(ctx, model, turns, toConfig(config))
	if err != nil {
		return nil, wrapAPIError(err)
	}

	resp := &GenerateContentResponse{Text: result.Text()}
	if len(result.Candidates) > 0 {
		resp.FinishReason = string(result.Candidates[0].FinishReason)
	}
	if u := result.UsageMetadata; u != nil {
		c.logger.Debug("gemini usage",
			"model", model,
			"prompt_tokens", u.PromptTokenCount,
			"output_tokens", u.CandidatesTokenCount,
			"finish_reason", resp.FinishReason)
	}
	return resp, nil
}

func toParts(content *Content) []*genai.Part {
	parts := make([]*genai.Part, len(content.Parts))
	for i, p := range content.Parts {
		parts[i] = genai.NewPartFromText(p.Text)
	}
	return parts
}

func toConfig(config *GenerateContentConfig) *genai.GenerateContentConfig {
	if config == nil {
		return nil
	}
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType: config.ResponseMIMEType,
		Temperature:      config.Temperature,
		MaxOutputTokens:  config.MaxOutputTokens,
		ResponseSchema:   convertSchema(config.ResponseSchema),
	}
	if config.SystemInstruction != nil {
		gc.SystemInstruction = &genai.Content{Parts: toParts(config.SystemInstruction)}
	}
	if config.ThinkingLevel != "" {
		gc.ThinkingConfig = &genai.ThinkingConfig{ThinkingLevel: genai.ThinkingLevel(config.ThinkingLevel)}
	}
	return gc
}

// wrapAPIError converts SDK errors into *APIError so RetryBackend can
// tell transient failures from permanent ones. A per-request timeout is
// reported as a gateway timeout.
func wrapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.Code,
			Message:    fmt.Sprintf("gemini API error (HTTP %d): %s", apiErr.Code, apiErr.Message),
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &APIError{
			StatusCode: apiErrPtr.Code,
			Message:    fmt.Sprintf("gemini API error (HTTP %d): %s", apiErrPtr.Code, apiErrPtr.Message),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{StatusCode: http.StatusGatewayTimeout, Message: "gemini: request timed out"}
	}
	return fmt.Errorf("gemini: %w", err)
}

// convertSchema converts the upper-cased schema dialect to genai.Schema.
func convertSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	gs := &genai.Schema{
		Type:             genai.Type(s.Type),
		Enum:             s.Enum,
		Required:         s.Required,
		PropertyOrdering: s.PropertyOrdering,
		Description:      s.Description,
		Items:            convertSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		gs.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			gs.Properties[name] = convertSchema(prop)
		}
	}
	return gs
}
