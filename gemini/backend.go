package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/chronologue"
)

// Compile-time interface verification.
var _ chronologue.InferenceBackend = (*Backend)(nil)

// DefaultTimeout is the default timeout for a single inference call.
const DefaultTimeout = 60 * time.Second

// Backend implements chronologue.InferenceBackend using Google Gemini.
type Backend struct {
	client        GenerativeClient
	model         string
	timeout       time.Duration
	thinkingLevel string
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithTimeout sets the timeout for API calls.
func WithTimeout(d time.Duration) BackendOption {
	return func(b *Backend) {
		b.timeout = d
	}
}

// WithThinkingLevel sets the model thinking level ("MINIMAL", "LOW", ...).
func WithThinkingLevel(level string) BackendOption {
	return func(b *Backend) {
		b.thinkingLevel = level
	}
}

// NewBackend creates a new Backend.
func NewBackend(client GenerativeClient, model string, opts ...BackendOption) *Backend {
	b := &Backend{
		client:  client,
		model:   model,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Infer sends a structured completion request to Gemini.
func (b *Backend) Infer(ctx context.Context, req chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	contents := []*Content{{
		Parts: []*Part{{Text: req.Prompt}},
	}}

	resp, err := b.client.GenerateContent(ctx, b.model, contents, b.buildConfig(req))
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("gemini: returned nil response")
	}
	if strings.TrimSpace(resp.Text) == "" || blocked(resp.FinishReason) {
		return &chronologue.InferenceResponse{Status: chronologue.StatusFailure}, nil
	}

	return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: resp.Text}, nil
}

// blocked reports whether generation stopped without a usable answer.
func blocked(finishReason string) bool {
	switch finishReason {
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "MAX_TOKENS":
		return true
	}
	return false
}

func (b *Backend) buildConfig(req chronologue.InferenceRequest) *GenerateContentConfig {
	config := &GenerateContentConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: int32(req.MaxTokens),
		ThinkingLevel:   b.thinkingLevel,
	}
	if req.Instructions != "" {
		config.SystemInstruction = &Content{Parts: []*Part{{Text: req.Instructions}}}
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = FromSchema(req.Schema)
	}
	return config
}

// FromSchema converts a chronologue.Schema to the Gemini schema dialect,
// which spells types in upper case and orders properties explicitly.
func FromSchema(s *chronologue.Schema) *Schema {
	if s == nil {
		return nil
	}
	gs := &Schema{
		Type:             strings.ToUpper(s.Type),
		Enum:             s.Enum,
		Required:         s.Required,
		PropertyOrdering: s.Ordering,
		Description:      s.Description,
		Items:            FromSchema(s.Items),
	}
	if s.Properties != nil {
		gs.Properties = make(map[string]*Schema, len(s.Properties))
		for k, v := range s.Properties {
			gs.Properties[k] = FromSchema(v)
		}
	}
	return gs
}
