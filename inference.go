package chronologue

import "context"

// InferenceStatus reports whether a backend produced usable content.
type InferenceStatus string

// Inference statuses.
const (
	StatusSuccess InferenceStatus = "success"
	StatusFailure InferenceStatus = "failure"
)

// InferenceRequest is a provider-agnostic structured completion request.
type InferenceRequest struct {
	Feature      string   // Task descriptor, e.g. "scene-when-repair"
	Capabilities []string // Required capability tags, e.g. "json"
	Instructions string   // System instruction text
	Prompt       string   // User prompt
	Schema       *Schema  // Strict JSON schema the response must satisfy
	Temperature  *float32 // Sampling override; provider default when nil
	MaxTokens    int      // Output budget; provider default when 0
}

// InferenceResponse is the raw backend answer.
type InferenceResponse struct {
	Status  InferenceStatus
	Content string
}

// InferenceBackend answers structured completion requests. Implementations
// must be safe to call sequentially; the pipeline never calls them
// concurrently.
type InferenceBackend interface {
	Infer(ctx context.Context, req InferenceRequest) (*InferenceResponse, error)
}

// ResponseValidator checks raw response content against a schema.
type ResponseValidator interface {
	Validate(schema *Schema, content []byte) error
}

// Schema represents the structure for controlled JSON generation.
type Schema struct {
	Type        string             `json:"type"` // object, array, string, integer, number, boolean
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Ordering    []string           `json:"-"` // Property order in output, where the provider supports it
	Description string             `json:"description,omitempty"`
}
