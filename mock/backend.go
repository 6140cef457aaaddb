package mock

import (
	"context"

	"github.com/fwojciec/chronologue"
)

// Compile-time interface verification.
var (
	_ chronologue.InferenceBackend  = (*InferenceBackend)(nil)
	_ chronologue.ResponseValidator = (*ResponseValidator)(nil)
)

// InferenceBackend is a mock implementation of chronologue.InferenceBackend.
type InferenceBackend struct {
	InferFn func(ctx context.Context, req chronologue.InferenceRequest) (*chronologue.InferenceResponse, error)
}

func (b *InferenceBackend) Infer(ctx context.Context, req chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
	return b.InferFn(ctx, req)
}

// ResponseValidator is a mock implementation of chronologue.ResponseValidator.
type ResponseValidator struct {
	ValidateFn func(schema *chronologue.Schema, content []byte) error
}

func (v *ResponseValidator) Validate(schema *chronologue.Schema, content []byte) error {
	return v.ValidateFn(schema, content)
}
