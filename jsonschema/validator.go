// Package jsonschema validates inference responses against
// chronologue.Schema using a JSON Schema compiler.
package jsonschema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fwojciec/chronologue"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Compile-time interface verification.
var _ chronologue.ResponseValidator = (*Validator)(nil)

// Validator implements chronologue.ResponseValidator. Compiled schemas
// are cached, so one Validator should be reused across calls.
type Validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate checks content against schema. Objects are strict: properties
// not named in the schema are rejected.
func (v *Validator) Validate(schema *chronologue.Schema, content []byte) error {
	if schema == nil {
		return nil
	}
	compiled, err := v.compile(schema)
	if err != nil {
		return err
	}

	var instance any
	if err := json.Unmarshal(content, &instance); err != nil {
		return fmt.Errorf("jsonschema: response is not JSON: %w", err)
	}
	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("jsonschema: %w", err)
	}
	return nil
}

func (v *Validator) compile(schema *chronologue.Schema) (*jsonschema.Schema, error) {
	data, err := json.Marshal(Document(schema))
	if err != nil {
		return nil, fmt.Errorf("jsonschema: encode schema: %w", err)
	}
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])

	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.compiled[key]; ok {
		return s, nil
	}

	url := "mem://schema/" + key + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("jsonschema: add schema resource: %w", err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: compile schema: %w", err)
	}
	v.compiled[key] = s
	return s, nil
}

// Document renders a chronologue.Schema as a JSON Schema document.
func Document(s *chronologue.Schema) map[string]any {
	if s == nil {
		return nil
	}
	doc := map[string]any{"type": s.Type}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		doc["enum"] = s.Enum
	}
	if s.Items != nil {
		doc["items"] = Document(s.Items)
	}
	if s.Type == "object" {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = Document(p)
		}
		doc["properties"] = props
		doc["additionalProperties"] = false
		if len(s.Required) > 0 {
			doc["required"] = s.Required
		}
	}
	return doc
}
