package chronologue

import "fmt"

// ValidationReason identifies why a PipelineConfig field is invalid.
type ValidationReason string

// Validation error reasons.
const (
	ErrMissingAnchor      ValidationReason = "missing_anchor"
	ErrUnknownPattern     ValidationReason = "unknown_pattern"
	ErrUnknownThreshold   ValidationReason = "unknown_threshold"
	ErrNegativeAnchor     ValidationReason = "negative_anchor_index"
	ErrNegativeAct        ValidationReason = "negative_act"
	ErrMissingAIBackend   ValidationReason = "missing_ai_backend"
	ErrNegativeExcerptLen ValidationReason = "negative_excerpt_length"
)

// ValidationError describes a single validation failure in a PipelineConfig.
type ValidationError struct {
	Field  string           // Config field name
	Reason ValidationReason // Why the field is invalid
	Value  string           // Offending value, when useful
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch e.Reason {
	case ErrMissingAnchor:
		return fmt.Sprintf("%s: anchor date/time is required", e.Field)
	case ErrUnknownPattern:
		return fmt.Sprintf("%s: unknown pattern preset %q (valid: daily, twoBeatDay, fourBeatDay, weekly)", e.Field, e.Value)
	case ErrUnknownThreshold:
		return fmt.Sprintf("%s: unknown confidence %q (valid: low, med, high)", e.Field, e.Value)
	case ErrNegativeAnchor:
		return fmt.Sprintf("%s: anchor index %s is negative", e.Field, e.Value)
	case ErrNegativeAct:
		return fmt.Sprintf("%s: act %s is negative", e.Field, e.Value)
	case ErrMissingAIBackend:
		return fmt.Sprintf("%s: AI level enabled without an inference backend", e.Field)
	case ErrNegativeExcerptLen:
		return fmt.Sprintf("%s: excerpt length %s is negative", e.Field, e.Value)
	default:
		return fmt.Sprintf("%s: invalid value %q", e.Field, e.Value)
	}
}

// Validate checks that the config can drive a pipeline run. It returns a
// slice of validation errors, or nil if the config is valid.
func (c PipelineConfig) Validate() []ValidationError {
	var errors []ValidationError

	if c.Anchor.IsZero() {
		errors = append(errors, ValidationError{Field: "anchor", Reason: ErrMissingAnchor})
	}
	if c.AnchorIndex < 0 {
		errors = append(errors, ValidationError{Field: "anchor_index", Reason: ErrNegativeAnchor, Value: fmt.Sprint(c.AnchorIndex)})
	}
	if _, err := ParsePatternPreset(string(c.Preset)); err != nil {
		errors = append(errors, ValidationError{Field: "pattern", Reason: ErrUnknownPattern, Value: string(c.Preset)})
	}
	if c.Threshold != "" && c.Threshold.Rank() < 0 {
		errors = append(errors, ValidationError{Field: "threshold", Reason: ErrUnknownThreshold, Value: string(c.Threshold)})
	}
	if c.Scope.Act < 0 {
		errors = append(errors, ValidationError{Field: "act", Reason: ErrNegativeAct, Value: fmt.Sprint(c.Scope.Act)})
	}
	if c.KeywordExcerpt < 0 {
		errors = append(errors, ValidationError{Field: "excerpt_length", Reason: ErrNegativeExcerptLen, Value: fmt.Sprint(c.KeywordExcerpt)})
	}
	if c.AIExcerpt < 0 {
		errors = append(errors, ValidationError{Field: "ai_excerpt_length", Reason: ErrNegativeExcerptLen, Value: fmt.Sprint(c.AIExcerpt)})
	}

	return errors
}
