package chronologue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// DefaultAIExcerpt is the number of characters of body text sent per scene.
const DefaultAIExcerpt = 4000

// AIFeature is the task descriptor sent with every Level-3 request.
const AIFeature = "scene-when-repair"

// AIProgress reports Level-3 progress after each candidate.
type AIProgress struct {
	Done  int // Candidates processed so far
	Total int // Candidates selected for this pass
	Index int // Entry index just processed
	Title string
}

// AIOptions configures Level 3.
type AIOptions struct {
	ExcerptLength int        // DefaultAIExcerpt when <= 0
	Threshold     Confidence // Auto-apply threshold; ConfidenceMed when empty
	InferDuration bool
	Progress      func(AIProgress)
	Parser        WhenParser        // Literal suggestion parser; DefaultWhenParser when nil
	Formatter     PromptFormatter   // DefaultFormatter when nil
	Validator     ResponseValidator // Optional strict schema check
	Logger        *slog.Logger
}

// Suggestion is the structured answer the model returns for one scene.
type Suggestion struct {
	WhenSuggestion     string   `json:"whenSuggestion"`
	Confidence         string   `json:"confidence"`
	Evidence           []string `json:"evidence"`
	Rationale          string   `json:"rationale"`
	DurationSuggestion string   `json:"durationSuggestion,omitempty"`
}

// SuggestionSchema returns the strict response schema for Level 3.
func SuggestionSchema(inferDuration bool) *Schema {
	s := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"whenSuggestion": {Type: "string", Description: "Date/time as YYYY-MM-DD HH:MM, or a relative phrase such as \"the next morning\""},
			"confidence":     {Type: "string", Enum: []string{"low", "med", "high"}},
			"evidence":       {Type: "array", Items: &Schema{Type: "string"}, Description: "Short quotes from the scene that support the suggestion"},
			"rationale":      {Type: "string", Description: "One or two sentences explaining the suggestion"},
		},
		Required: []string{"whenSuggestion", "confidence", "evidence", "rationale"},
		Ordering: []string{"whenSuggestion", "confidence", "evidence", "rationale"},
	}
	if inferDuration {
		s.Properties["durationSuggestion"] = &Schema{Type: "string", Description: "Scene duration, e.g. \"45 minutes\" or \"2 hours\""}
		s.Ordering = append(s.Ordering, "durationSuggestion")
	}
	return s
}

// AIInstructions is the system instruction for Level 3.
const AIInstructions = `You are a continuity editor for long-form fiction. You determine when a scene takes place relative to the scene before it.

Read the scene excerpt and the context. Suggest the scene's date and time, either as an absolute value (YYYY-MM-DD HH:MM) or as a phrase relative to the previous scene ("the next morning", "three days later", "moments later").

Rate your confidence as low, med, or high. Quote the words from the scene that support your answer. Never invent evidence; if the text gives no temporal signal, say so and answer with low confidence.`

// aiCandidate reports whether an entry is sent to the backend.
func aiCandidate(e Entry) bool {
	return e.Source == SourcePattern || e.NeedsReview || e.HasBackwardTime
}

// ParseWithAI is Level 3: it asks the backend about entries Level 1/2
// could not resolve and refines them in place. Candidates are processed
// one at a time; the context is checked between candidates only, and a
// request already in flight runs to completion. Per-candidate failures
// are logged and skipped. The only error returned wraps ErrCancelled.
func ParseWithAI(ctx context.Context, entries []Entry, text TextAccessor, backend InferenceBackend, opts AIOptions) (int, error) {
	logger := loggerOrDiscard(opts.Logger)
	if opts.Threshold == "" {
		opts.Threshold = ConfidenceMed
	}
	if opts.ExcerptLength <= 0 {
		opts.ExcerptLength = DefaultAIExcerpt
	}
	if opts.Parser == nil {
		opts.Parser = DefaultWhenParser{}
	}
	if opts.Formatter == nil {
		opts.Formatter = &DefaultFormatter{}
	}

	var candidates []int
	for i := range entries {
		if aiCandidate(entries[i]) {
			candidates = append(candidates, i)
		}
	}

	refined := 0
	for n, i := range candidates {
		if err := ctx.Err(); err != nil {
			DetectIssues(entries)
			return refined, fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		applied, err := refineWithAI(context.WithoutCancel(ctx), entries, i, text, backend, opts)
		if err != nil {
			logger.Warn("ai parse: skipping scene",
				"index", i, "title", entries[i].Scene.Title, "err", err)
		} else if applied {
			refined++
		}

		if opts.Progress != nil {
			opts.Progress(AIProgress{Done: n + 1, Total: len(candidates), Index: i, Title: entries[i].Scene.Title})
		}
	}

	DetectIssues(entries)
	return refined, nil
}

// refineWithAI handles one candidate. It reports whether the suggestion
// was auto-applied.
func refineWithAI(ctx context.Context, entries []Entry, i int, text TextAccessor, backend InferenceBackend, opts AIOptions) (bool, error) {
	e := &entries[i]

	excerpt := e.Scene.Synopsis
	if text != nil {
		body, err := text.SceneText(ctx, e.Scene)
		if err != nil {
			return false, fmt.Errorf("scene text: %w", err)
		}
		if strings.TrimSpace(body) != "" {
			excerpt = truncateRunes(body, opts.ExcerptLength)
		}
	}

	input := PromptInput{
		Title:         e.Scene.Title,
		Excerpt:       excerpt,
		CurrentWhen:   e.ProposedWhen,
		InferDuration: opts.InferDuration,
	}
	ref := e.ProposedWhen
	if i > 0 {
		prev := entries[i-1]
		input.PreviousTitle = prev.Scene.Title
		input.PreviousWhen = prev.EffectiveWhen()
		ref = input.PreviousWhen
	}

	temp := float32(0.2)
	schema := SuggestionSchema(opts.InferDuration)
	resp, err := backend.Infer(ctx, InferenceRequest{
		Feature:      AIFeature,
		Capabilities: []string{"json", "long-context"},
		Instructions: AIInstructions,
		Prompt:       opts.Formatter.Format(input),
		Schema:       schema,
		Temperature:  &temp,
	})
	if err != nil {
		return false, err
	}
	if resp == nil {
		return false, fmt.Errorf("backend returned nil response")
	}
	if resp.Status != StatusSuccess {
		return false, ErrBackendFailure
	}

	content := StripCodeFence(resp.Content)
	var s Suggestion
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}

	// The audit trail is kept whether or not the value is applied.
	e.AIRationale = s.Rationale
	e.AIEvidence = append(e.AIEvidence, s.Evidence...)

	if opts.Validator != nil {
		if err := opts.Validator.Validate(schema, []byte(content)); err != nil {
			e.ReviewRequested = true
			return false, fmt.Errorf("schema violation: %w", err)
		}
	}
	conf, err := ParseConfidence(s.Confidence)
	if err != nil {
		e.ReviewRequested = true
		return false, fmt.Errorf("%w: %q", err, s.Confidence)
	}

	when, ok := InterpretSuggestion(s.WhenSuggestion, ref, opts.Parser)
	if !ok || !conf.AtLeast(opts.Threshold) {
		e.ReviewRequested = true
		return false, nil
	}

	e.ProposedWhen = when
	e.Source = SourceAI
	e.Confidence = conf
	e.ReviewRequested = false
	if opts.InferDuration && strings.TrimSpace(s.DurationSuggestion) != "" {
		e.ProposedDuration = strings.TrimSpace(s.DurationSuggestion)
	}
	return true, nil
}

// StripCodeFence removes a surrounding markdown code fence from model output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type relativeRule struct {
	re    *regexp.Regexp
	apply func(ref time.Time, groups []string) (time.Time, bool)
}

var relativeRules = []relativeRule{
	{rx(`\b(?:next|following)\s+morning\b`), func(ref time.Time, g []string) (time.Time, bool) {
		return AtBucket(ref.AddDate(0, 0, 1), Morning), true
	}},
	{rx(`\b(?:next|following)\s+(afternoon|evening|night)\b`), func(ref time.Time, g []string) (time.Time, bool) {
		return AtBucket(ref.AddDate(0, 0, 1), bucketWords[g[1]]), true
	}},
	{rx(`\b(?:next|following)\s+day\b|\bday\s+after\b|\btomorrow\b`), func(ref time.Time, g []string) (time.Time, bool) {
		return ref.AddDate(0, 0, 1), true
	}},
	{rx(`\b(?:same|that|this|later\s+that|later\s+the\s+same)\s+(?:day\s+)?(?:in\s+the\s+)?(morning|afternoon|evening|night)\b|\bsame-day\s+(morning|afternoon|evening|night)\b|\btonight\b`), func(ref time.Time, g []string) (time.Time, bool) {
		word := g[1]
		if word == "" {
			word = g[2]
		}
		if word == "" {
			word = "night"
		}
		return AtBucket(ref, bucketWords[word]), true
	}},
	{rx(`\b` + countPattern + `\s+(day|week|month|year)s?\s+(?:later|after(?:wards?)?)\b`), func(ref time.Time, g []string) (time.Time, bool) {
		n, ok := parseCount(g[1])
		if !ok {
			return time.Time{}, false
		}
		c := jumpCue(n, g[2], ConfidenceHigh)
		return ref.AddDate(c.Years, c.Months, c.Days), true
	}},
	{rx(`\b` + countPattern + `\s+(minute|hour)s?\s+later\b`), func(ref time.Time, g []string) (time.Time, bool) {
		n, ok := parseCount(g[1])
		if !ok {
			return time.Time{}, false
		}
		if g[2] == "hour" {
			n *= 60
		}
		return ref.Add(time.Duration(n) * time.Minute), true
	}},
	{rx(`\bimmediately\b|\bmoments?\s+later\b|\bright\s+after\b|\bseconds\s+later\b`), func(ref time.Time, g []string) (time.Time, bool) {
		return ref.Add(5 * time.Minute), true
	}},
	{rx(`\bmeanwhile\b|\bsame\s+time\b|\bsimultaneous(?:ly)?\b`), func(ref time.Time, g []string) (time.Time, bool) {
		return ref, true
	}},
}

// InterpretSuggestion turns a model suggestion into a time: first as a
// literal When value, then through the relative-phrase table anchored
// at ref.
func InterpretSuggestion(suggestion string, ref time.Time, parser WhenParser) (time.Time, bool) {
	s := strings.TrimSpace(suggestion)
	if s == "" {
		return time.Time{}, false
	}
	if parser != nil {
		if t, ok := parser.Parse(s); ok {
			return t, true
		}
	}
	lower := strings.ToLower(s)
	for _, rule := range relativeRules {
		m := rule.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		return rule.apply(ref, m)
	}
	return time.Time{}, false
}
