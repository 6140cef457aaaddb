// Package chronologue provides domain types and the core pipeline for
// repairing scene timestamps ("When") across an ordered manuscript.
package chronologue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	ErrCancelled         = errors.New("pipeline cancelled")
	ErrNoScenes          = errors.New("no scenes to repair")
	ErrInvalidPattern    = errors.New("invalid pattern preset")
	ErrInvalidConfidence = errors.New("invalid confidence")
	ErrBackendFailure    = errors.New("inference backend reported failure")
)

// Scene is one scene record in manuscript order.
type Scene struct {
	Path     string   `json:"path"`               // File handle; identifies the scene on commit
	Title    string   `json:"title"`              // Display title
	Subplots []string `json:"subplots,omitempty"` // Subplot tags
	Act      int      `json:"act,omitempty"`      // 0 if the scene has no act
	Synopsis string   `json:"synopsis,omitempty"` // Optional synopsis text
	When     string   `json:"when,omitempty"`     // Raw When value, if previously set
	Duration string   `json:"duration,omitempty"` // Raw Duration value, if previously set
}

// HasSubplot reports whether the scene is tagged with the given subplot.
func (s Scene) HasSubplot(subplot string) bool {
	for _, sp := range s.Subplots {
		if sp == subplot {
			return true
		}
	}
	return false
}

// Source identifies which tier or action last produced a scene's time.
type Source string

// Provenance sources.
const (
	SourcePattern  Source = "pattern"
	SourceKeyword  Source = "keyword"
	SourceAI       Source = "ai"
	SourceManual   Source = "manual"
	SourceOriginal Source = "original"
)

// Confidence is an ordered confidence tier: low < med < high.
type Confidence string

// Confidence tiers.
const (
	ConfidenceLow  Confidence = "low"
	ConfidenceMed  Confidence = "med"
	ConfidenceHigh Confidence = "high"
)

// Rank returns the ordinal of the tier, or -1 when the tier is unknown.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMed:
		return 1
	case ConfidenceHigh:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether c meets the threshold. Unknown tiers never do.
func (c Confidence) AtLeast(threshold Confidence) bool {
	r := c.Rank()
	return r >= 0 && r >= threshold.Rank()
}

// ParseConfidence maps free-form model output ("medium", "HIGH") to a tier.
func ParseConfidence(s string) (Confidence, error) {
	switch normalizeWord(s) {
	case "low":
		return ConfidenceLow, nil
	case "med", "medium":
		return ConfidenceMed, nil
	case "high":
		return ConfidenceHigh, nil
	}
	return "", ErrInvalidConfidence
}

// Entry is the repair state of one scene. Level 1 creates it; later
// levels and session edits refine it.
type Entry struct {
	Index int   `json:"index"` // Position in manuscript order (after scope filtering)
	Scene Scene `json:"scene"`

	OriginalWhen    time.Time `json:"original_when"`               // Zero when the scene had no parseable When
	OriginalWhenRaw string    `json:"original_when_raw,omitempty"` // Raw When before this run

	ProposedWhen time.Time `json:"proposed_when"`         // Current best estimate; never zero
	EditedWhen   time.Time `json:"edited_when,omitempty"` // Human override; zero when absent

	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`

	Cues        []Cue    `json:"cues,omitempty"`
	AIEvidence  []string `json:"ai_evidence,omitempty"`
	AIRationale string   `json:"ai_rationale,omitempty"`

	// ReviewRequested is set by the AI tier when it wants a human to
	// look at the scene. NeedsReview is derived from it by DetectIssues.
	ReviewRequested bool `json:"review_requested,omitempty"`
	NeedsReview     bool `json:"needs_review"`
	HasBackwardTime bool `json:"has_backward_time"`
	HasLargeGap     bool `json:"has_large_gap"`
	IsChanged       bool `json:"is_changed"`

	OriginalDuration string `json:"original_duration,omitempty"`
	ProposedDuration string `json:"proposed_duration,omitempty"`
	EditedDuration   string `json:"edited_duration,omitempty"`
}

// EffectiveWhen returns the edited value when present, else the proposal.
func (e Entry) EffectiveWhen() time.Time {
	if !e.EditedWhen.IsZero() {
		return e.EditedWhen
	}
	return e.ProposedWhen
}

// EffectiveDuration returns the edited duration when present, else the proposal.
func (e Entry) EffectiveDuration() string {
	if e.EditedDuration != "" {
		return e.EditedDuration
	}
	return e.ProposedDuration
}

// HasOriginal reports whether the scene carried a parseable When.
func (e Entry) HasOriginal() bool {
	return !e.OriginalWhen.IsZero()
}

// changed reports whether the effective value differs from the original.
func (e Entry) changed() bool {
	if !e.HasOriginal() {
		return true
	}
	return !e.EffectiveWhen().Equal(e.OriginalWhen)
}

// WhenParser parses the project's When grammar. ok is false when the raw
// string is not a recognizable date.
type WhenParser interface {
	Parse(raw string) (t time.Time, ok bool)
}

// TextAccessor returns the full body text of a scene.
type TextAccessor interface {
	SceneText(ctx context.Context, scene Scene) (string, error)
}

// SceneLoader loads a manuscript's scenes in manuscript order.
type SceneLoader interface {
	LoadScenes(ctx context.Context, root string) ([]Scene, error)
}

// Committer persists committed entries back to the scene source.
type Committer interface {
	Commit(ctx context.Context, entries []Entry) error
}

// ResultStore persists and retrieves pipeline results.
type ResultStore interface {
	Load(path string) (*Result, error)
	Save(path string, result *Result) error
}

// Clipboard provides copy-to-clipboard functionality.
type Clipboard interface {
	Copy(content string) error
}
