package chronologue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Scope restricts a run to part of the manuscript. Zero values match all.
type Scope struct {
	Subplot string
	Act     int
}

// Matches reports whether the scene falls inside the scope.
func (s Scope) Matches(scene Scene) bool {
	if s.Subplot != "" && !scene.HasSubplot(s.Subplot) {
		return false
	}
	if s.Act != 0 && scene.Act != s.Act {
		return false
	}
	return true
}

// PipelineConfig selects what a pipeline run does.
type PipelineConfig struct {
	Anchor      time.Time
	AnchorIndex int
	Preset      PatternPreset

	Keyword bool // Run Level 2
	AI      bool // Run Level 3

	Threshold     Confidence // Level-3 auto-apply threshold; med when empty
	InferDuration bool
	Scope         Scope

	KeywordExcerpt  int  // Level-2 excerpt length; default when 0
	AIExcerpt       int  // Level-3 excerpt length; default when 0
	IncludeSynopsis bool // Level 2 scans the synopsis too
	KeepExisting    bool // Level 1 keeps parseable existing values
}

// Phase identifies the pipeline stage being entered.
type Phase string

// Pipeline phases.
const (
	PhasePattern Phase = "pattern"
	PhaseKeyword Phase = "keyword"
	PhaseAI      Phase = "ai"
	PhaseDone    Phase = "done"
)

// Result is the outcome of a pipeline run.
type Result struct {
	RunID   string
	Entries []Entry

	TotalScenes            int
	ScenesChanged          int
	ScenesNeedingReview    int
	ScenesWithBackwardTime int
	ScenesWithLargeGaps    int

	Level1Applied int
	Level2Refined int
	Level3Refined int

	Cancelled bool
}

// Summarize recomputes the scene counters from the entries.
func (r *Result) Summarize() {
	r.TotalScenes = len(r.Entries)
	r.ScenesChanged, r.ScenesNeedingReview, r.ScenesWithBackwardTime, r.ScenesWithLargeGaps = 0, 0, 0, 0
	for _, e := range r.Entries {
		if e.IsChanged {
			r.ScenesChanged++
		}
		if e.NeedsReview {
			r.ScenesNeedingReview++
		}
		if e.HasBackwardTime {
			r.ScenesWithBackwardTime++
		}
		if e.HasLargeGap {
			r.ScenesWithLargeGaps++
		}
	}
}

// Pipeline sequences the three inference levels over a manuscript.
type Pipeline struct {
	Text      TextAccessor      // Scene body text for Levels 2 and 3
	Backend   InferenceBackend  // Required when Level 3 runs
	Parser    WhenParser        // DefaultWhenParser in the anchor's location when nil
	Validator ResponseValidator // Optional Level-3 response check
	Formatter PromptFormatter   // Optional Level-3 prompt formatter
	Logger    *slog.Logger

	OnPhase      func(Phase)
	OnAIProgress func(AIProgress)
}

// Run executes Level 1, then Level 2 and Level 3 when enabled, over the
// scenes that match the config's scope.
//
// The context is checked after each level and between Level-3
// candidates. On cancellation Run returns the best result computed so
// far together with an error wrapping ErrCancelled.
func (p *Pipeline) Run(ctx context.Context, scenes []Scene, cfg PipelineConfig) (*Result, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("invalid pipeline config: %w", errors.Join(joined...))
	}
	if cfg.AI && p.Backend == nil {
		return nil, fmt.Errorf("invalid pipeline config: %w",
			ValidationError{Field: "ai", Reason: ErrMissingAIBackend})
	}

	logger := loggerOrDiscard(p.Logger)
	parser := p.Parser
	if parser == nil {
		parser = DefaultWhenParser{Location: cfg.Anchor.Location()}
	}

	var inScope []Scene
	for _, s := range scenes {
		if cfg.Scope.Matches(s) {
			inScope = append(inScope, s)
		}
	}
	if len(inScope) == 0 {
		return nil, ErrNoScenes
	}

	result := &Result{RunID: uuid.NewString()}
	finish := func(err error) (*Result, error) {
		result.Summarize()
		if err != nil {
			result.Cancelled = true
			logger.Info("pipeline cancelled", "run_id", result.RunID, "err", err)
			return result, err
		}
		p.phase(PhaseDone)
		logger.Info("pipeline finished",
			"run_id", result.RunID,
			"scenes", result.TotalScenes,
			"changed", result.ScenesChanged,
			"needs_review", result.ScenesNeedingReview,
			"level2_refined", result.Level2Refined,
			"level3_refined", result.Level3Refined)
		return result, nil
	}
	cancelled := func() error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return nil
	}

	p.phase(PhasePattern)
	result.Entries = SyncPattern(inScope, PatternOptions{
		Anchor:       cfg.Anchor,
		AnchorIndex:  cfg.AnchorIndex,
		Preset:       cfg.Preset,
		Parser:       parser,
		KeepExisting: cfg.KeepExisting,
	})
	for _, e := range result.Entries {
		if e.Source == SourcePattern {
			result.Level1Applied++
		}
	}
	logger.Debug("pattern applied", "scenes", len(result.Entries), "preset", cfg.Preset)
	if err := cancelled(); err != nil {
		return finish(err)
	}

	if cfg.Keyword {
		p.phase(PhaseKeyword)
		result.Level2Refined = SweepKeywords(ctx, result.Entries, p.Text, KeywordOptions{
			ExcerptLength:   cfg.KeywordExcerpt,
			IncludeSynopsis: cfg.IncludeSynopsis,
			Logger:          logger,
		})
		logger.Debug("keyword sweep finished", "refined", result.Level2Refined)
		if err := cancelled(); err != nil {
			return finish(err)
		}
	}

	if cfg.AI {
		p.phase(PhaseAI)
		refined, err := ParseWithAI(ctx, result.Entries, p.Text, p.Backend, AIOptions{
			ExcerptLength: cfg.AIExcerpt,
			Threshold:     cfg.Threshold,
			InferDuration: cfg.InferDuration,
			Progress:      p.OnAIProgress,
			Parser:        parser,
			Formatter:     p.Formatter,
			Validator:     p.Validator,
			Logger:        logger,
		})
		result.Level3Refined = refined
		if err != nil {
			return finish(err)
		}
		if err := cancelled(); err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}

func (p *Pipeline) phase(ph Phase) {
	if p.OnPhase != nil {
		p.OnPhase(ph)
	}
}
