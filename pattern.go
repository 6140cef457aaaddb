package chronologue

import (
	"fmt"
	"time"
)

// PatternPreset selects the cyclical pattern used by Level 1.
type PatternPreset string

// Pattern presets.
const (
	PatternDaily       PatternPreset = "daily"
	PatternTwoBeatDay  PatternPreset = "twoBeatDay"
	PatternFourBeatDay PatternPreset = "fourBeatDay"
	PatternWeekly      PatternPreset = "weekly"
)

// ParsePatternPreset validates a preset id.
func ParsePatternPreset(s string) (PatternPreset, error) {
	switch p := PatternPreset(s); p {
	case PatternDaily, PatternTwoBeatDay, PatternFourBeatDay, PatternWeekly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPattern, s)
}

// beats returns the bucket cycle for beat-based presets, or nil for the
// fixed-step presets.
func (p PatternPreset) beats() []TimeBucket {
	switch p {
	case PatternTwoBeatDay:
		return []TimeBucket{Morning, Evening}
	case PatternFourBeatDay:
		return []TimeBucket{Morning, Afternoon, Evening, Night}
	}
	return nil
}

// stepDays returns the day advance of the fixed-step presets.
func (p PatternPreset) stepDays() int {
	if p == PatternWeekly {
		return 7
	}
	return 1
}

// dayStart is the hour a story day begins. Earlier hours belong to the
// previous day's night.
const dayStart = 5

// initialBeat derives the starting beat index from the anchor hour.
func (p PatternPreset) initialBeat(hour int) int {
	switch p {
	case PatternTwoBeatDay:
		if hour < 15 {
			return 0
		}
		return 1
	case PatternFourBeatDay:
		switch {
		case hour >= dayStart && hour < 12:
			return 0
		case hour >= 12 && hour < 17:
			return 1
		case hour >= 17 && hour < 21:
			return 2
		default:
			return 3
		}
	}
	return 0
}

// PatternOptions configures Level 1.
type PatternOptions struct {
	Anchor      time.Time
	AnchorIndex int // Clamped into range
	Preset      PatternPreset
	Parser      WhenParser // Parses existing When values; DefaultWhenParser when nil

	// KeepExisting keeps parseable existing When values as
	// source=original instead of replacing them with the pattern.
	KeepExisting bool
}

// SyncPattern is Level 1: it assigns every scene a deterministic
// baseline from the anchor and the preset's cycle. It never fails.
func SyncPattern(scenes []Scene, opts PatternOptions) []Entry {
	if len(scenes) == 0 {
		return nil
	}
	parser := opts.Parser
	if parser == nil {
		parser = DefaultWhenParser{Location: opts.Anchor.Location()}
	}
	anchorIndex := min(max(opts.AnchorIndex, 0), len(scenes)-1)

	times := make([]time.Time, len(scenes))
	times[anchorIndex] = opts.Anchor

	for i := anchorIndex - 1; i >= 0; i-- {
		times[i] = times[i+1].AddDate(0, 0, -1)
	}

	cycle := opts.Preset.beats()
	beat := opts.Preset.initialBeat(opts.Anchor.Hour())
	for i := anchorIndex + 1; i < len(scenes); i++ {
		prev := times[i-1]
		if cycle == nil {
			times[i] = prev.AddDate(0, 0, opts.Preset.stepDays())
			continue
		}
		beat = (beat + 1) % len(cycle)
		day := prev
		if beat == 0 && prev.Hour() >= dayStart {
			day = prev.AddDate(0, 0, 1)
		}
		times[i] = AtBucket(day, cycle[beat])
	}

	entries := make([]Entry, len(scenes))
	for i, scene := range scenes {
		e := Entry{
			Index:            i,
			Scene:            scene,
			OriginalWhenRaw:  scene.When,
			OriginalDuration: scene.Duration,
			ProposedWhen:     times[i],
			ProposedDuration: scene.Duration,
			Source:           SourcePattern,
			Confidence:       ConfidenceHigh,
		}
		if t, ok := parser.Parse(scene.When); ok {
			e.OriginalWhen = t
			if opts.KeepExisting {
				e.ProposedWhen = t
				e.Source = SourceOriginal
			}
		}
		entries[i] = e
	}

	DetectIssues(entries)
	return entries
}
