package chronologue

import (
	"slices"
	"time"
)

// MaxHistory bounds the undo and redo stacks. Older operations are dropped.
const MaxHistory = 50

// Session is an immutable review session over pipeline output. Every
// operation returns a new Session and leaves the receiver untouched; the
// entries slice is copied on write. Invalid indices and no-op edits are
// ignored and return the session unchanged.
//
// Sessions are values. Callers serialize transitions themselves.
type Session struct {
	entries   []Entry
	undo      []EditOperation
	redo      []EditOperation
	ripple    bool
	unsaved   bool
	threshold time.Duration
}

// NewSession starts a session over a pipeline result.
func NewSession(result *Result) Session {
	var s Session
	if result == nil {
		return s
	}
	s.entries = slices.Clone(result.Entries)
	s.threshold = DetectIssues(s.entries)
	s.unsaved = anyChanged(s.entries)
	return s
}

// Len returns the number of entries.
func (s Session) Len() int { return len(s.entries) }

// Entries returns a copy of the session entries.
func (s Session) Entries() []Entry { return slices.Clone(s.entries) }

// Entry returns the entry at index i.
func (s Session) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// ChangedEntries returns the entries whose effective value differs from
// the original.
func (s Session) ChangedEntries() []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.IsChanged {
			out = append(out, e)
		}
	}
	return out
}

func (s Session) RippleEnabled() bool     { return s.ripple }
func (s Session) HasUnsavedChanges() bool { return s.unsaved }
func (s Session) CanUndo() bool           { return len(s.undo) > 0 }
func (s Session) CanRedo() bool           { return len(s.redo) > 0 }
func (s Session) UndoDepth() int          { return len(s.undo) }
func (s Session) RedoDepth() int          { return len(s.redo) }

// LargeGapThreshold returns the threshold from the last global recompute.
func (s Session) LargeGapThreshold() time.Duration { return s.threshold }

// SetRipple turns ripple mode on or off.
func (s Session) SetRipple(enabled bool) Session {
	s.ripple = enabled
	return s
}

// EditSceneWhen sets a manual value for scene i. With ripple mode on, the
// delta is applied to every later scene as one undoable operation.
func (s Session) EditSceneWhen(i int, when time.Time) Session {
	if !s.valid(i) || when.IsZero() {
		return s
	}
	prev := s.entries[i].EffectiveWhen()
	if when.Equal(prev) {
		return s
	}
	if s.ripple {
		return s.rippleEdit(i, when, when.Sub(prev))
	}

	next := s.clone()
	change := next.setManual(i, when)
	next.recomputeLocal([]int{i})
	return next.push(SingleEdit{Change: change})
}

// ShiftSceneDays moves scene i by the given number of calendar days.
func (s Session) ShiftSceneDays(i, days int) Session {
	if !s.valid(i) || days == 0 {
		return s
	}
	return s.EditSceneWhen(i, s.entries[i].EffectiveWhen().AddDate(0, 0, days))
}

// SetSceneTimeBucket moves scene i to a time bucket on the same day.
func (s Session) SetSceneTimeBucket(i int, b TimeBucket) Session {
	if !s.valid(i) {
		return s
	}
	return s.EditSceneWhen(i, AtBucket(s.entries[i].EffectiveWhen(), b))
}

// EditMultipleScenes sets the same value on every listed scene as one
// undoable operation. Batch edits never ripple.
func (s Session) EditMultipleScenes(indices []int, when time.Time) Session {
	if when.IsZero() {
		return s
	}
	return s.batchEdit(indices, func(time.Time) time.Time { return when })
}

// ShiftMultipleDays moves every listed scene by the same number of days.
func (s Session) ShiftMultipleDays(indices []int, days int) Session {
	if days == 0 {
		return s
	}
	return s.batchEdit(indices, func(t time.Time) time.Time { return t.AddDate(0, 0, days) })
}

// SetMultipleTimeBucket moves every listed scene to the same time bucket.
func (s Session) SetMultipleTimeBucket(indices []int, b TimeBucket) Session {
	return s.batchEdit(indices, func(t time.Time) time.Time { return AtBucket(t, b) })
}

// Undo reverts the most recent operation.
func (s Session) Undo() Session {
	if len(s.undo) == 0 {
		return s
	}
	op := s.undo[len(s.undo)-1]

	next := s.clone()
	next.undo = slices.Clip(s.undo[:len(s.undo)-1])
	changes := op.Changes()
	for k := len(changes) - 1; k >= 0; k-- {
		c := changes[k]
		applyState(&next.entries[c.Index], c.Previous)
	}
	next.redo = pushBounded(s.redo, op)
	next.recomputeGlobal()
	return next
}

// Redo reapplies the most recently undone operation.
func (s Session) Redo() Session {
	if len(s.redo) == 0 {
		return s
	}
	op := s.redo[len(s.redo)-1]

	next := s.clone()
	next.redo = slices.Clip(s.redo[:len(s.redo)-1])
	for _, c := range op.Changes() {
		applyState(&next.entries[c.Index], c.Next)
	}
	next.undo = pushBounded(s.undo, op)
	next.recomputeGlobal()
	return next
}

// MarkSaved records that the effective values were committed: they become
// the new originals and nothing is left unsaved. History is kept.
func (s Session) MarkSaved() Session {
	next := s.clone()
	for i := range next.entries {
		e := &next.entries[i]
		e.OriginalWhen = e.EffectiveWhen()
		e.OriginalWhenRaw = FormatWhen(e.OriginalWhen)
		e.OriginalDuration = e.EffectiveDuration()
	}
	next.recomputeGlobal()
	return next
}

func (s Session) valid(i int) bool { return i >= 0 && i < len(s.entries) }

// clone copies the entries slice so the receiver stays untouched.
func (s Session) clone() Session {
	s.entries = slices.Clone(s.entries)
	return s
}

// push records a new operation. Any new edit invalidates the redo stack.
func (s Session) push(op EditOperation) Session {
	s.undo = pushBounded(s.undo, op)
	s.redo = nil
	return s
}

func pushBounded(stack []EditOperation, op EditOperation) []EditOperation {
	stack = append(slices.Clip(stack), op)
	if len(stack) > MaxHistory {
		stack = slices.Clip(stack[len(stack)-MaxHistory:])
	}
	return stack
}

// setManual applies a manual value to entry i and returns the change.
func (s Session) setManual(i int, when time.Time) SceneChange {
	e := &s.entries[i]
	change := SceneChange{
		Index:    i,
		Previous: stateOf(*e),
		Next:     EntryState{EditedWhen: when, Source: SourceManual, Confidence: ConfidenceHigh},
	}
	applyState(e, change.Next)
	return change
}

func (s Session) rippleEdit(i int, when time.Time, delta time.Duration) Session {
	next := s.clone()
	op := RippleEdit{Primary: next.setManual(i, when)}
	for j := i + 1; j < len(next.entries); j++ {
		shifted := next.entries[j].EffectiveWhen().Add(delta)
		op.Cascade = append(op.Cascade, next.setManual(j, shifted))
	}
	next.recomputeGlobal()
	return next.push(op)
}

func (s Session) batchEdit(indices []int, fn func(time.Time) time.Time) Session {
	var (
		next    = s.clone()
		op      BatchEdit
		touched []int
		seen    = make(map[int]bool, len(indices))
	)
	for _, i := range indices {
		if !s.valid(i) || seen[i] {
			continue
		}
		seen[i] = true
		when := fn(next.entries[i].EffectiveWhen())
		if when.IsZero() || when.Equal(next.entries[i].EffectiveWhen()) {
			continue
		}
		op.Scenes = append(op.Scenes, next.setManual(i, when))
		touched = append(touched, i)
	}
	if len(op.Scenes) == 0 {
		return s
	}
	next.recomputeLocal(touched)
	return next.push(op)
}

// recomputeLocal re-derives flags for each touched entry and its
// successor against the cached threshold.
func (s *Session) recomputeLocal(touched []int) {
	for _, i := range touched {
		flagEntry(s.entries, i, s.threshold)
		if i+1 < len(s.entries) {
			flagEntry(s.entries, i+1, s.threshold)
		}
	}
	s.unsaved = anyChanged(s.entries)
}

func (s *Session) recomputeGlobal() {
	s.threshold = DetectIssues(s.entries)
	s.unsaved = anyChanged(s.entries)
}

func anyChanged(entries []Entry) bool {
	for _, e := range entries {
		if e.IsChanged {
			return true
		}
	}
	return false
}
