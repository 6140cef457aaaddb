package chronologue

import "time"

// EntryState is the part of an entry a session edit can change.
type EntryState struct {
	EditedWhen time.Time // Zero when the entry carried no override
	Source     Source
	Confidence Confidence
}

// SceneChange records one entry's state before and after an edit.
type SceneChange struct {
	Index    int
	Previous EntryState
	Next     EntryState
}

// EditOperation is an undoable session edit. It is one of SingleEdit,
// BatchEdit or RippleEdit.
type EditOperation interface {
	// Changes returns every scene change the operation made, in the
	// order they were applied.
	Changes() []SceneChange
	editOperation()
}

// SingleEdit is a one-scene edit without ripple.
type SingleEdit struct {
	Change SceneChange
}

// BatchEdit is the same kind of change applied to several scenes at once.
type BatchEdit struct {
	Scenes []SceneChange
}

// RippleEdit is a primary edit plus the shifts it cascaded to every later
// scene.
type RippleEdit struct {
	Primary SceneChange
	Cascade []SceneChange
}

var (
	_ EditOperation = SingleEdit{}
	_ EditOperation = BatchEdit{}
	_ EditOperation = RippleEdit{}
)

func (op SingleEdit) Changes() []SceneChange { return []SceneChange{op.Change} }
func (op BatchEdit) Changes() []SceneChange  { return op.Scenes }

func (op RippleEdit) Changes() []SceneChange {
	out := make([]SceneChange, 0, len(op.Cascade)+1)
	out = append(out, op.Primary)
	return append(out, op.Cascade...)
}

func (SingleEdit) editOperation() {}
func (BatchEdit) editOperation()  {}
func (RippleEdit) editOperation() {}

// applyState writes an EntryState onto an entry.
func applyState(e *Entry, s EntryState) {
	e.EditedWhen = s.EditedWhen
	e.Source = s.Source
	e.Confidence = s.Confidence
}

func stateOf(e Entry) EntryState {
	return EntryState{EditedWhen: e.EditedWhen, Source: e.Source, Confidence: e.Confidence}
}
