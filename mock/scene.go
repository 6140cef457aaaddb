package mock

import (
	"context"

	"github.com/fwojciec/chronologue"
)

// Compile-time interface verification.
var (
	_ chronologue.TextAccessor = (*TextAccessor)(nil)
	_ chronologue.SceneLoader  = (*SceneLoader)(nil)
	_ chronologue.Committer    = (*Committer)(nil)
)

// TextAccessor is a mock implementation of chronologue.TextAccessor.
type TextAccessor struct {
	SceneTextFn func(ctx context.Context, scene chronologue.Scene) (string, error)
}

func (a *TextAccessor) SceneText(ctx context.Context, scene chronologue.Scene) (string, error) {
	return a.SceneTextFn(ctx, scene)
}

// SceneLoader is a mock implementation of chronologue.SceneLoader.
type SceneLoader struct {
	LoadScenesFn func(ctx context.Context, root string) ([]chronologue.Scene, error)
}

func (l *SceneLoader) LoadScenes(ctx context.Context, root string) ([]chronologue.Scene, error) {
	return l.LoadScenesFn(ctx, root)
}

// Committer is a mock implementation of chronologue.Committer.
type Committer struct {
	CommitFn func(ctx context.Context, entries []chronologue.Entry) error
}

func (c *Committer) Commit(ctx context.Context, entries []chronologue.Entry) error {
	return c.CommitFn(ctx, entries)
}
