package frontmatter_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/frontmatter"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func committed(t *testing.T, path string) *frontmatter.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := frontmatter.Parse(data)
	require.NoError(t, err)
	return doc
}

func TestCommitter_Commit(t *testing.T) {
	t.Parallel()

	t.Run("writes effective values and provenance", func(t *testing.T) {
		t.Parallel()

		dir := writeScenes(t, map[string]string{
			"1 A.md": "---\nTitle: A\nClass: Scene\nWhen: 2020-01-01\n---\nBody of A.\n",
			"2 B.md": "---\nTitle: B\nNeedsReview: true\n---\nBody of B.\n",
		})
		entries := []chronologue.Entry{
			{
				Scene:            chronologue.Scene{Path: filepath.Join(dir, "1 A.md")},
				ProposedWhen:     time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
				EditedWhen:       time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
				Source:           chronologue.SourceManual,
				Confidence:       chronologue.ConfidenceHigh,
				ProposedDuration: "2 hours",
				NeedsReview:      true,
			},
			{
				Scene:        chronologue.Scene{Path: filepath.Join(dir, "2 B.md")},
				ProposedWhen: time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC),
				Source:       chronologue.SourcePattern,
				Confidence:   chronologue.ConfidenceLow,
			},
		}

		err := (&frontmatter.Committer{Root: dir}).Commit(context.Background(), entries)
		require.NoError(t, err)

		a := committed(t, filepath.Join(dir, "1 A.md"))
		when, _ := a.Get(frontmatter.KeyWhen)
		assert.Equal(t, "2024-03-01 09:30", when)
		duration, _ := a.Get(frontmatter.KeyDuration)
		assert.Equal(t, "2 hours", duration)
		source, _ := a.Get(frontmatter.KeyWhenSource)
		assert.Equal(t, "manual", source)
		confidence, _ := a.Get(frontmatter.KeyWhenConfidence)
		assert.Equal(t, "high", confidence)
		review, _ := a.Get(frontmatter.KeyNeedsReview)
		assert.Equal(t, "true", review)
		class, _ := a.Get(frontmatter.KeyClass)
		assert.Equal(t, "Scene", class)
		assert.Equal(t, "Body of A.\n", a.Body)

		b := committed(t, filepath.Join(dir, "2 B.md"))
		when, _ = b.Get(frontmatter.KeyWhen)
		assert.Equal(t, "2024-03-01 19:00", when)
		_, ok := b.Get(frontmatter.KeyNeedsReview)
		assert.False(t, ok)
		_, ok = b.Get(frontmatter.KeyDuration)
		assert.False(t, ok)
		assert.Equal(t, "Body of B.\n", b.Body)
	})

	t.Run("round-trips through the loader", func(t *testing.T) {
		t.Parallel()

		dir := writeScenes(t, map[string]string{"1 A.md": "---\nTitle: A\n---\n"})
		entry := chronologue.Entry{
			Scene:        chronologue.Scene{Path: filepath.Join(dir, "1 A.md")},
			ProposedWhen: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
			Source:       chronologue.SourceKeyword,
			Confidence:   chronologue.ConfidenceMed,
		}

		require.NoError(t, (&frontmatter.Committer{}).Commit(context.Background(), []chronologue.Entry{entry}))
		scenes, err := (&frontmatter.Loader{}).LoadScenes(context.Background(), dir)

		require.NoError(t, err)
		require.Len(t, scenes, 1)
		assert.Equal(t, "2024-03-02 08:00", scenes[0].When)
	})

	t.Run("keeps going after a failed file", func(t *testing.T) {
		t.Parallel()

		dir := writeScenes(t, map[string]string{"2 B.md": "---\nTitle: B\n---\n"})
		entries := []chronologue.Entry{
			{Scene: chronologue.Scene{Path: filepath.Join(dir, "missing.md")}, ProposedWhen: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
			{Scene: chronologue.Scene{Path: filepath.Join(dir, "2 B.md")}, ProposedWhen: time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)},
		}

		err := (&frontmatter.Committer{Root: dir}).Commit(context.Background(), entries)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing.md")
		when, _ := committed(t, filepath.Join(dir, "2 B.md")).Get(frontmatter.KeyWhen)
		assert.Equal(t, "2024-03-01 19:00", when)
	})

	t.Run("refuses while another commit holds the lock", func(t *testing.T) {
		t.Parallel()

		dir := writeScenes(t, map[string]string{"1 A.md": "---\nTitle: A\n---\n"})
		held := flock.New(filepath.Join(dir, frontmatter.LockFile))
		ok, err := held.TryLock()
		require.NoError(t, err)
		require.True(t, ok)
		defer held.Unlock()

		entry := chronologue.Entry{Scene: chronologue.Scene{Path: filepath.Join(dir, "1 A.md")}, ProposedWhen: time.Now()}
		err = (&frontmatter.Committer{Root: dir}).Commit(context.Background(), []chronologue.Entry{entry})

		assert.ErrorIs(t, err, frontmatter.ErrLocked)
	})

	t.Run("does nothing without entries", func(t *testing.T) {
		t.Parallel()

		err := (&frontmatter.Committer{Root: t.TempDir()}).Commit(context.Background(), nil)

		assert.NoError(t, err)
	})
}
