package frontmatter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fwojciec/chronologue"
	"github.com/gofrs/flock"
)

// LockFile is the name of the manuscript lock taken during a commit.
const LockFile = ".chronologue.lock"

// ErrLocked is returned when another commit holds the manuscript lock.
var ErrLocked = errors.New("frontmatter: manuscript is locked by another commit")

// Compile-time interface verification.
var _ chronologue.Committer = (*Committer)(nil)

// Committer writes entries back into their scene files.
type Committer struct {
	Root   string // Manuscript directory holding the lock; the first entry's directory when empty
	Logger *slog.Logger
}

// Commit writes When, Duration and the provenance keys of every entry into
// its file, leaving other keys and the body untouched. Files are written
// independently: a failure on one does not stop the others, and all
// failures are returned joined.
func (c *Committer) Commit(ctx context.Context, entries []chronologue.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	logger := loggerOrDiscard(c.Logger)

	root := c.Root
	if root == "" {
		root = filepath.Dir(entries[0].Scene.Path)
	}
	lock := flock.New(filepath.Join(root, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("frontmatter: acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release manuscript lock", "err", err)
		}
	}()

	var errs []error
	written := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := writeEntry(e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Scene.Path, err))
			continue
		}
		written++
	}

	logger.Info("commit finished", "written", written, "failed", len(entries)-written)
	return errors.Join(errs...)
}

func writeEntry(e chronologue.Entry) error {
	info, err := os.Stat(e.Scene.Path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(e.Scene.Path)
	if err != nil {
		return err
	}
	doc, err := Parse(data)
	if err != nil {
		return err
	}

	Apply(doc, e)

	out, err := doc.Bytes()
	if err != nil {
		return err
	}
	return writeFile(e.Scene.Path, out, info.Mode().Perm())
}

// Apply writes the entry's effective values into the document.
func Apply(doc *Document, e chronologue.Entry) {
	doc.Set(KeyWhen, chronologue.FormatWhen(e.EffectiveWhen()))
	if d := e.EffectiveDuration(); d != "" {
		doc.Set(KeyDuration, d)
	}
	doc.Set(KeyWhenSource, string(e.Source))
	doc.Set(KeyWhenConfidence, string(e.Confidence))
	if e.NeedsReview {
		doc.SetBool(KeyNeedsReview, true)
	} else {
		doc.Delete(KeyNeedsReview)
	}
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chronologue-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
