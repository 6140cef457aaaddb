package frontmatter

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/fwojciec/chronologue"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of scene files read at once.
const DefaultConcurrency = 8

// Compile-time interface verification.
var (
	_ chronologue.SceneLoader  = (*Loader)(nil)
	_ chronologue.TextAccessor = (*Loader)(nil)
)

// Loader reads scenes from a directory tree of markdown files.
type Loader struct {
	// Class keeps only files whose Class key matches, ignoring case.
	// Empty keeps every file with a frontmatter block.
	Class string

	Concurrency int // DefaultConcurrency when <= 0
	Logger      *slog.Logger
}

// LoadScenes walks root for .md files and returns their scenes in
// manuscript order: numbered file names first by number, then the rest
// by name. Files without frontmatter or of another class are skipped.
func (l *Loader) LoadScenes(ctx context.Context, root string) ([]chronologue.Scene, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("frontmatter: walk %s: %w", root, err)
	}

	limit := l.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// Indexed by position in paths; nil entries were skipped.
	loaded := make([]*chronologue.Scene, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scene, err := l.readScene(path)
			if err != nil {
				return err
			}
			loaded[i] = scene
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var scenes []chronologue.Scene
	for _, s := range loaded {
		if s != nil {
			scenes = append(scenes, *s)
		}
	}
	slices.SortStableFunc(scenes, compareScenes)
	return scenes, nil
}

// readScene returns nil for files that are not scenes.
func (l *Loader) readScene(path string) (*chronologue.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	doc, err := Parse(data)
	if errors.Is(err, ErrNoFrontmatter) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if l.Class != "" {
		if class, _ := doc.Get(KeyClass); !strings.EqualFold(class, l.Class) {
			return nil, nil
		}
	}

	scene := &chronologue.Scene{
		Path:     path,
		Subplots: doc.List(KeySubplot),
	}
	scene.Title, _ = doc.Get(KeyTitle)
	if scene.Title == "" {
		scene.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	scene.Synopsis, _ = doc.Get(KeySynopsis)
	scene.When, _ = doc.Get(KeyWhen)
	scene.Duration, _ = doc.Get(KeyDuration)
	if act, ok := doc.Get(KeyAct); ok {
		n, err := strconv.Atoi(act)
		if err != nil {
			loggerOrDiscard(l.Logger).Debug("ignoring non-numeric act", "path", path, "act", act)
		} else {
			scene.Act = n
		}
	}
	return scene, nil
}

// SceneText returns the body of the scene's file, without frontmatter.
func (l *Loader) SceneText(ctx context.Context, scene chronologue.Scene) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(scene.Path)
	if err != nil {
		return "", fmt.Errorf("frontmatter: %w", err)
	}
	doc, err := Parse(data)
	if errors.Is(err, ErrNoFrontmatter) {
		return string(data), nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", scene.Path, err)
	}
	return doc.Body, nil
}

var sceneNumberRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)`)

// sceneNumber returns the leading number of a scene's file name.
func sceneNumber(path string) (float64, bool) {
	m := sceneNumberRe.FindString(filepath.Base(path))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	return n, err == nil
}

func compareScenes(a, b chronologue.Scene) int {
	na, oka := sceneNumber(a.Path)
	nb, okb := sceneNumber(b.Path)
	switch {
	case oka && okb:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case oka:
		return -1
	case okb:
		return 1
	}
	return cmp.Compare(a.Path, b.Path)
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
