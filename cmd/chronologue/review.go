package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/bubbletea"
	"github.com/fwojciec/chronologue/clipboard"
	"github.com/fwojciec/chronologue/frontmatter"
	"github.com/fwojciec/chronologue/jsonl"
	"github.com/fwojciec/chronologue/lipgloss"
	"github.com/fwojciec/chronologue/toml"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ErrNoResult is returned when a manuscript has no saved repair result.
var ErrNoResult = errors.New("no saved result: run repair first")

func newReviewCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "review <dir>",
		Short: "Review and edit the last repair result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if !isTerminal(os.Stdout) {
				return errors.New("review needs an interactive terminal")
			}

			logger, err := opts.logger()
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(dir)
			if err != nil {
				return err
			}
			resultPath, _ := manuscriptPaths(dir, cfg)
			result, err := loadResult(jsonl.NewStore(), resultPath)
			if err != nil {
				return err
			}
			return reviewAndSave(cmd.Context(), cfg, dir, result, logger)
		},
	}
}

// loadResult reads a saved result, treating a missing file as ErrNoResult.
func loadResult(store chronologue.ResultStore, path string) (*chronologue.Result, error) {
	result, err := store.Load(path)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoResult)
	}
	return result, nil
}

// reviewAndSave opens the review screen and saves the session the user
// leaves behind, so edits survive to a later review or commit.
func reviewAndSave(ctx context.Context, cfg *toml.Config, dir string, result *chronologue.Result, logger *slog.Logger) error {
	var clip chronologue.Clipboard
	if c, err := clipboard.Detect(); err == nil {
		clip = c
	} else {
		logger.Debug("clipboard unavailable", "err", err)
	}

	reviewer := bubbletea.NewReviewer(
		lipgloss.DefaultTheme(),
		&frontmatter.Committer{Root: dir, Logger: logger},
		clip,
	)
	session, err := reviewer.Review(ctx, result)
	if err != nil {
		return err
	}

	resultPath, _ := manuscriptPaths(dir, cfg)
	return saveSession(jsonl.NewStore(), resultPath, result, session)
}

// saveSession writes the session's entries back into result.
func saveSession(store chronologue.ResultStore, path string, result *chronologue.Result, session chronologue.Session) error {
	result.Entries = session.Entries()
	result.Summarize()
	if err := store.Save(path, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
