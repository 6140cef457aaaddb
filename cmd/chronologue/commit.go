package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/frontmatter"
	"github.com/fwojciec/chronologue/jsonl"
	"github.com/spf13/cobra"
)

func newCommitCommand(opts *globalOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "commit <dir>",
		Short: "Write the changed When values of the last result to the scene files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			logger, err := opts.logger()
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(dir)
			if err != nil {
				return err
			}
			resultPath, _ := manuscriptPaths(dir, cfg)

			var committer chronologue.Committer = &frontmatter.Committer{Root: dir, Logger: logger}
			if dryRun {
				committer = nil
			}
			changed, err := commitResult(cmd.Context(), jsonl.NewStore(), committer, resultPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, renderChanges(changed))
				fmt.Fprintf(out, "%d scene(s) would change\n", len(changed))
				return nil
			}
			fmt.Fprintf(out, "committed %d scene(s)\n", len(changed))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "List the changes without writing them")
	return cmd
}

// commitResult loads the saved result and writes its changed entries. A
// nil committer only reports what would be written.
func commitResult(ctx context.Context, store chronologue.ResultStore, committer chronologue.Committer, path string) ([]chronologue.Entry, error) {
	result, err := loadResult(store, path)
	if err != nil {
		return nil, err
	}

	var changed []chronologue.Entry
	for _, e := range result.Entries {
		if e.IsChanged {
			changed = append(changed, e)
		}
	}
	if committer == nil || len(changed) == 0 {
		return changed, nil
	}
	if err := committer.Commit(ctx, changed); err != nil {
		return nil, err
	}
	return changed, nil
}
