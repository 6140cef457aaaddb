package main

import (
	"fmt"

	"github.com/fwojciec/chronologue/jsonl"
	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <dir>",
		Short: "List past repair runs of a manuscript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			cfg, err := opts.loadConfig(dir)
			if err != nil {
				return err
			}
			_, historyPath := manuscriptPaths(dir, cfg)

			runs, err := jsonl.NewHistory().Load(historyPath)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[len(runs)-limit:]
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many recent runs (0 for all)")
	return cmd
}
