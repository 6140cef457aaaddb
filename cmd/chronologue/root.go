package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/chronologue/toml"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	stderr     io.Writer
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{stderr: os.Stderr}

	rootCmd := &cobra.Command{
		Use:           "chronologue",
		Short:         "Repair scene When values across a manuscript",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default <dir>/"+toml.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newRepairCommand(opts))
	rootCmd.AddCommand(newReviewCommand(opts))
	rootCmd.AddCommand(newCommitCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))

	return rootCmd
}

// loadConfig reads the config for the manuscript in dir.
func (o *globalOptions) loadConfig(dir string) (*toml.Config, error) {
	path := o.configPath
	if path == "" {
		path = filepath.Join(dir, toml.DefaultFile)
	}
	return toml.Load(path)
}

func (o *globalOptions) logger() (*slog.Logger, error) {
	return newLogger(o.stderr, o.logLevel, o.logFormat)
}

// newLogger builds a slog logger writing to w.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// manuscriptPaths resolves the output files of a manuscript.
func manuscriptPaths(dir string, cfg *toml.Config) (result, history string) {
	return toml.Resolve(dir, cfg.Output.Result), toml.Resolve(dir, cfg.Output.History)
}
