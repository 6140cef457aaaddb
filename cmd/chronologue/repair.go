package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/anthropic"
	"github.com/fwojciec/chronologue/frontmatter"
	"github.com/fwojciec/chronologue/fs"
	"github.com/fwojciec/chronologue/gemini"
	"github.com/fwojciec/chronologue/jsonl"
	"github.com/fwojciec/chronologue/jsonschema"
	"github.com/fwojciec/chronologue/toml"
	"github.com/spf13/cobra"
)

// Repairer runs the pipeline over a manuscript and records the outcome.
type Repairer struct {
	Loader   chronologue.SceneLoader
	Pipeline *chronologue.Pipeline
	Store    chronologue.ResultStore
	History  chronologue.RunHistory
	Now      func() time.Time
	Logger   *slog.Logger
}

// RepairRequest describes one repair run.
type RepairRequest struct {
	Root        string
	Config      chronologue.PipelineConfig
	Provider    string
	ResultPath  string
	HistoryPath string
}

// Run loads the scenes, runs the pipeline and saves the result. A
// cancelled run still saves the partial result and then returns the
// cancellation error alongside it.
func (r *Repairer) Run(ctx context.Context, req RepairRequest) (*chronologue.Result, error) {
	scenes, err := r.Loader.LoadScenes(ctx, req.Root)
	if err != nil {
		return nil, fmt.Errorf("load scenes: %w", err)
	}

	result, runErr := r.Pipeline.Run(ctx, scenes, req.Config)
	if result == nil {
		return nil, runErr
	}

	if err := r.Store.Save(req.ResultPath, result); err != nil {
		return result, fmt.Errorf("save result: %w", err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	summary := result.Summary(req.Config, now())
	summary.Root = req.Root
	if req.Config.AI {
		summary.Provider = req.Provider
	}
	if err := r.History.Append(req.HistoryPath, summary); err != nil {
		loggerOrDiscard(r.Logger).Warn("append run history failed", "path", req.HistoryPath, "err", err)
	}

	return result, runErr
}

type repairFlags struct {
	anchor        string
	anchorIndex   int
	pattern       string
	keyword       bool
	ai            bool
	threshold     string
	inferDuration bool
	subplot       string
	act           int
	keepExisting  bool
	noCache       bool
	review        bool
}

// apply copies the flags the user set over the file configuration.
func (f *repairFlags) apply(cmd *cobra.Command, cfg *toml.Config) {
	changed := cmd.Flags().Changed
	if changed("anchor") {
		cfg.Pipeline.Anchor = f.anchor
	}
	if changed("anchor-index") {
		cfg.Pipeline.AnchorIndex = f.anchorIndex
	}
	if changed("pattern") {
		cfg.Pipeline.Pattern = f.pattern
	}
	if changed("keyword") {
		cfg.Pipeline.Keyword = f.keyword
	}
	if changed("ai") {
		cfg.Pipeline.AI = f.ai
	}
	if changed("threshold") {
		cfg.Pipeline.Threshold = f.threshold
	}
	if changed("infer-duration") {
		cfg.Pipeline.InferDuration = f.inferDuration
	}
	if changed("subplot") {
		cfg.Pipeline.Subplot = f.subplot
	}
	if changed("act") {
		cfg.Pipeline.Act = f.act
	}
	if changed("keep-existing") {
		cfg.Pipeline.KeepExisting = f.keepExisting
	}
	if changed("no-cache") {
		cfg.AI.NoCache = f.noCache
	}
}

func newRepairCommand(opts *globalOptions) *cobra.Command {
	var flags repairFlags

	cmd := &cobra.Command{
		Use:   "repair <dir>",
		Short: "Propose When values for every scene in a manuscript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := args[0]

			logger, err := opts.logger()
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(dir)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)

			pcfg, err := cfg.PipelineConfig()
			if err != nil {
				return err
			}
			if flags.review && !isTerminal(os.Stdout) {
				return errors.New("--review needs an interactive terminal")
			}

			loader := &frontmatter.Loader{Class: cfg.Pipeline.Class, Logger: logger}
			pipeline := &chronologue.Pipeline{
				Text:         loader,
				Validator:    jsonschema.NewValidator(),
				Logger:       logger,
				OnAIProgress: progressPrinter(cmd.ErrOrStderr()),
			}
			if pcfg.AI {
				backend, closeFn, err := newBackend(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer closeFn()
				pipeline.Backend = backend
			}

			resultPath, historyPath := manuscriptPaths(dir, cfg)
			repairer := &Repairer{
				Loader:   loader,
				Pipeline: pipeline,
				Store:    jsonl.NewStore(),
				History:  jsonl.NewHistory(),
				Logger:   logger,
			}
			result, runErr := repairer.Run(ctx, RepairRequest{
				Root:        dir,
				Config:      pcfg,
				Provider:    cfg.AI.Provider,
				ResultPath:  resultPath,
				HistoryPath: historyPath,
			})
			if result == nil {
				return runErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(result))
			fmt.Fprintf(cmd.OutOrStdout(), "result saved to %s\n", resultPath)
			if runErr != nil {
				return runErr
			}

			if flags.review {
				return reviewAndSave(ctx, cfg, dir, result, logger)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.anchor, "anchor", "", "When value of the anchor scene, e.g. \"2024-03-01 08:00\"")
	f.IntVar(&flags.anchorIndex, "anchor-index", 0, "Index of the anchor scene in manuscript order")
	f.StringVar(&flags.pattern, "pattern", "", "Pattern preset: daily, twoBeatDay, fourBeatDay or weekly")
	f.BoolVar(&flags.keyword, "keyword", true, "Refine with temporal keyword cues")
	f.BoolVar(&flags.ai, "ai", false, "Refine the remaining scenes with a language model")
	f.StringVar(&flags.threshold, "threshold", "", "Minimum AI confidence to auto-apply: low, med or high")
	f.BoolVar(&flags.inferDuration, "infer-duration", false, "Ask the model for scene durations")
	f.StringVar(&flags.subplot, "subplot", "", "Only repair scenes in this subplot")
	f.IntVar(&flags.act, "act", 0, "Only repair scenes in this act")
	f.BoolVar(&flags.keepExisting, "keep-existing", false, "Keep parseable existing When values")
	f.BoolVar(&flags.noCache, "no-cache", false, "Bypass the inference response cache")
	f.BoolVar(&flags.review, "review", false, "Open the review screen after the run")

	return cmd
}

// newBackend builds the configured inference backend: the provider
// client, retried on transient errors, behind the response cache.
func newBackend(ctx context.Context, cfg *toml.Config, logger *slog.Logger) (chronologue.InferenceBackend, func(), error) {
	var (
		backend chronologue.InferenceBackend
		model   string
		closeFn = func() {}
	)

	switch cfg.AI.Provider {
	case toml.ProviderGemini:
		if cfg.AI.APIKey == "" {
			return nil, nil, errors.New("GEMINI_API_KEY environment variable required")
		}
		client, err := gemini.NewClient(ctx, cfg.AI.APIKey, gemini.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		closeFn = func() { _ = client.Close() }
		model = cmp.Or(cfg.AI.Model, gemini.DefaultModel)
		var opts []gemini.BackendOption
		if t := cfg.Timeout(); t > 0 {
			opts = append(opts, gemini.WithTimeout(t))
		}
		backend = gemini.NewBackend(client, model, opts...)

	case toml.ProviderAnthropic:
		if cfg.AI.APIKey == "" {
			return nil, nil, errors.New("ANTHROPIC_API_KEY environment variable required")
		}
		model = cmp.Or(cfg.AI.Model, anthropic.DefaultModel)
		var opts []anthropic.BackendOption
		if t := cfg.Timeout(); t > 0 {
			opts = append(opts, anthropic.WithTimeout(t))
		}
		backend = anthropic.NewBackend(anthropic.NewMessageClient(cfg.AI.APIKey), model, opts...)

	default:
		return nil, nil, fmt.Errorf("ai.provider: unknown provider %q", cfg.AI.Provider)
	}

	backend = &chronologue.RetryBackend{Backend: backend, MaxRetries: cfg.AI.MaxRetries}
	if !cfg.AI.NoCache {
		dir := cmp.Or(cfg.AI.CacheDir, fs.DefaultCacheDir())
		backend = fs.NewBackend(backend, dir, cfg.AI.Provider+"/"+model)
	}
	return backend, closeFn, nil
}

func progressPrinter(w io.Writer) func(chronologue.AIProgress) {
	return func(p chronologue.AIProgress) {
		fmt.Fprintf(w, "ai %d/%d  %s\n", p.Done, p.Total, p.Title)
	}
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
