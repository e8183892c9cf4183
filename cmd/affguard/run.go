package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hed1ad/affguard/pkg/config"
	affio "github.com/hed1ad/affguard/pkg/io"
	"github.com/hed1ad/affguard/pkg/io/csv"
	"github.com/hed1ad/affguard/pkg/pipeline"
)

type runOptions struct {
	input      string
	output     string
	format     string
	configPath string
	comma      string
	workers    int
	minPlayers int
	trees      int
	seed       int64
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Aggregate an export and write per-country anomaly scores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if opts.configPath != "" {
				var err error
				if cfg, err = config.Load(opts.configPath); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("workers") {
				cfg.Scoring.Workers = opts.workers
			}
			if flags.Changed("min-players") {
				cfg.Aggregation.MinPlayers = opts.minPlayers
			}
			if flags.Changed("trees") {
				cfg.Forest.Trees = opts.trees
			}
			if flags.Changed("seed") {
				cfg.Forest.Seed = opts.seed
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return runAnalysis(cmd.Context(), opts, cfg, slog.Default())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input export (.xlsx or .csv)")
	f.StringVarP(&opts.output, "output", "o", ".", "output workbook, directory, or CSV directory")
	f.StringVar(&opts.format, "format", affio.FormatXLSX, "output format: xlsx or csv")
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&opts.comma, "comma", ",", "CSV input delimiter")
	f.IntVar(&opts.workers, "workers", 1, "countries scored concurrently")
	f.IntVar(&opts.minPlayers, "min-players", pipeline.DefaultMinPlayers, "player count a group must exceed")
	f.IntVar(&opts.trees, "trees", 100, "isolation trees per country")
	f.Int64Var(&opts.seed, "seed", 42, "random seed")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// runAnalysis loads, scores and saves. Nothing is written unless every stage
// before saving succeeds.
func runAnalysis(ctx context.Context, opts runOptions, cfg config.Config, logger *slog.Logger) error {
	start := time.Now()

	loader, err := affio.LoaderFor(opts.input)
	if err != nil {
		return err
	}
	if l, ok := loader.(csv.Loader); ok && opts.comma != "" {
		l.Comma = []rune(opts.comma)[0]
		loader = l
	}
	saver, outPath, err := affio.SaverFor(opts.format, opts.output)
	if err != nil {
		return err
	}

	logger.Info("loading dataset", "input", opts.input)
	records, err := loader.Load(opts.input)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("the dataset was loaded", "records", len(records))

	p := pipeline.New(append(cfg.PipelineOptions(), pipeline.WithReporter(eventLogger(ctx, logger)))...)
	res, err := p.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("analyse dataset: %w", err)
	}

	sheets := res.Sheets()
	if err := saver.Save(sheets, outPath); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	logger.Info("analysis completed, results saved to separate sheets by country",
		"run_id", res.RunID,
		"output", outPath,
		"countries", len(sheets),
		"rows", res.Retained,
		"unbucketed", res.Unbucketed,
		"duration", time.Since(start),
	)
	return nil
}

// eventLogger adapts pipeline progress events to structured log records.
func eventLogger(ctx context.Context, logger *slog.Logger) pipeline.Reporter {
	return func(e pipeline.Event) {
		level := slog.LevelInfo
		if e.Level == pipeline.LevelWarn {
			level = slog.LevelWarn
		}
		attrs := []any{"run_id", e.RunID, "stage", e.Stage}
		if e.Country != "" {
			attrs = append(attrs, "country", e.Country)
		}
		logger.Log(ctx, level, e.Message, attrs...)
	}
}
