package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hed1ad/affguard/pkg/pipeline"
)

func newRootCmd() *cobra.Command {
	var (
		debug     bool
		logFormat string
	)

	root := &cobra.Command{
		Use:           "affguard",
		Short:         "Per-country anomaly scoring of affiliate activity exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("debug") || cmd.Flags().Changed("log-format") {
				slog.SetDefault(newLogger(debug, logFormat))
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format: json or text")

	root.AddCommand(newRunCmd(), newBucketsCmd(), newVersionCmd())
	return root
}

func newBucketsCmd() *cobra.Command {
	var lastDay string

	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Print the time period windows for a given last day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := time.Now().UTC()
			if lastDay != "" {
				var err error
				if day, err = time.Parse(time.DateOnly, lastDay); err != nil {
					return fmt.Errorf("parse --last-day: %w", err)
				}
			}
			out := cmd.OutOrStdout()
			for _, w := range pipeline.Windows {
				fmt.Fprintf(out, "%2d-%2d days  %s\n", w.From, w.To, w.Label(day))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lastDay, "last-day", "", "latest first-deposit date, YYYY-MM-DD (default today)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "affguard %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
