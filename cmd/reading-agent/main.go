package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentarch/reading-agent/internal/app"
	"github.com/mentarch/reading-agent/internal/config"
	"github.com/mentarch/reading-agent/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reading-agent",
		Short:         "Fetches, filters, and summarizes new research articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(), newTrackedCmd(), newStatsCmd(), newSweepCmd())
	return root
}

func buildApp() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.App.LogLevel)
	return app.New(cfg, logger)
}

func newRunCmd() *cobra.Command {
	var loop bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an ingestion cycle, or keep running on a schedule with --loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			if loop {
				return application.RunLoop(cmd.Context())
			}
			return application.RunOnce(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&loop, "loop", false, "run continuously on the configured update frequency")
	return cmd
}

func newTrackedCmd() *cobra.Command {
	var (
		limit  int
		source string
		format string
	)

	cmd := &cobra.Command{
		Use:   "tracked",
		Short: "List recently processed articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			articles, err := application.Tracker().GetProcessed(cmd.Context(), limit, source)
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(articles)
			}

			if len(articles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tracked articles")
				return nil
			}
			for _, a := range articles {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s]  %s\n", a.ProcessedAt, a.Source, a.Title)
				if a.URL != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", a.URL)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to list")
	cmd.Flags().StringVar(&source, "source", "", "only entries from this source")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show tracking store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.Tracker().Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total tracked: %d\n", stats.Total)
			for source, count := range stats.BySource {
				fmt.Fprintf(out, "  %-20s %d\n", source, count)
			}
			if stats.Oldest != "" {
				fmt.Fprintf(out, "oldest: %s\nnewest: %s\n", stats.Oldest, stats.Newest)
			}
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete tracking entries older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			removed := application.Tracker().ClearOlderThan(cmd.Context(), days)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries older than %d days\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "retention window in days")
	return cmd
}
