package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "brandpulse",
		Short: "Ingest social posts, classify sentiment, and track brand mentions",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(ingestCmd())
	root.AddCommand(recentCmd())
	root.AddCommand(brandCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func ingestCmd() *cobra.Command {
	var (
		sources    []string
		noClassify bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Collect posts from configured sources and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(sources, noClassify)
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "specific sources to collect (e.g., nitter,archive)")
	cmd.Flags().BoolVar(&noClassify, "no-classify", false, "skip sentiment classification")
	return cmd
}

func recentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently created posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecent(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max posts to show")
	return cmd
}

func brandCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "brand <name>",
		Short: "Show the sentiment report for one tracked brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrand(args[0], days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "window in days")
	return cmd
}

func statsCmd() *cobra.Command {
	var (
		date       string
		trendDays  int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if trendDays > 0 {
				return runStatsTrend(trendDays, jsonOutput)
			}
			return runStats(date, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to report (YYYY-MM-DD, default: today UTC)")
	cmd.Flags().IntVar(&trendDays, "trend", 0, "show per-day post totals for the last N days instead")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
