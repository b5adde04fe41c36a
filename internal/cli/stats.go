package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsLimit   int
	statsReports bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recovery history and the most frequent failures",
	Run:   runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "number of rows to show")
	statsCmd.Flags().BoolVar(&statsReports, "reports", false, "list recent stored error reports")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := newApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	if statsReports {
		reports, err := app.RecentReports(ctx, statsLimit)
		if err != nil {
			slog.Error("Failed to list error reports", "error", err)
			os.Exit(1)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(w, "TIME\tCATEGORY\tSEVERITY\tRETRY\tMESSAGE")
		for _, r := range reports {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				r.CreatedAt.Format(time.RFC3339), r.Category, r.Severity, r.RetryAttempt, r.Message)
		}
		_ = w.Flush()
		return
	}

	stats, err := app.Stats(ctx, statsLimit)
	if err != nil {
		slog.Error("Failed to read stats", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SIGNATURE\tATTEMPTS")
	for _, s := range stats.History {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", s.Signature, s.Attempts)
	}
	_ = w.Flush()

	if len(stats.Stored) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(w, "SIGNATURE\tCATEGORY\tREPORTS")
		for _, s := range stats.Stored {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", s.Signature, s.Category, s.Count)
		}
		_ = w.Flush()
	}
}
