package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the remote document service and the configured stores",
	Run:   runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := newApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	h := app.Health(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tDETAILS")
	remoteStatus := "ok"
	if !h.Remote.Health.Healthy {
		remoteStatus = "unhealthy"
	}
	_, _ = fmt.Fprintf(w, "remote\t%s\t%s %s\n", remoteStatus, h.Remote.Health.ResponseTime, h.Remote.Health.Error)
	_, _ = fmt.Fprintf(w, "database\t%s\t\n", h.Database)
	_, _ = fmt.Fprintf(w, "redis\t%s\t\n", h.Redis)
	_ = w.Flush()

	for _, issue := range h.Remote.Issues {
		fmt.Printf("Issue: %s\n", issue)
	}
	for _, rec := range h.Remote.Recommendations {
		fmt.Printf("Recommendation: %s\n", rec)
	}
	if !h.Remote.Valid {
		os.Exit(1)
	}
}
