package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var resetHistoryCmd = &cobra.Command{
	Use:   "reset-history",
	Short: "Clear the recovery history so escalation starts from scratch",
	Run:   runResetHistory,
}

func init() {
	rootCmd.AddCommand(resetHistoryCmd)
}

func runResetHistory(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := newApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	if err := app.Coordinator.ClearHistory(ctx); err != nil {
		slog.Error("Failed to reset recovery history", "error", err)
		os.Exit(1)
	}
	fmt.Println("Successfully reset recovery history")
}
