package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document service",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	slog.Info("Document service starting", "config", cfgPath)
	if err := app.Serve(ctx); err != nil {
		slog.Error("Document service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Document service stopped gracefully")
}
