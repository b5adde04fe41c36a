package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/itinerary/internal/control"
	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/coordinator"
)

var (
	inputPath  string
	pathway    string
	outDir     string
	noFallback bool
	followUp   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an itinerary PDF with automatic recovery",
	Run:   runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "itinerary JSON or YAML file, - for stdin")
	generateCmd.Flags().StringVar(&pathway, "pathway", string(domain.PathwayRemote), "preferred pathway: remote or local")
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides config)")
	generateCmd.Flags().BoolVar(&noFallback, "no-fallback", false, "never switch to the other pathway automatically")
	generateCmd.Flags().BoolVar(&followUp, "follow-up", false, "run the suggested recovery action once when generation fails")
	_ = generateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	req, err := readRequest(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	app, err := control.NewApp(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Close()
	}()

	out, err := app.Generate(ctx, req, coordinator.GenerateOptions{
		Preferred:  domain.PathwayName(pathway),
		NoFallback: noFallback,
	})
	if err != nil {
		slog.Error("Generation failed", "error", err)
		os.Exit(1)
	}

	if !out.Success && followUp && out.Notification != nil {
		if action, ok := out.Notification.PrimaryAction(); ok && action.Handler != nil {
			fmt.Printf("Running recovery action: %s\n", action.Label)
			action.Handler()
		}
	}

	final := printOutcome(os.Stdout, out)
	if !final.Success {
		os.Exit(1)
	}
}

// printOutcome writes a human readable report and returns the outcome that
// decided the result, following any recovery action that ran.
func printOutcome(w io.Writer, out *control.Outcome) *control.Outcome {
	for {
		if out.Success {
			fmt.Fprintf(w, "PDF saved to %s (%s pathway, %s)\n", out.Path, out.Pathway, out.Method)
			if out.Initial != nil {
				fmt.Fprintf(w, "Recovered from: %s\n", out.Initial.UserMessage)
			}
			if out.Notification != nil {
				fmt.Fprintf(w, "%s: %s\n", out.Notification.Title, out.Notification.Message)
			}
			return out
		}

		if out.Notification != nil {
			fmt.Fprintf(w, "%s [%s]\n%s\n", out.Notification.Title, out.Notification.Severity, out.Notification.Message)
		}
		if out.Failure != nil {
			for _, fe := range out.Failure.FieldErrors {
				fmt.Fprintf(w, "  - %s: %s\n", fe.Field, fe.Message)
			}
		}

		fmt.Fprintf(w, "\n%s (about %s)\n", out.Resolution.Title, out.Resolution.EstimatedTime)
		for _, s := range out.Resolution.Steps {
			fmt.Fprintf(w, "  %d. %s\n", s.Number, s.Instruction)
		}
		if out.Help.QuickFix != "" {
			fmt.Fprintf(w, "Quick fix: %s\n", out.Help.QuickFix)
		}
		if out.Suggestions.Primary != "" {
			fmt.Fprintf(w, "Suggestion: %s\n", out.Suggestions.Primary)
		}
		if out.Notification != nil {
			labels := make([]string, 0, len(out.Notification.Actions))
			for _, a := range out.Notification.Actions {
				labels = append(labels, a.Label)
			}
			fmt.Fprintf(w, "Actions: %s\n", strings.Join(labels, ", "))
		}

		if out.FollowUpErr != nil {
			fmt.Fprintf(w, "Recovery action failed: %v\n", out.FollowUpErr)
			return out
		}
		if out.FollowUp == nil {
			return out
		}
		fmt.Fprintln(w, "\nAfter recovery action:")
		out = out.FollowUp
	}
}
