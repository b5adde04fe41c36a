package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/itinerary/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check an itinerary without generating a document",
	Args:  cobra.ExactArgs(1),
	Run:   runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	req, err := readRequest(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	res := validation.ValidateItinerary(req, time.Now())
	printValidation(os.Stdout, res)
	if !res.Valid {
		os.Exit(1)
	}
}

func printValidation(out io.Writer, res validation.Result) {
	fmt.Fprintln(out, res.Summary)
	if len(res.Errors) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "SEVERITY\tFIELD\tMESSAGE")
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.Severity, validation.DisplayName(e.Field), e.Message)
	}
	_ = w.Flush()
}
