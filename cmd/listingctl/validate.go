package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var maxSize int64
	var showAll bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and validate an upload file without submitting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseFile(cmd.Context(), args[0], maxSize)
			if err != nil {
				return err
			}

			limit := core.DefaultErrorDisplayLimit
			if showAll {
				limit = len(result.Errors()) + 1
			}
			printParseSummary(cmd.OutOrStdout(), result, limit)

			if len(result.Invalid) > 0 {
				return fmt.Errorf("%d of %d rows failed validation", len(result.Invalid), result.Total)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&maxSize, "max-size", core.DefaultMaxFileSize, "maximum file size in bytes")
	cmd.Flags().BoolVar(&showAll, "all", false, "print every validation error")
	return cmd
}

// parseFile opens path and runs the ingestion driver over it.
func parseFile(ctx context.Context, path string, maxSize int64) (*core.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	result, err := core.ParseListings(ctx, f, core.ListingSchema(), core.ParseOptions{MaxBytes: maxSize})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

func printParseSummary(w io.Writer, result *core.ParseResult, limit int) {
	fmt.Fprintf(w, "rows: %d  valid: %d  invalid: %d\n", result.Total, len(result.Rows), len(result.Invalid))
	if len(result.Ignored) > 0 {
		fmt.Fprintf(w, "ignored columns: %v\n", result.Ignored)
	}

	summary := core.Summarize(result.Errors(), limit)
	for _, msg := range summary.Shown {
		fmt.Fprintln(w, "  "+msg)
	}
	if label := summary.MoreLabel(); label != "" {
		fmt.Fprintln(w, "  "+label)
	}
}
