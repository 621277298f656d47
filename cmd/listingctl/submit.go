package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/JonMunkholm/visadir/internal/bizapi"
	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/spf13/cobra"
)

type submitOptions struct {
	api         string
	token       string
	concurrency int
	rate        float64
	timeout     time.Duration
	maxSize     int64
}

func newSubmitCmd() *cobra.Command {
	opts := submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Validate a file and submit its valid rows to the business API",
		Long: `Parses and validates the file, prints validation errors, then submits
every valid row. Exits non-zero if the file cannot be parsed or any
submission fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.api, "api", os.Getenv("BUSINESS_API_URL"), "business API base URL")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("BUSINESS_API_TOKEN"), "business API bearer token")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", core.DefaultSubmitConcurrency, "parallel submissions")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "maximum submissions per second (0 = unlimited)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", bizapi.DefaultTimeout, "timeout per API call")
	cmd.Flags().Int64Var(&opts.maxSize, "max-size", core.DefaultMaxFileSize, "maximum file size in bytes")
	return cmd
}

func runSubmit(cmd *cobra.Command, path string, opts submitOptions) error {
	if opts.api == "" {
		return errors.New("--api or BUSINESS_API_URL is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := parseFile(ctx, path, opts.maxSize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printParseSummary(out, result, core.DefaultErrorDisplayLimit)

	if len(result.Rows) == 0 {
		fmt.Fprintln(out, "nothing to submit")
		return nil
	}

	client := bizapi.NewClient(opts.api, opts.token, opts.timeout)
	submitter := core.NewSubmitter(client, core.SubmitConfig{
		Concurrency:   opts.concurrency,
		RatePerSecond: opts.rate,
	})

	progress := cmd.ErrOrStderr()
	outcome := submitter.Submit(ctx, result.Rows, func(done, total int) {
		fmt.Fprintf(progress, "\rsubmitted %d/%d", done, total)
	})
	fmt.Fprintln(progress)

	fmt.Fprintf(out, "submitted: %d  failed: %d\n", outcome.Success, outcome.Failed)
	summary := core.Summarize(outcome.Errors, core.DefaultErrorDisplayLimit)
	for _, msg := range summary.Shown {
		fmt.Fprintln(out, "  "+msg)
	}
	if label := summary.MoreLabel(); label != "" {
		fmt.Fprintln(out, "  "+label)
	}

	if outcome.Failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", outcome.Failed, len(result.Rows))
	}
	return nil
}
