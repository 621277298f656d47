// Command listingctl works with listing upload files from the shell:
// it writes the template, validates a file, and submits a file to the
// business API without going through the web server.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/JonMunkholm/visadir/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err and, when it maps to a known code, the coded
// user message.
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, "error:", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "listingctl",
		Short:         "Validate and submit business listing upload files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newTemplateCmd(), newValidateCmd(), newSubmitCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
