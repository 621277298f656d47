package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [path]",
		Short: "Write the upload template (header and sample row)",
		Long:  "Writes the tab-separated upload template to path, or to stdout when no path is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return core.WriteTemplate(cmd.OutOrStdout(), core.ListingSchema())
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			if err := core.WriteTemplate(f, core.ListingSchema()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", args[0])
			return nil
		},
	}
}
