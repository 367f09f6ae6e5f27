package cmd

import (
	"github.com/brensch/rarsweep/internal/inspector"

	"github.com/spf13/cobra"
)

// inspectCmd summarizes an exported event log.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file.parquet>",
	Short: "Summarize an event log exported with 'export'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := inspector.InspectParquet(args[0], getLogger())
		if err != nil {
			return err
		}
		report.Print(cmd.OutOrStdout())
		return nil
	},
}
