package cmd

import (
	"github.com/brensch/rarsweep/internal/db"

	"github.com/spf13/cobra"
)

var stateLimit int
var stateFilterEvent string

// stateCmd prints the event log history.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "View the event log history of extraction jobs",
	Long: `Queries the DuckDB event log and displays job history, newest first.
Use flags to filter by event type and limit the output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		conn, err := requireDB()
		if err != nil {
			return err
		}

		logger.Debug("Querying database event log", "event_filter", stateFilterEvent, "limit", stateLimit)
		if err := db.DisplayJobHistory(cmd.Context(), conn, cmd.OutOrStdout(), stateFilterEvent, stateLimit); err != nil {
			logger.Error("Failed to display state history", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	stateCmd.Flags().IntVarP(&stateLimit, "limit", "n", 50, "Limit the number of log records displayed")
	stateCmd.Flags().StringVarP(&stateFilterEvent, "event", "e", "", "Filter records by event type (e.g., extract_end, extract_error, remove_error)")
}
