package cmd

import (
	"fmt"
	"log/slog"

	"github.com/brensch/rarsweep/internal/db"

	"github.com/spf13/cobra"
)

var exportFile string

// exportCmd saves the event log to a Parquet file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save the event log to a Parquet file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		conn, err := requireDB()
		if err != nil {
			return err
		}

		logger.Info("Exporting event log...", slog.String("file", exportFile))
		if _, err := db.ExportParquet(cmd.Context(), conn, exportFile, logger); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "rarsweep_events.parquet", "Destination Parquet file")
}
