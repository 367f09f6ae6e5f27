package cmd

import (
	"fmt"
	"log/slog"

	"github.com/brensch/rarsweep/internal/config"
	"github.com/brensch/rarsweep/internal/db"
	"github.com/brensch/rarsweep/internal/orchestrator"
	"github.com/brensch/rarsweep/internal/output"

	"github.com/spf13/cobra"
)

// Flags for the run command
var (
	runPath          string
	runRemove        bool
	runOutput        string
	runSkipCompleted bool
	runTool          string
	runExt           string
)

// runCmd walks the tree and extracts every archive set it finds.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract every archive set below --path",
	Long: `Walks --path depth first, skipping hidden directories. Each directory holding
a primary archive (movie.rar) is extracted in place with the external tool,
together with its volumes (movie.r00, movie.r01, ...).

Use --remove to delete the archive parts after a successful extraction.
Use --output to pick how progress is shown: stdout, log or fancy.
Failed extractions are logged and do not stop the walk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()

		outputType, err := config.ParseOutputType(runOutput)
		if err != nil {
			return err
		}
		cfg := config.Config{
			Root:          runPath,
			Remove:        runRemove,
			Output:        outputType,
			SkipCompleted: runSkipCompleted,
			Tool:          runTool,
			PrimaryExt:    runExt,
			DbPath:        dbPath,
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger.Debug("Configuration loaded", slog.Any("config", cfg))

		var recorder orchestrator.Recorder
		var runID string
		if conn := getDB(); conn != nil {
			ledger := db.NewLedger(conn, logger)
			recorder = ledger
			runID = ledger.RunID()
		}

		handler := output.NewHandler(cfg.Output, cmd.OutOrStdout(), logger)
		summary, err := orchestrator.Run(cmd.Context(), cfg, logger, handler, recorder)
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}

		if summary.Failed > 0 || summary.RemoveFailed > 0 {
			logger.Warn("Run finished with failures.",
				slog.String("run_id", runID),
				slog.Int("failed", summary.Failed),
				slog.Int("remove_failed", summary.RemoveFailed))
		} else {
			logger.Info("Run finished.", slog.String("run_id", runID), slog.Int("extracted", summary.Extracted))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runPath, "path", "p", "", "Root directory to walk (required)")
	runCmd.Flags().BoolVarP(&runRemove, "remove", "r", false, "Remove archive parts after a successful extraction")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", string(config.OutputStdout), "Progress output: stdout, log or fancy")
	runCmd.Flags().BoolVar(&runSkipCompleted, "skip-completed", false, "Skip archives the event log marks as extracted (needs --db-path)")
	runCmd.Flags().StringVar(&runTool, "tool", config.DefaultTool, "Extraction executable")
	runCmd.Flags().StringVar(&runExt, "ext", config.DefaultPrimaryExt, "Extension of the primary archive")
	_ = runCmd.MarkFlagRequired("path")
}
