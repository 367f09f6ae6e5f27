package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brensch/rarsweep/internal/db"
	"github.com/brensch/rarsweep/internal/output"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
	"github.com/spf13/cobra"
)

var (
	// Config flags - bound in init()
	dbPath    string
	logFormat string
	logLevel  string
	logOutput string

	// Global instances populated in PersistentPreRunE
	rootLogger *slog.Logger
	loggerOnce sync.Once
	loggerErr  error
	dbConn     *sql.DB
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rarsweep",
	Short: "Find split rar archives in a directory tree and extract them.",
	Long: `rarsweep walks a directory tree, finds one multi-part archive set per
directory, extracts it with an external tool and reports progress as it goes.

The primary command is 'run'. When --db-path is given, every job is recorded in
a DuckDB event log that 'state' displays and 'export' writes to Parquet.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// --- 1. Initialize Logger ---
		if err := initLogger(); err != nil {
			return err
		}

		// --- 2. Initialize DuckDB Connection & Schema (optional) ---
		if dbPath == "" {
			return nil
		}
		if dbPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("failed to create database directory for %s: %w", dbPath, err)
			}
		}
		rootLogger.Debug("Initializing DuckDB connection", "path", dbPath)
		var err error
		dbConn, err = sql.Open("duckdb", dbPath)
		if err != nil {
			return fmt.Errorf("failed to open duckdb database (%s): %w", dbPath, err)
		}
		pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err = dbConn.PingContext(pingCtx); err != nil {
			dbConn.Close()
			dbConn = nil
			return fmt.Errorf("failed to ping duckdb database (%s): %w", dbPath, err)
		}
		if err := db.InitializeSchema(dbConn); err != nil {
			dbConn.Close()
			dbConn = nil
			return fmt.Errorf("failed to initialize database schema: %w", err)
		}
		rootLogger.Debug("Database schema initialized successfully.")
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		closeDB()
		return nil
	},
}

// Execute adds all child commands to the root command and runs it. Any error
// ends the process with exit code 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := executeContext(ctx)
	stop()
	if err != nil {
		if rootLogger != nil {
			rootLogger.Error("Command execution failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func executeContext(ctx context.Context) error {
	// Cobra skips PersistentPostRunE when RunE fails.
	defer closeDB()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "", "Path to DuckDB event log (:memory: for in-memory, empty disables the log)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "Log output destination (stderr, stdout, or file path)")

	rootCmd.Version = "0.1.0"

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(inspectCmd)
}

// initLogger configures the process-wide logger exactly once, before any
// sink worker starts.
func initLogger() error {
	loggerOnce.Do(func() {
		var level slog.Level
		switch strings.ToLower(logLevel) {
		case "trace":
			level = output.LevelTrace
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var logWriter io.Writer = os.Stderr
		if logOutput != "" && strings.ToLower(logOutput) != "stderr" {
			if strings.ToLower(logOutput) == "stdout" {
				logWriter = os.Stdout
			} else {
				f, err := os.OpenFile(logOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err != nil {
					loggerErr = fmt.Errorf("failed to open log file %s: %w", logOutput, err)
					return
				}
				logWriter = f
			}
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if logFormat == "json" {
			handler = slog.NewJSONHandler(logWriter, opts)
		} else {
			handler = slog.NewTextHandler(logWriter, opts)
		}
		rootLogger = slog.New(handler)
		slog.SetDefault(rootLogger)
		rootLogger.Debug("Logger initialized", "level", level.String(), "format", logFormat, "output", logOutput)
	})
	return loggerErr
}

// Helper to get logger
func getLogger() *slog.Logger {
	if rootLogger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return rootLogger
}

// closeDB releases the DuckDB connection, if one is open.
func closeDB() {
	if dbConn == nil {
		return
	}
	if err := dbConn.Close(); err != nil {
		getLogger().Error("Failed to close DuckDB connection cleanly", "error", err)
	}
	dbConn = nil
}

// Helper to get DB connection; nil when --db-path is empty.
func getDB() *sql.DB {
	return dbConn
}

func requireDB() (*sql.DB, error) {
	if dbConn == nil {
		return nil, fmt.Errorf("this command needs the event log, set --db-path")
	}
	return dbConn, nil
}
