package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mathesquivel/veleitoral-api/internal/ingest"
)

var clearFirst bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run a one-shot ingest of the data directory and exit",
	Long: `Ingest every TSE CSV bulletin in the configured data directory and
exit. With --clear the vote tables are truncated first, reproducing a
full reload.

The command prints a JSON result to stdout and exits 0 on success or
non-zero when any file fails.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&clearFirst, "clear", false, "truncate the vote tables before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.close(shutCtx)
	}()

	slog.Info("starting ingest", "data_dir", cfg.Ingest.DataDir, "clear", clearFirst)

	result, err := app.coordinator.Run(ctx, clearFirst)
	if err != nil {
		printResult("error", err.Error())
		return fmt.Errorf("ingest failed: %w", err)
	}

	printRunResult(result)
	if result.Status == ingest.StatusError {
		return fmt.Errorf("ingest completed with errors")
	}

	slog.Info("ingest completed successfully", "rows", result.RowsImported)
	return nil
}

func printRunResult(result *ingest.RunResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stdout, `{"status":%q}`+"\n", result.Status)
	}
}

func printResult(status, errMsg string) {
	result := map[string]string{"status": status}
	if errMsg != "" {
		result["error"] = errMsg
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stdout, `{"status":%q}`+"\n", status)
	}
}
