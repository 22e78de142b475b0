package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/vietddude/standings/internal/control"
	"github.com/vietddude/standings/internal/etl/report"
)

var (
	runSequential bool
	runOutputDir  string
	runJSON       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ETL once for the configured season",
	Long: `Run extracts, validates, transforms and loads one full season snapshot from
every enabled source. The process exits with status 2 when every source failed.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runSequential, "sequential", false, "run sources one after another")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "write raw and transformed JSON snapshots to this directory")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run report as JSON")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("sequential") {
		cfg.Sequential = runSequential
	}
	if runOutputDir != "" {
		cfg.OutputDir = runOutputDir
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := control.NewApp(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return err
	}

	r := app.RunOnce(ctx)
	if err := app.Close(); err != nil {
		slog.Warn("Error during shutdown", "error", err)
	}

	out := cmd.OutOrStdout()
	if runJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(out, report.Text(r))
	}

	if code := control.ExitCode(r.Classification); code != 0 {
		cmd.SilenceErrors = true
		return &ExitError{Code: code, Err: fmt.Errorf("run %s classified %s", r.RunID, r.Classification)}
	}
	return nil
}
