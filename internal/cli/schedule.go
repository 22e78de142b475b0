package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/standings/internal/control"
)

var (
	scheduleCron   string
	schedulePort   int
	scheduleRunNow bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the ETL on a cron schedule and serve health and metrics",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron spec, overrides schedule.cron")
	scheduleCmd.Flags().IntVar(&schedulePort, "port", 0, "health server port, overrides server.port")
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "trigger a run immediately on start")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if scheduleCron != "" {
		cfg.Schedule.Cron = scheduleCron
	}
	if schedulePort != 0 {
		cfg.Server.Port = schedulePort
	}
	if cfg.Schedule.Cron == "" {
		err := errors.New("no schedule: set schedule.cron or --cron")
		slog.Error("Invalid config", "error", err)
		return err
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
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	scheduler, err := control.NewScheduler(app, cfg.Schedule.Cron, cfg.Server.Port)
	if err != nil {
		return err
	}

	slog.Info("Standings scheduler started", "config", cfgPath, "cron", cfg.Schedule.Cron, "port", cfg.Server.Port)
	return scheduler.Start(ctx, scheduleRunNow)
}
