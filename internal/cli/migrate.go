package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/standings/internal/control"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the run history migrations of the configured loader",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	st, err := control.OpenStorage(context.Background(), cfg.Loader, true, slog.Default())
	if err != nil {
		slog.Error("Migration failed", "driver", cfg.Loader.Driver, "error", err)
		return err
	}
	slog.Info("Migrations applied", "driver", cfg.Loader.Driver)
	return st.Close()
}
