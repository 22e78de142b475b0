package cli

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/standings/internal/control"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent runs and their per-source outcome",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := control.OpenStorage(ctx, cfg.Loader, false, slog.Default())
	if err != nil {
		slog.Error("Failed to connect to storage", "error", err)
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	runs, err := st.History.RecentRuns(ctx, statusLimit)
	if err != nil {
		slog.Error("Failed to query run history", "error", err)
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "RUN\tFINISHED\tCLASSIFICATION\tSOURCE\tSTATE\tFETCHED\tLOADED\tERRORS")
	for _, run := range runs {
		for _, s := range run.Sources {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				run.RunID,
				run.FinishedAt.Format(time.RFC3339),
				run.Classification,
				s.Source,
				s.State,
				s.Fetched,
				s.Loaded,
				s.ErrorCount,
			)
		}
	}
	return w.Flush()
}
