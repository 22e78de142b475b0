package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	redisclient "github.com/vietddude/standings/internal/infra/redis"
)

var deadLetterLimit int

var deadLetterCmd = &cobra.Command{
	Use:   "deadletter [run_id]",
	Short: "Inspect archived error events",
	Long: `Without arguments, list the runs that have archived error events.
With a run id, print the events of that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeadLetter,
}

func init() {
	deadLetterCmd.Flags().IntVar(&deadLetterLimit, "limit", 20, "number of runs to list")
	rootCmd.AddCommand(deadLetterCmd)
}

func runDeadLetter(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.Redis.URL == "" {
		err := errors.New("redis.url is not configured")
		slog.Error("Dead-letter store unavailable", "error", err)
		return err
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	dl := redisclient.NewDeadLetter(client, cfg.Redis.TTL)

	ctx := context.Background()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', tabwriter.Debug)

	if len(args) == 0 {
		runs, err := dl.Runs(ctx, deadLetterLimit)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, "RUN\tEVENTS")
		for _, runID := range runs {
			n, err := dl.Count(ctx, runID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "%s\t%d\n", runID, n)
		}
		return w.Flush()
	}

	events, err := dl.List(ctx, args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, "TIME\tSOURCE\tCATEGORY\tMESSAGE")
	for _, e := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Source, e.Category, e.Message)
	}
	return w.Flush()
}
