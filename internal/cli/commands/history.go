package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/leapstack-labs/nutripipe/internal/cli/config"
	"github.com/leapstack-labs/nutripipe/internal/cli/output"
	"github.com/leapstack-labs/nutripipe/internal/state"
	"github.com/leapstack-labs/nutripipe/pkg/table"
	"github.com/spf13/cobra"
)

// runJSON is the JSON form of a recorded run.
type runJSON struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMS   int64      `json:"duration_ms"`
	Measurements string     `json:"measurements"`
	Nutrients    string     `json:"nutrients"`
	Foods        string     `json:"foods"`
	Output       string     `json:"output"`
	FoodCount    int        `json:"food_count"`
	Features     int        `json:"features"`
	Unmapped     int        `json:"unmapped"`
	Discarded    int        `json:"discarded"`
	Error        string     `json:"error,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long:  `List pipeline runs recorded in the state database, newest first.`,
		Example: `  # Show the last 20 runs
  nutripipe history

  # Show the last 5 runs as JSON
  nutripipe history --limit 5 --output-format json`,
		Aliases: []string{"runs"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.GetConfig(ctx)
			r := output.FromContext(ctx)

			if cfg.StatePath != ":memory:" {
				if _, err := os.Stat(cfg.StatePath); errors.Is(err, fs.ErrNotExist) {
					return renderHistory(r, nil)
				}
			}

			store, err := openStore(ctx, cfg.StatePath, config.GetLogger(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			return renderHistory(r, runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func renderHistory(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]runJSON, len(runs))
		for i, run := range runs {
			out[i] = runJSON{
				ID:           run.ID,
				Status:       string(run.Status),
				StartedAt:    run.StartedAt,
				CompletedAt:  run.CompletedAt,
				DurationMS:   run.Duration().Milliseconds(),
				Measurements: run.MeasurementsPath,
				Nutrients:    run.NutrientsPath,
				Foods:        run.FoodsPath,
				Output:       run.OutputPath,
				FoodCount:    run.Foods,
				Features:     run.Features,
				Unmapped:     run.Unmapped,
				Discarded:    run.Discarded,
				Error:        run.Error,
			}
		}
		return r.JSON(out)
	}

	if len(runs) == 0 {
		r.Println("No runs recorded.")
		return nil
	}

	r.Header("Run history")
	return r.Table(historyTable(runs), len(runs))
}

// historyTable lays runs out as a table for text and markdown rendering.
func historyTable(runs []*state.Run) *table.Table {
	n := len(runs)
	ids := make([]any, n)
	statuses := make([]any, n)
	started := make([]any, n)
	durations := make([]any, n)
	foods := make([]any, n)
	features := make([]any, n)
	unmapped := make([]any, n)
	errs := make([]any, n)

	for i, run := range runs {
		ids[i] = run.ID
		statuses[i] = string(run.Status)
		started[i] = run.StartedAt.Local().Format(time.DateTime)
		if run.CompletedAt != nil {
			durations[i] = run.Duration().Round(time.Millisecond).String()
		}
		foods[i] = int64(run.Foods)
		features[i] = int64(run.Features)
		unmapped[i] = int64(run.Unmapped)
		errs[i] = run.Error
	}

	return table.MustNew(
		table.NewColumn("id", table.KindString, ids),
		table.NewColumn("status", table.KindString, statuses),
		table.NewColumn("started", table.KindString, started),
		table.NewColumn("duration", table.KindString, durations),
		table.NewColumn("foods", table.KindInt, foods),
		table.NewColumn("features", table.KindInt, features),
		table.NewColumn("unmapped", table.KindInt, unmapped),
		table.NewColumn("error", table.KindString, errs),
	)
}
