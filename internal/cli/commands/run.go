package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/nutripipe/internal/cli/config"
	"github.com/leapstack-labs/nutripipe/internal/cli/output"
	"github.com/leapstack-labs/nutripipe/internal/pipeline"
	"github.com/leapstack-labs/nutripipe/internal/state"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	NoExport  bool
	NoHistory bool
}

// runSummary is the JSON form of a finished run.
type runSummary struct {
	RunID               string  `json:"run_id,omitempty"`
	Status              string  `json:"status"`
	Output              string  `json:"output"`
	Foods               int     `json:"foods"`
	Features            int     `json:"features"`
	UnmappedNutrients   []int64 `json:"unmapped_nutrients"`
	DiscardedDuplicates int     `json:"discarded_duplicates"`
	SkippedMeasurements int     `json:"skipped_measurements"`
	UnmatchedFoods      int     `json:"unmatched_foods"`
	ExportedTo          string  `json:"exported_to,omitempty"`
	DurationMS          int64   `json:"duration_ms"`
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the nutrition table",
		Long: `Pivot the measurements, rename nutrient columns and join food metadata,
then write the result to the output CSV.

Every run is recorded in the state database (see 'nutripipe history').
When an export target is configured the final table is also written to it.`,
		Example: `  # Run with files in the current directory
  nutripipe run

  # Run with explicit inputs
  nutripipe run --measurements data/food_nutrient.csv --nutrients data/nutrient.csv \
    --foods data/food.csv -o Nutrition_Database.csv

  # Also load the result into DuckDB
  nutripipe run --export-type duckdb --export-path nutrition.duckdb`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoExport, "no-export", false, "Skip the configured export target")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the run in the state database")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	r := output.FromContext(ctx)
	target := exportTarget(cfg, opts)

	pcfg, err := pipelineConfig(cfg, logger)
	if err != nil {
		return err
	}

	if opts.NoHistory {
		res, err := execute(ctx, cfg, pcfg, opts, logger)
		if err != nil {
			return err
		}
		return renderRun(r, "", res, target)
	}

	store, err := openStore(ctx, cfg.StatePath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.CreateRun(ctx, state.RunInputs{
		MeasurementsPath: cfg.Measurements,
		NutrientsPath:    cfg.Nutrients,
		FoodsPath:        cfg.Foods,
		OutputPath:       cfg.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	logger.Debug("run started", slog.String("run_id", run.ID))

	res, runErr := execute(ctx, cfg, pcfg, opts, logger)

	// The outcome is recorded even when ctx was cancelled.
	status, stats, msg := runOutcome(res, runErr)
	if err := store.CompleteRun(context.WithoutCancel(ctx), run.ID, status, stats, msg); err != nil {
		logger.Warn("failed to record run outcome", slog.String("run_id", run.ID), slog.Any("error", err))
	}

	if runErr != nil {
		return runErr
	}
	return renderRun(r, run.ID, res, target)
}

// execute runs the pipeline and the optional export.
func execute(ctx context.Context, cfg *config.Config, pcfg pipeline.Config, opts *RunOptions, logger *slog.Logger) (*pipeline.Result, error) {
	res, err := pipeline.New(pcfg).Run(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Export.Enabled() && !opts.NoExport {
		if err := exportTable(ctx, cfg.Export, res.Table, logger); err != nil {
			return res, err
		}
	}
	return res, nil
}

func exportTarget(cfg *config.Config, opts *RunOptions) string {
	if !cfg.Export.Enabled() || opts.NoExport {
		return ""
	}
	return cfg.Export.Type + ":" + cfg.Export.Table
}

// runOutcome maps a pipeline result and error onto a recorded run status.
func runOutcome(res *pipeline.Result, err error) (state.RunStatus, state.RunStats, string) {
	var stats state.RunStats
	if res != nil {
		stats = state.RunStats{
			Foods:     res.Foods,
			Features:  res.Features,
			Unmapped:  len(res.Diagnostics.UnmappedNutrients),
			Discarded: res.Diagnostics.DiscardedDuplicates,
		}
	}
	switch {
	case err == nil:
		return state.RunStatusCompleted, stats, ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return state.RunStatusCancelled, stats, err.Error()
	default:
		return state.RunStatusFailed, stats, err.Error()
	}
}

func renderRun(r *output.Renderer, runID string, res *pipeline.Result, exported string) error {
	d := res.Diagnostics
	unmapped := d.UnmappedNutrients
	if unmapped == nil {
		unmapped = []int64{}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runSummary{
			RunID:               runID,
			Status:              string(state.RunStatusCompleted),
			Output:              res.OutputPath,
			Foods:               res.Foods,
			Features:            res.Features,
			UnmappedNutrients:   unmapped,
			DiscardedDuplicates: d.DiscardedDuplicates,
			SkippedMeasurements: d.SkippedMeasurements,
			UnmatchedFoods:      d.UnmatchedFoods,
			ExportedTo:          exported,
			DurationMS:          res.Duration.Milliseconds(),
		})
	}

	r.Header("Run complete")
	if runID != "" {
		r.KeyValue("Run", runID)
	}
	r.KeyValue("Output", res.OutputPath)
	r.KeyValue("Foods", r.Count(res.Foods))
	r.KeyValue("Features", r.Count(res.Features))
	if exported != "" {
		r.KeyValue("Exported", exported)
	}
	r.KeyValue("Duration", res.Duration.Round(time.Millisecond).String())

	if len(unmapped) > 0 {
		ids := make([]string, len(unmapped))
		for i, id := range unmapped {
			ids[i] = strconv.FormatInt(id, 10)
		}
		r.Warning(fmt.Sprintf("%d nutrient ids have no metadata: %s", len(unmapped), strings.Join(ids, ", ")))
	}
	if d.DiscardedDuplicates > 0 {
		r.Warning(fmt.Sprintf("%s duplicate measurements discarded (first value kept)", r.Count(d.DiscardedDuplicates)))
	}
	if d.UnmatchedFoods > 0 {
		r.Warning(fmt.Sprintf("%s foods have no metadata row", r.Count(d.UnmatchedFoods)))
	}
	r.Success("Nutrition table written")
	return nil
}
