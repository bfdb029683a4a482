package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// Pivoter reshapes long-format measurements into one row per food and one
// column per nutrient id.
//
// Duplicate (food, nutrient) measurements keep the first amount in input
// order; later ones are dropped and counted in Diagnostics. This is a
// deliberate lossy reduction, not an error.
type Pivoter struct {
	logger *slog.Logger
}

// NewPivoter creates a Pivoter. A nil logger discards output.
func NewPivoter(logger *slog.Logger) *Pivoter {
	return &Pivoter{logger: orDiscard(logger)}
}

// Name returns "pivot".
func (p *Pivoter) Name() string { return "pivot" }

// Prepare is a no-op; the pivot needs no side data.
func (p *Pivoter) Prepare(context.Context) error { return nil }

// Apply pivots t, which must hold fdc_id, nutrient_id and amount columns.
// The fdc_id column stays in the result as its leading column.
func (p *Pivoter) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	if err := checkInput(p.Name(), t, FoodIDColumn, NutrientIDColumn, AmountColumn); err != nil {
		return nil, err
	}

	p.logger.Info("pivoting measurements to wide format", slog.Int("rows", t.NumRows()))

	out, stats, err := table.Pivot(t, FoodIDColumn, NutrientIDColumn, AmountColumn)
	if err != nil {
		return nil, fmt.Errorf("pivot: %w", err)
	}

	if stats.Discarded > 0 {
		p.logger.Debug("discarded duplicate measurements", slog.Int("count", stats.Discarded))
	}
	if stats.Skipped > 0 {
		p.logger.Warn("skipped measurements with missing keys", slog.Int("count", stats.Skipped))
	}
	if d := DiagnosticsFrom(ctx); d != nil {
		d.DiscardedDuplicates += stats.Discarded
		d.SkippedMeasurements += stats.Skipped
	}

	p.logger.Info("pivot complete",
		slog.Int("foods", out.NumRows()),
		slog.Int("nutrients", out.NumCols()-1))
	return out, nil
}
