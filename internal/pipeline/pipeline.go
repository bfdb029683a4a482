// Package pipeline turns FoodData Central style nutrition files into a wide
// table with one row per food and one column per nutrient.
//
// A Pipeline threads a table through an ordered list of stages:
//
//	measurements -> Pivoter -> Renamer -> Enricher -> output
//
// Each stage is prepared once (loading its side file) before its first
// Apply. Any error aborts the run; nothing is written on failure.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// Config holds pipeline configuration.
type Config struct {
	// MeasurementsPath is the long-format food nutrient file.
	MeasurementsPath string
	// NutrientsPath is the nutrient metadata file.
	NutrientsPath string
	// FoodsPath is the food metadata file.
	FoodsPath string
	// OutputPath is where the final table is written. Empty skips writing.
	OutputPath string
	// Delimiter separates fields in every input and the output. Zero means ','.
	Delimiter rune
	// MemoryLimit bounds the estimated bytes held per loaded file. Zero
	// means unlimited.
	MemoryLimit int64
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Result describes a completed run.
type Result struct {
	Table       *table.Table
	OutputPath  string
	Foods       int
	Features    int
	Diagnostics Diagnostics
	Duration    time.Duration
}

// Pipeline runs stages in order over the measurement table.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	stages   []Stage
	prepared []bool
}

// New creates the standard pivot, rename, enrich pipeline for cfg.
func New(cfg Config) *Pipeline {
	logger := orDiscard(cfg.Logger)
	opts := SourceOptions{Delimiter: cfg.Delimiter, MemoryLimit: cfg.MemoryLimit}
	return NewWithStages(cfg,
		NewPivoter(logger),
		NewRenamer(cfg.NutrientsPath, opts, logger),
		NewEnricher(cfg.FoodsPath, opts, logger),
	)
}

// NewWithStages creates a pipeline with a custom stage list.
func NewWithStages(cfg Config, stages ...Stage) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		logger:   orDiscard(cfg.Logger),
		stages:   stages,
		prepared: make([]bool, len(stages)),
	}
}

// Stages returns the stage list in execution order.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// LoadMeasurements reads the fdc_id, nutrient_id and amount columns of the
// measurement file.
func (p *Pipeline) LoadMeasurements(ctx context.Context) (*table.Table, error) {
	p.logger.Info("loading measurements", slog.String("path", p.cfg.MeasurementsPath))

	t, err := table.ReadCSVFile(ctx, p.cfg.MeasurementsPath, table.ReadOptions{
		Columns:   []string{FoodIDColumn, NutrientIDColumn, AmountColumn},
		Delimiter: p.cfg.Delimiter,
		MaxBytes:  p.cfg.MemoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load measurements: %w", classify(p.cfg.MeasurementsPath, err))
	}

	p.logger.Info("measurements loaded", slog.Int("rows", t.NumRows()))
	return t, nil
}

// Transform runs every stage over t. A stage is prepared right before its
// first Apply and stays prepared for later calls.
func (p *Pipeline) Transform(ctx context.Context, t *table.Table) (*table.Table, error) {
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !p.prepared[i] {
			p.logger.Debug("preparing stage", slog.String("stage", stage.Name()))
			if err := stage.Prepare(ctx); err != nil {
				return nil, err
			}
			p.prepared[i] = true
		}

		p.logger.Debug("applying stage", slog.String("stage", stage.Name()))
		out, err := stage.Apply(ctx, t)
		if err != nil {
			return nil, err
		}
		t = out
	}
	return t, nil
}

// Run loads the measurements, transforms them and writes the result to
// OutputPath when set. Diagnostics are collected into the result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	diag := DiagnosticsFrom(ctx)
	if diag == nil {
		diag = &Diagnostics{}
		ctx = WithDiagnostics(ctx, diag)
	}

	measurements, err := p.LoadMeasurements(ctx)
	if err != nil {
		return nil, err
	}

	final, err := p.Transform(ctx, measurements)
	if err != nil {
		return nil, err
	}

	if p.cfg.OutputPath != "" {
		p.logger.Info("writing output", slog.String("path", p.cfg.OutputPath))
		if err := table.WriteCSVFile(p.cfg.OutputPath, final, p.cfg.Delimiter); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
	}

	res := &Result{
		Table:       final,
		OutputPath:  p.cfg.OutputPath,
		Foods:       final.NumRows(),
		Features:    countFeatures(final),
		Diagnostics: *diag,
		Duration:    time.Since(start),
	}
	p.logger.Info("pipeline finished",
		slog.Int("foods", res.Foods),
		slog.Int("features", res.Features),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func countFeatures(t *table.Table) int {
	n := t.NumCols()
	for _, name := range append([]string{FoodIDColumn}, infoColumns...) {
		if t.Index(name) >= 0 {
			n--
		}
	}
	return n
}
