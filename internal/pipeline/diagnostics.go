package pipeline

import "context"

// Diagnostics collects data-level findings that do not fail a run.
type Diagnostics struct {
	// DiscardedDuplicates counts measurement rows dropped because their
	// (food, nutrient) pair already had an amount.
	DiscardedDuplicates int
	// SkippedMeasurements counts measurement rows with a missing key.
	SkippedMeasurements int
	// UnmappedNutrients lists nutrient ids without metadata, in column order.
	UnmappedNutrients []int64
	// UnmatchedFoods counts foods without a metadata row.
	UnmatchedFoods int
	// DuplicateFoods counts food metadata rows ignored for a repeated id.
	DuplicateFoods int
}

type diagnosticsKey struct{}

// WithDiagnostics returns a context whose stages record findings into d.
func WithDiagnostics(ctx context.Context, d *Diagnostics) context.Context {
	return context.WithValue(ctx, diagnosticsKey{}, d)
}

// DiagnosticsFrom returns the collector attached to ctx, or nil.
func DiagnosticsFrom(ctx context.Context) *Diagnostics {
	d, _ := ctx.Value(diagnosticsKey{}).(*Diagnostics)
	return d
}
