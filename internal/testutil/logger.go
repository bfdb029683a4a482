// Package testutil provides test helpers for structured logging and
// fixture files.
package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// LogBuffer captures JSON log records for assertions.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewCaptureLogger returns a debug-level JSON logger and the buffer it
// writes to.
func NewCaptureLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// Fixture holds the paths of a small nutrition dataset on disk.
type Fixture struct {
	Dir          string
	Measurements string
	Nutrients    string
	Foods        string
}

// NutritionFixture writes the three-food example dataset into a temp dir:
// two foods, nutrients 100 (Protein) and 200 (Fat).
func NutritionFixture(t testing.TB) Fixture {
	t.Helper()
	dir := t.TempDir()
	return Fixture{
		Dir: dir,
		Measurements: WriteFile(t, dir, "food_nutrient.csv",
			"id,fdc_id,nutrient_id,amount,data_points\n"+
				"1,1,100,5.0,1\n"+
				"2,1,200,3.0,1\n"+
				"3,2,100,7.0,1\n"),
		Nutrients: WriteFile(t, dir, "nutrient.csv",
			"id,name,unit_name,nutrient_nbr,rank\n"+
				"100,Protein,G,203,600\n"+
				"200,Fat,G,204,800\n"),
		Foods: WriteFile(t, dir, "food.csv",
			"fdc_id,data_type,description,food_category_id,publication_date\n"+
				"1,sr_legacy_food,Apple,10,2020-01-01\n"+
				"2,sr_legacy_food,Banana,10,2020-01-02\n"),
	}
}
