// Package testutil provides helpers for testing CLI commands: captured
// renderers and the context the root command would build.
package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/nutripipe/internal/cli/config"
	"github.com/leapstack-labs/nutripipe/internal/cli/output"
	base "github.com/leapstack-labs/nutripipe/internal/testutil"
)

// TestRenderer is a Renderer whose stdout and stderr are captured.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a capturing renderer with the given mode and
// terminal state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto creates an auto-mode renderer. Without a terminal it
// renders markdown.
func NewTestRendererAuto() *TestRenderer {
	return NewTestRenderer(output.ModeAuto, false)
}

// NewTestRendererMarkdown creates a markdown renderer.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a JSON renderer.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns everything written to stdout.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns everything written to stderr.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails the test when s contains terminal escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks for balanced code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

// AssertOutputMode checks that captured output fits the expected mode.
// Markdown and JSON never carry escape codes; JSON stdout must parse.
func AssertOutputMode(t *testing.T, tr *TestRenderer, mode output.OutputMode) {
	t.Helper()

	switch mode {
	case output.ModeMarkdown:
		AssertNoANSI(t, tr.Output()+tr.ErrorOutput())
	case output.ModeJSON:
		AssertNoANSI(t, tr.Output()+tr.ErrorOutput())
		if out := strings.TrimSpace(tr.Output()); out != "" && out[0] != '{' && out[0] != '[' {
			t.Errorf("JSON output does not start with an object or array: %q", out)
		}
	}
}

// CommandContext returns a context carrying cfg, a test logger and the
// renderer, as the root command would prepare it.
func CommandContext(t *testing.T, cfg *config.Config, tr *TestRenderer) context.Context {
	t.Helper()
	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, base.NewTestLogger(t))
	return output.WithRenderer(ctx, tr.Renderer)
}

// FixtureConfig returns a config that reads the fixture files and writes
// the output and state database into the fixture directory.
func FixtureConfig(fx base.Fixture) *config.Config {
	return &config.Config{
		Measurements: fx.Measurements,
		Nutrients:    fx.Nutrients,
		Foods:        fx.Foods,
		Output:       filepath.Join(fx.Dir, config.DefaultOutput),
		Delimiter:    config.DefaultDelimiter,
		StatePath:    filepath.Join(fx.Dir, "state.db"),
		LogFormat:    config.DefaultLogFormat,
		OutputFormat: config.DefaultOutputFormat,
	}
}
