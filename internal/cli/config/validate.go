package config

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/leapstack-labs/nutripipe/pkg/adapter"
)

var (
	logFormats    = []string{"text", "json"}
	outputFormats = []string{"auto", "text", "markdown", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Measurements == "" || c.Nutrients == "" || c.Foods == "" {
		return fmt.Errorf("measurements, nutrients and foods paths are required")
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if _, err := c.MemoryLimitBytes(); err != nil {
		return err
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (want one of %v)", c.LogFormat, logFormats)
	}
	if !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output_format %q (want one of %v)", c.OutputFormat, outputFormats)
	}
	if c.Export.Enabled() && !adapter.IsRegistered(c.Export.Type) {
		return &adapter.UnknownAdapterError{Type: c.Export.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

// DelimiterRune returns the field delimiter. "tab" and `\t` select a tab.
func (c *Config) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size != len(c.Delimiter) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q: must be a single character other than quote or newline", c.Delimiter)
	}
	return r, nil
}

// MemoryLimitBytes parses memory_limit ("512MB", "2GiB"). Empty means no
// limit and returns 0.
func (c *Config) MemoryLimitBytes() (int64, error) {
	if c.MemoryLimit == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MemoryLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid memory_limit %q: %w", c.MemoryLimit, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("invalid memory_limit %q: too large", c.MemoryLimit)
	}
	return int64(n), nil //nolint:gosec // bounded above
}

// AdapterConfig converts the export section into an adapter configuration.
func (e *ExportConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     e.Type,
		Path:     e.Path,
		Host:     e.Host,
		Port:     e.Port,
		Database: e.Database,
		Username: e.User,
		Password: e.Password,
		Schema:   e.Schema,
		Options:  e.Options,
		Params:   e.Params,
	}
}
