// Package cli provides the command-line interface for nutripipe.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/leapstack-labs/nutripipe/internal/cli/commands"
	"github.com/leapstack-labs/nutripipe/internal/cli/config"
	"github.com/leapstack-labs/nutripipe/internal/cli/output"
	"github.com/leapstack-labs/nutripipe/internal/pipeline"
	"github.com/leapstack-labs/nutripipe/pkg/adapter"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// standalone commands run without loading nutripipe.yaml.
var standalone = []string{"help", "completion", "__complete", "version", "init"}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "nutripipe",
		Short: "nutripipe - nutrition table builder",
		Long: `nutripipe turns FoodData Central style CSV files into one wide nutrition table.

Measurements (food, nutrient, amount) are pivoted to one row per food,
nutrient id columns are renamed to "<Name>_<Unit>" labels, and food
descriptions and categories are joined on the left. The result is written
as CSV and can optionally be exported into DuckDB, SQLite or PostgreSQL.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if slices.Contains(standalone, cmd.Name()) {
				format, _ := cmd.Flags().GetString("output-format")
				r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format))
				cmd.SetContext(output.WithRenderer(ctx, r))
				return nil
			}

			cfg, used, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFormat)
			if used != "" {
				logger.Debug("using config file", slog.String("path", used))
			}

			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

			ctx = config.WithConfig(ctx, cfg)
			ctx = config.WithLogger(ctx, logger)
			ctx = output.WithRenderer(ctx, r)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./nutripipe.yaml)")
	pf.String("measurements", "", "Path to the food nutrient measurements CSV")
	pf.String("nutrients", "", "Path to the nutrient metadata CSV")
	pf.String("foods", "", "Path to the food metadata CSV")
	pf.StringP("output", "o", "", "Path of the output CSV")
	pf.String("delimiter", "", `Field delimiter for inputs and output ("tab" for a tab)`)
	pf.String("memory-limit", "", "Memory budget per loaded file, e.g. 512MB (empty for no limit)")
	pf.String("state", "", "Path to the run history database")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.String("log-format", "", "Log format (text|json)")
	pf.String("output-format", "", "Output format (auto|text|markdown|json)")
	pf.String("export-type", "", "Export the final table to a database ("+exportTypes()+")")
	pf.String("export-path", "", "Database file for duckdb or sqlite exports")
	pf.String("export-table", "", "Table name for the export")
	pf.String("export-database", "", "Database name for postgres exports")
	pf.String("export-host", "", "Database host for postgres exports")
	pf.Int("export-port", 0, "Database port for postgres exports")
	pf.String("export-user", "", "Database user for postgres exports")
	pf.String("export-schema", "", "Schema for postgres or duckdb exports")

	_ = rootCmd.RegisterFlagCompletionFunc("output-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("export-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.ListAdapters(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewPreviewCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func exportTypes() string {
	names := adapter.ListAdapters()
	if len(names) == 0 {
		return "none registered"
	}
	return strings.Join(names, "|")
}

// newLogger builds the process logger. Logs go to w so stdout stays
// reserved for command output.
func newLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command. Interrupts cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		return err
	}
	return nil
}

// errorHint suggests a fix for errors a user can act on.
func errorHint(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrMissingResource):
		return "check --measurements, --nutrients and --foods (or the matching keys in nutripipe.yaml)"
	case errors.Is(err, pipeline.ErrResourceExhausted):
		return "process the measurements in chunks (split the file and run each part) or give the run more memory (raise --memory-limit)"
	case errors.Is(err, pipeline.ErrMissingColumn):
		return "check --delimiter matches the input files"
	default:
		return ""
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for nutripipe.

To load completions:

Bash:
  $ source <(nutripipe completion bash)

Zsh:
  $ nutripipe completion zsh > "${fpath[1]}/_nutripipe"

Fish:
  $ nutripipe completion fish | source

PowerShell:
  PS> nutripipe completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
