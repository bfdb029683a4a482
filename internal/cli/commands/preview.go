package commands

import (
	"fmt"

	"github.com/leapstack-labs/nutripipe/internal/cli/config"
	"github.com/leapstack-labs/nutripipe/internal/cli/output"
	"github.com/leapstack-labs/nutripipe/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the first rows of the nutrition table",
		Long: `Run the pipeline in memory and print the first rows of the result.
Nothing is written and the run is not recorded.`,
		Example: `  # Show the first 10 foods
  nutripipe preview

  # Show 3 foods as JSON
  nutripipe preview -n 3 --output-format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rows < 0 {
				return fmt.Errorf("--rows must not be negative")
			}

			ctx := cmd.Context()
			cfg := config.GetConfig(ctx)
			logger := config.GetLogger(ctx)

			pcfg, err := pipelineConfig(cfg, logger)
			if err != nil {
				return err
			}
			pcfg.OutputPath = ""

			res, err := pipeline.New(pcfg).Run(ctx)
			if err != nil {
				return err
			}

			return output.FromContext(ctx).Table(res.Table.Head(rows), res.Table.NumRows())
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "Number of rows to show")

	return cmd
}
