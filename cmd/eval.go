package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/evalcmd"
)

func newEvalCmd(loadConfig evalcmd.ConfigLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Card identification evaluation tools",
		Long: `Evaluation tools for measuring how often region identification resolves the
expected card.

Datasets are JSONL or parquet files of labelled frames. Results are saved as
YAML and can be reported as text, JSON or CSV.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd(loadConfig))
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())

	return cmd
}
