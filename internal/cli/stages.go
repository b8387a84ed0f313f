package cli

import (
	"github.com/spf13/cobra"

	"jiraflow/internal/workflow"
)

func newStagesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stages [category]",
		Short: "Print the workflow stage table",
		Long: `Print the ordered workflow stages, their glyphs, and required fields.
With a category argument, print that category's sequence instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			app.Printer.StageTable(category, app.Engine.Table().Stages(category))
			return nil
		},
	}
}

// workflowStageFor builds a placeholder stage row for statuses outside the
// table.
func workflowStageFor(status string) workflow.Stage {
	return workflow.Stage{Name: status, Glyph: "?"}
}
