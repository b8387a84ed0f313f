package cli

import (
	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your issues in active stages",
		Long:  `List issues assigned to the current identity that have not reached the final stage.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			table := app.Engine.Table()
			stages := table.Stages("")
			active := make([]string, 0, len(stages)-1)
			for _, s := range stages[:len(stages)-1] {
				active = append(active, s.Name)
			}

			issues, err := app.Store.ListAssignedIssues(ctx, active)
			if err != nil {
				app.Printer.Failuref("cannot list issues: %v", err)
				return NewExitError(1)
			}
			if len(issues) == 0 {
				app.Printer.Infof("no assigned issues in active stages")
				return nil
			}

			for _, issue := range issues {
				stage, ok := table.StageOf(table.Normalize(issue.Status))
				if !ok {
					// Tracker statuses outside the table still get a row.
					app.Printer.IssueLine(issue, workflowStageFor(issue.Status))
					continue
				}
				app.Printer.IssueLine(issue, stage)
			}
			return nil
		},
	}
}
