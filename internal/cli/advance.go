package cli

import (
	"github.com/spf13/cobra"

	"jiraflow/internal/engine"
)

func newAdvanceCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "advance <issue-key>",
		Short: "Move an issue one stage forward",
		Long: `Move the issue one stage forward in the workflow.

Required fields of the target stage are auto-filled from their planning
counterparts first; fields that cannot be derived are prompted for.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			issue, err := app.fetchIssue(ctx, args[0])
			if err != nil {
				return err
			}

			res, err := app.Engine.Advance(ctx, issue, engine.Options{Force: force})
			return app.finishStep(ctx, res, err)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"proceed past a failed field auto-fill after reporting it")
	return cmd
}
