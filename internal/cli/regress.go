package cli

import (
	"github.com/spf13/cobra"
)

func newRegressCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "regress <issue-key>",
		Short: "Move an issue one stage backward",
		Long:  `Move the issue one stage backward in the workflow. No field gate applies.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			issue, err := app.fetchIssue(ctx, args[0])
			if err != nil {
				return err
			}

			res, err := app.Engine.Regress(ctx, issue)
			return app.finishStep(ctx, res, err)
		},
	}
}
