package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"jiraflow/internal/engine"
)

func newCompleteCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "complete <issue-key>",
		Short: "Drive an issue through every remaining stage",
		Long: `Run the issue through each remaining workflow stage in order, with a
pacing delay between steps. A rejection stops the chain; completed steps
are kept. Missing required fields pause the chain and are prompted for,
then the chain resumes from where it stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			issue, err := app.fetchIssue(ctx, args[0])
			if err != nil {
				return err
			}

			table := app.Engine.Table()
			start := table.Normalize(issue.Status)
			remaining := table.Remaining(start, issue.Category)
			if len(remaining) > 0 {
				app.Printer.ChainHeader(issue.Key, start, remaining)
			}

			report, err := app.Engine.RunToCompletion(ctx, issue, engine.Options{Force: force})
			return app.finishChain(ctx, report, err)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"proceed past a failed field auto-fill after reporting it")
	return cmd
}

// finishChain renders a chain outcome, prompting and resuming on a
// missing-field suspension.
func (app *App) finishChain(ctx context.Context, report *engine.RunReport, err error) error {
	if err == nil {
		app.Printer.Report(report)
		return nil
	}

	var mf *engine.MissingFieldsError
	if errors.As(err, &mf) {
		if len(report.Completed) > 0 {
			app.Printer.Report(report)
		}
		return app.resumeWithInput(ctx, mf)
	}
	var rej *engine.RejectedError
	if errors.As(err, &rej) {
		app.Printer.Report(report)
		app.Printer.Rejected(rej)
		return NewExitError(1)
	}

	app.Printer.Report(report)
	app.Printer.Failuref("%v", err)
	return NewExitError(1)
}
