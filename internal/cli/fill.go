package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newFillCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <issue-key>",
		Short: "Auto-fill required fields without transitioning",
		Long: `Run the field auto-filler standalone: copy each unset required field
from its planning counterpart and report what was filled and what is
still missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			key := args[0]

			res, err := app.Filler.AutoFill(ctx, key)
			if err != nil {
				app.Printer.Failuref("auto-fill for %s: %v", key, err)
				return NewExitError(1)
			}

			if len(res.Filled) > 0 {
				app.Printer.Successf("%s: filled %s", key, strings.Join(res.Filled, ", "))
			} else {
				app.Printer.Infof("%s: nothing to fill", key)
			}
			if len(res.StillMissing) > 0 {
				app.Printer.Warnf("still missing: %s", strings.Join(res.StillMissing, ", "))
			}
			return nil
		},
	}
}
