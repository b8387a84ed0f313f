// Package cli wires the jiraflow commands.
//
// The [App] struct carries the injected collaborators (store, engine,
// printer) so tests can run commands against mocks; [NewRootCommand] builds
// the cobra tree around it. [Execute] is the entry point used by main.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jiraflow/internal/assign"
	"jiraflow/internal/autofill"
	"jiraflow/internal/config"
	"jiraflow/internal/engine"
	"jiraflow/internal/jira"
	"jiraflow/internal/output"
	"jiraflow/internal/transition"
	"jiraflow/internal/workflow"
)

// App holds the wired collaborators every command works against.
//
// Production wiring comes from [NewApp]; tests construct an App directly
// with mocks.
type App struct {
	Config  *config.Config
	Store   jira.IssueStore
	Engine  *engine.Engine
	Filler  *autofill.Filler
	Printer *output.Printer

	// NoInput disables the interactive missing-field form; suspensions
	// exit with code 2 instead.
	NoInput bool

	// PromptFields collects values for the named fields. Defaults to the
	// interactive terminal form; tests inject a canned responder.
	PromptFields func(fields []string) (map[string]string, error)
}

// NewApp builds the production [App] from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	catalog := jira.NewCatalog()
	client := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Username, cfg.Jira.Token, catalog)
	client.SetMaxRetries(cfg.Engine.MaxRetries)

	def := cfg.Definition()
	if cfg.Workflow.TableFile != "" {
		loaded, err := workflow.LoadDefinition(cfg.Workflow.TableFile)
		if err != nil {
			return nil, err
		}
		def = loaded
	}
	table := workflow.New(def)
	filler := autofill.New(client, cfg.FieldPairs())
	assigner := assign.New(client, cfg.RoleMap())

	eng := engine.New(table, client, filler, assigner)
	eng.SetResolver(transition.NewResolverWithMarker(cfg.Workflow.CandidateMarker))
	eng.SetAliases(cfg.Workflow.TransitionAliases)
	eng.SetExemptCategories(cfg.Workflow.ExemptCategories)
	eng.SetPace(cfg.Pace())

	printer := output.NewPrinter()
	printer.SetTruncateLength(cfg.Output.TruncateLength)
	if cfg.Output.NoColor {
		printer.SetNoColor()
	}
	eng.SetProgressCallback(printer.Progress)

	return &App{
		Config:       cfg,
		Store:        client,
		Engine:       eng,
		Filler:       filler,
		Printer:      printer,
		PromptFields: promptMissingFields,
	}, nil
}

// NewRootCommand builds the jiraflow command tree around the given app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "jiraflow",
		Short:         "Drive tracker issues through the workflow",
		Long:          "jiraflow moves issues through the ordered workflow stages,\nauto-filling required fields and assigning role owners along the way.",
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&app.NoInput, "no-input", false,
		"never prompt; exit with the structured failure instead")

	root.AddCommand(newAdvanceCommand(app))
	root.AddCommand(newRegressCommand(app))
	root.AddCommand(newCompleteCommand(app))
	root.AddCommand(newFillCommand(app))
	root.AddCommand(newListCommand(app))
	root.AddCommand(newStagesCommand(app))

	return root
}

// ExecuteResult carries the outcome of a command run for the process exit.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig builds the app from cfg and runs the command line given in
// args. Exit codes come back in the result instead of terminating the
// process, which keeps this path testable.
func RunWithConfig(ctx context.Context, cfg *config.Config, args []string) ExecuteResult {
	app, err := NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	root := NewRootCommand(app)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintln(os.Stderr, err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads configuration, runs the command line, and exits the process.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	result := RunWithConfig(context.Background(), cfg, os.Args[1:])
	os.Exit(result.ExitCode)
}

// fetchIssue loads the issue or reports the failure and returns an exit
// error.
func (app *App) fetchIssue(ctx context.Context, key string) (*jira.Issue, error) {
	issue, err := app.Store.FetchIssue(ctx, key)
	if err != nil {
		if errors.Is(err, jira.ErrIssueNotFound) {
			app.Printer.Failuref("issue %s not found", key)
		} else {
			app.Printer.Failuref("cannot load %s: %v", key, err)
		}
		return nil, NewExitError(1)
	}
	return issue, nil
}

// finishStep renders the outcome of a single-step operation and maps it to
// an exit error. A missing-field suspension prompts for the values and
// resumes, unless NoInput is set.
func (app *App) finishStep(ctx context.Context, res *engine.StepResult, err error) error {
	if err == nil {
		app.Printer.Step(res)
		return nil
	}

	var mf *engine.MissingFieldsError
	if errors.As(err, &mf) {
		return app.resumeWithInput(ctx, mf)
	}
	var rej *engine.RejectedError
	if errors.As(err, &rej) {
		app.Printer.Rejected(rej)
		return NewExitError(1)
	}
	if errors.Is(err, engine.ErrAtFinalStage) || errors.Is(err, engine.ErrAtFirstStage) {
		// Nothing to do, not a failure.
		app.Printer.Warnf("%v", err)
		return nil
	}

	app.Printer.Failuref("%v", err)
	return NewExitError(1)
}

// resumeWithInput collects the missing field values and resumes the
// suspended operation. One round only: a second suspension is reported as a
// failure rather than prompting again for the same values.
func (app *App) resumeWithInput(ctx context.Context, mf *engine.MissingFieldsError) error {
	app.Printer.MissingFields(mf)

	if app.NoInput {
		return NewExitError(2)
	}

	values, err := app.PromptFields(mf.Fields)
	if err != nil {
		app.Printer.Failuref("input aborted: %v", err)
		return NewExitError(1)
	}

	report, err := app.Engine.Resume(ctx, values)
	if err != nil {
		var rej *engine.RejectedError
		if errors.As(err, &rej) {
			app.Printer.Rejected(rej)
		} else {
			app.Printer.Failuref("%v", err)
		}
		return NewExitError(1)
	}
	app.Printer.Report(report)
	return nil
}
