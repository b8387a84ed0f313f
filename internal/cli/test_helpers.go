package cli

import (
	"bytes"
	"time"

	"jiraflow/internal/assign"
	"jiraflow/internal/autofill"
	"jiraflow/internal/config"
	"jiraflow/internal/engine"
	"jiraflow/internal/jira"
	"jiraflow/internal/output"
	"jiraflow/internal/workflow"
)

// newTestApp wires an App around a MockStore with the default config,
// capturing printer output in the returned buffer.
func newTestApp(store *jira.MockStore) (*App, *bytes.Buffer) {
	cfg := config.DefaultConfig()

	table := workflow.New(cfg.Definition())
	filler := autofill.New(store, cfg.FieldPairs())
	assigner := assign.New(store, cfg.RoleMap())

	eng := engine.New(table, store, filler, assigner)
	eng.SetAliases(cfg.Workflow.TransitionAliases)
	eng.SetExemptCategories(cfg.Workflow.ExemptCategories)
	eng.SetPace(0)
	eng.SetSleeper(func(time.Duration) {})

	buf := &bytes.Buffer{}
	printer := output.NewPrinterWithWriter(buf)
	printer.SetNoColor()
	eng.SetProgressCallback(printer.Progress)

	app := &App{
		Config:  cfg,
		Store:   store,
		Engine:  eng,
		Filler:  filler,
		Printer: printer,
		PromptFields: func(fields []string) (map[string]string, error) {
			return nil, nil
		},
	}
	return app, buf
}

// storeWithIssue builds a MockStore holding one issue plus the default
// field catalog the auto-filler needs.
func storeWithIssue(issue *jira.Issue) *jira.MockStore {
	return &jira.MockStore{
		Issues: map[string]*jira.Issue{issue.Key: issue},
		FieldIDs: map[string]string{
			"Dev Start Date":     "customfield_1",
			"Planned Start Date": "customfield_2",
			"Dev Due Date":       "customfield_3",
			"Planned Due Date":   "customfield_4",
			"QA Assignee":        "customfield_7",
			"Reviewer":           "customfield_8",
		},
		FieldValues: map[string]string{
			"customfield_2": "2024-02-02",
			"customfield_4": "2024-03-03",
		},
		Identities: []jira.Identity{
			{Name: "qa.team", DisplayName: "QA Team"},
		},
	}
}
