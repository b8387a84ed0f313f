// Package config provides configuration loading and management for jiraflow.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The package provides sensible defaults that
// work out of the box, with the ability to customize the workflow table,
// field auto-fill pairs, role mappings, and output formatting.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [StageConfig] describes one stage of the workflow sequence
//   - [RoleConfig] maps a stage to the role that should own issues in it
//
// Configuration priority (highest to lowest):
//  1. Environment variables (JIRAFLOW_ prefix)
//  2. Config file specified by JIRAFLOW_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/jiraflow/jiraflow.yaml
//     - macOS: ~/Library/Application Support/jiraflow/jiraflow.yaml
//     - Windows: %APPDATA%\jiraflow\jiraflow.yaml
//  4. ./jiraflow.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"time"

	"jiraflow/internal/assign"
	"jiraflow/internal/autofill"
	"jiraflow/internal/workflow"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used
// throughout the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Jira contains tracker connection settings.
	Jira JiraConfig `mapstructure:"jira"`

	// Workflow defines the stage table: the ordered sequence, per-category
	// variants, status aliases, and transition fallback labels.
	Workflow WorkflowSettings `mapstructure:"workflow"`

	// Fields lists the auto-fill pairs applied before gated transitions.
	Fields []FieldPairConfig `mapstructure:"fields"`

	// Roles maps stage names to the role that should own issues entering
	// that stage.
	Roles map[string]RoleConfig `mapstructure:"roles"`

	// Engine contains transition engine tuning.
	Engine EngineConfig `mapstructure:"engine"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output"`
}

// JiraConfig contains tracker connection settings.
//
// All three values can be overridden with JIRAFLOW_JIRA_URL,
// JIRAFLOW_JIRA_USERNAME and JIRAFLOW_JIRA_TOKEN.
type JiraConfig struct {
	// BaseURL is the tracker instance root, e.g. "https://jira.example.com".
	BaseURL string `mapstructure:"base_url"`

	// Username enables basic auth when set; when empty the token is sent
	// as a bearer token instead.
	Username string `mapstructure:"username"`

	// Token is the API token or personal access token.
	Token string `mapstructure:"token"`
}

// WorkflowSettings defines the workflow stage table.
type WorkflowSettings struct {
	// TableFile is an optional path to a standalone YAML workflow table.
	// When set it replaces Stages, Categories and StatusAliases.
	TableFile string `mapstructure:"table_file"`

	// Stages is the ordered default stage sequence, first to terminal.
	Stages []StageConfig `mapstructure:"stages"`

	// Categories maps an issue category to its own stage sequence, an
	// ordered subset of the default one. Categories not listed use the
	// default sequence.
	Categories map[string][]string `mapstructure:"categories"`

	// StatusAliases maps tracker status spellings to canonical stage names,
	// e.g. "TO DO" -> "Waiting". Many-to-one.
	StatusAliases map[string]string `mapstructure:"status_aliases"`

	// TransitionAliases maps a stage name to fallback transition labels
	// tried in order when the tracker rejects the stage name itself.
	TransitionAliases map[string][]string `mapstructure:"transition_aliases"`

	// ExemptCategories lists issue categories that skip the field
	// auto-fill gate entirely.
	ExemptCategories []string `mapstructure:"exempt_categories"`

	// CandidateMarker is the phrase that precedes the transition list in
	// tracker rejection messages. Default: "available transitions:".
	CandidateMarker string `mapstructure:"candidate_marker"`
}

// StageConfig describes one stage of the workflow sequence.
type StageConfig struct {
	// Name is the canonical stage name, e.g. "Doing".
	Name string `mapstructure:"name"`

	// Glyph is the single-character stage marker used in list output.
	Glyph string `mapstructure:"glyph"`

	// Color is the lipgloss color for the glyph and stage name.
	Color string `mapstructure:"color"`

	// Description is a one-line explanation shown by the stages command.
	Description string `mapstructure:"description"`

	// RequiredFields lists fields that must hold values before an issue
	// may enter this stage.
	RequiredFields []FieldPairConfig `mapstructure:"required_fields"`
}

// FieldPairConfig pairs a required field with the planning field its value
// is copied from when unset.
type FieldPairConfig struct {
	// Name is the required field's display name, e.g. "Dev Start Date".
	Name string `mapstructure:"name"`

	// Source is the display name of the field to copy from when Name is
	// empty, e.g. "Planned Start Date".
	Source string `mapstructure:"source"`
}

// RoleConfig maps a stage to the role that should own issues entering it.
type RoleConfig struct {
	// Name is the role label, e.g. "QA".
	Name string `mapstructure:"name"`

	// DesignateField is the issue field that may hold a pre-designated
	// person for this role. Checked before the default.
	DesignateField string `mapstructure:"designate_field"`

	// Default is the fallback identity query when the designate field is
	// empty, e.g. "qa.team". Optional.
	Default string `mapstructure:"default"`
}

// EngineConfig contains transition engine tuning.
type EngineConfig struct {
	// PaceSeconds is the delay between steps of a run-to-completion chain.
	// Default: 2.
	PaceSeconds int `mapstructure:"pace_seconds"`

	// MaxRetries bounds HTTP retry attempts on 429/5xx responses.
	// Default: 3.
	MaxRetries int `mapstructure:"max_retries"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// NoColor disables lipgloss styling.
	NoColor bool `mapstructure:"no_color"`

	// TruncateLength is the maximum length of a verbatim tracker message
	// embedded in output. Default: 200.
	TruncateLength int `mapstructure:"truncate_length"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults describe the standard five-stage workflow
// (Waiting → Doing → Review → Testing → Done) with the documentation
// category skipping Testing, the date auto-fill pairs required at Done,
// and the QA/Reviewer role mappings. These work out of the box against a
// stock tracker workflow; only the connection settings must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Workflow: WorkflowSettings{
			Stages: []StageConfig{
				{
					Name:        "Waiting",
					Glyph:       "○",
					Color:       "8",
					Description: "Queued, not started",
				},
				{
					Name:        "Doing",
					Glyph:       "◐",
					Color:       "12",
					Description: "Under active development",
				},
				{
					Name:        "Review",
					Glyph:       "◑",
					Color:       "13",
					Description: "Awaiting code review",
				},
				{
					Name:        "Testing",
					Glyph:       "◕",
					Color:       "11",
					Description: "In QA verification",
				},
				{
					Name:        "Done",
					Glyph:       "●",
					Color:       "10",
					Description: "Complete",
					RequiredFields: []FieldPairConfig{
						{Name: "Dev Start Date", Source: "Planned Start Date"},
						{Name: "Dev Due Date", Source: "Planned Due Date"},
					},
				},
			},
			Categories: map[string][]string{
				"documentation": {"Waiting", "Doing", "Review", "Done"},
			},
			StatusAliases: map[string]string{
				"TO DO":       "Waiting",
				"OPEN":        "Waiting",
				"IN PROGRESS": "Doing",
				"IN REVIEW":   "Review",
				"QA":          "Testing",
				"CLOSED":      "Done",
			},
			TransitionAliases: map[string][]string{
				"Doing": {"Start Progress", "Start"},
				"Done":  {"Close", "Close Issue"},
			},
			ExemptCategories: []string{"documentation"},
			CandidateMarker:  "available transitions:",
		},
		Fields: []FieldPairConfig{
			{Name: "Dev Start Date", Source: "Planned Start Date"},
			{Name: "Dev Due Date", Source: "Planned Due Date"},
		},
		Roles: map[string]RoleConfig{
			"Testing": {Name: "QA", DesignateField: "QA Assignee", Default: "qa.team"},
			"Review":  {Name: "Reviewer", DesignateField: "Reviewer"},
		},
		Engine: EngineConfig{
			PaceSeconds: 2,
			MaxRetries:  3,
		},
		Output: OutputConfig{
			TruncateLength: 200,
		},
	}
}

// Definition converts the workflow settings into the table definition the
// workflow package consumes.
func (c *Config) Definition() workflow.Definition {
	def := workflow.Definition{
		Stages:     make([]workflow.Stage, 0, len(c.Workflow.Stages)),
		Categories: c.Workflow.Categories,
		Aliases:    c.Workflow.StatusAliases,
	}
	for _, s := range c.Workflow.Stages {
		stage := workflow.Stage{
			Name:        s.Name,
			Glyph:       s.Glyph,
			Color:       s.Color,
			Description: s.Description,
		}
		for _, f := range s.RequiredFields {
			stage.RequiredFields = append(stage.RequiredFields, workflow.FieldRef{
				DisplayName: f.Name,
				SourceName:  f.Source,
			})
		}
		def.Stages = append(def.Stages, stage)
	}
	return def
}

// FieldPairs converts the configured auto-fill pairs into the autofill
// package's form.
func (c *Config) FieldPairs() []autofill.Pair {
	pairs := make([]autofill.Pair, 0, len(c.Fields))
	for _, f := range c.Fields {
		pairs = append(pairs, autofill.Pair{Target: f.Name, Source: f.Source})
	}
	return pairs
}

// RoleMap converts the configured role mappings into the assign package's
// form, keyed by stage name.
func (c *Config) RoleMap() map[string]assign.Role {
	roles := make(map[string]assign.Role, len(c.Roles))
	for stage, r := range c.Roles {
		roles[stage] = assign.Role{
			Name:           r.Name,
			DesignateField: r.DesignateField,
			Default:        r.Default,
		}
	}
	return roles
}

// Pace returns the configured inter-step chain delay as a duration.
func (c *Config) Pace() time.Duration {
	return time.Duration(c.Engine.PaceSeconds) * time.Second
}
