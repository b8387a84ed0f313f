// Package output provides terminal rendering for jiraflow results.
//
// A [Printer] wraps an io.Writer with lipgloss styling and knows how to
// render transition results, chain progress, workflow tables, and verbatim
// tracker messages (truncated). Commands write through the printer only;
// nothing else in the repo prints.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"jiraflow/internal/engine"
	"jiraflow/internal/jira"
	"jiraflow/internal/transition"
	"jiraflow/internal/workflow"
)

// Semantic status colors.
var (
	colorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	colorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	colorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	colorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	colorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

// Status icons.
const (
	iconPass = "✓"
	iconWarn = "⚠"
	iconFail = "✗"
	iconStep = "→"
)

// defaultTruncateLength bounds verbatim tracker messages in output.
const defaultTruncateLength = 200

// Printer renders command results to a terminal.
//
// Create with [NewPrinter] for stdout or [NewPrinterWithWriter] for tests.
type Printer struct {
	w           io.Writer
	truncateLen int

	pass   lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
	header lipgloss.Style
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w. Used by tests to
// capture output.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{
		w:           w,
		truncateLen: defaultTruncateLength,
		pass:        lipgloss.NewStyle().Foreground(colorPass),
		warn:        lipgloss.NewStyle().Foreground(colorWarn),
		fail:        lipgloss.NewStyle().Foreground(colorFail),
		muted:       lipgloss.NewStyle().Foreground(colorMuted),
		accent:      lipgloss.NewStyle().Foreground(colorAccent),
		header:      lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	}
}

// SetTruncateLength overrides the bound on embedded tracker messages.
func (p *Printer) SetTruncateLength(n int) {
	if n > 0 {
		p.truncateLen = n
	}
}

// SetNoColor strips all styling.
func (p *Printer) SetNoColor() {
	plain := lipgloss.NewStyle()
	p.pass = plain
	p.warn = plain
	p.fail = plain
	p.muted = plain
	p.accent = plain
	p.header = plain
}

// Successf prints a line with the pass icon.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.pass.Render(iconPass), fmt.Sprintf(format, args...))
}

// Failuref prints a line with the fail icon.
func (p *Printer) Failuref(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.fail.Render(iconFail), fmt.Sprintf(format, args...))
}

// Warnf prints a line with the warning icon.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.warn.Render(iconWarn), fmt.Sprintf(format, args...))
}

// Infof prints an unstyled line.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Mutedf prints a de-emphasized line.
func (p *Printer) Mutedf(format string, args ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

// Step renders the outcome of one single-step transition, including fill and
// assignment side effects.
func (p *Printer) Step(res *engine.StepResult) {
	p.Successf("%s: %s %s %s", res.IssueKey, res.From, iconStep, res.To)
	if res.Label != res.To {
		p.Mutedf("  via transition %q", res.Label)
	}
	if res.Fill != nil && len(res.Fill.Filled) > 0 {
		p.Mutedf("  filled: %s", strings.Join(res.Fill.Filled, ", "))
	}
	if res.Assign.Assigned {
		p.Mutedf("  assigned to %s (%s)", res.Assign.Assignee, res.Assign.Role)
	}
}

// ChainHeader announces a run-to-completion chain.
func (p *Printer) ChainHeader(issueKey, start string, stages []workflow.Stage) {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	fmt.Fprintln(p.w, p.header.Render(fmt.Sprintf("Completing %s from %s", issueKey, start)))
	p.Mutedf("  steps: %s", strings.Join(names, " "+iconStep+" "))
}

// Progress renders one chain step banner. Wired as the engine's progress
// callback.
func (p *Printer) Progress(stepIndex, totalSteps int, stage string) {
	fmt.Fprintf(p.w, "%s %s\n", p.accent.Render(fmt.Sprintf("[%d/%d]", stepIndex, totalSteps)), stage)
}

// Report summarizes a finished or halted chain.
func (p *Printer) Report(report *engine.RunReport) {
	switch {
	case report.Suspended:
		p.Warnf("%s paused at %s, waiting on: %s",
			report.IssueKey, report.FailedAt, strings.Join(report.MissingFields, ", "))
	case report.FailedAt != "":
		p.Failuref("%s stopped at %s (%d of %d steps done)",
			report.IssueKey, report.FailedAt, len(report.Completed), len(report.Completed)+1)
	case len(report.Completed) == 0:
		p.Successf("%s is already at the final stage", report.IssueKey)
	default:
		p.Successf("%s completed: %s", report.IssueKey, strings.Join(report.Completed, ", "))
	}
}

// MissingFields renders a suspension notice.
func (p *Printer) MissingFields(err *engine.MissingFieldsError) {
	p.Warnf("%s needs values before %s:", err.IssueKey, err.Stage)
	for _, f := range err.Fields {
		p.Infof("  - %s", f)
	}
}

// Rejected renders a terminal refusal with the tracker's message, truncated.
func (p *Printer) Rejected(err *engine.RejectedError) {
	p.Failuref("%s: transition to %s rejected", err.IssueKey, err.Stage)
	p.TrackerMessage(err.Message)
}

// TrackerMessage prints a verbatim tracker message, truncated and muted.
func (p *Printer) TrackerMessage(msg string) {
	if msg == "" {
		return
	}
	p.Mutedf("  tracker: %s", transition.Truncate(msg, p.truncateLen))
}

// IssueLine renders one issue for the list command, with the stage glyph in
// the stage color.
func (p *Printer) IssueLine(issue jira.Issue, stage workflow.Stage) {
	glyph := lipgloss.NewStyle().Foreground(lipgloss.Color(stage.Color)).Render(stage.Glyph)
	fmt.Fprintf(p.w, "%s %-12s %-10s %s\n", glyph, issue.Key, stage.Name, issue.Summary)
}

// StageTable renders the workflow table for one category.
func (p *Printer) StageTable(category string, stages []workflow.Stage) {
	title := "Workflow stages"
	if category != "" {
		title = fmt.Sprintf("Workflow stages (%s)", category)
	}
	fmt.Fprintln(p.w, p.header.Render(title))
	for i, s := range stages {
		glyph := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(s.Glyph)
		fmt.Fprintf(p.w, "  %d. %s %-10s %s\n", i+1, glyph, s.Name, p.muted.Render(s.Description))
		for _, f := range s.RequiredFields {
			p.Mutedf("       requires %s (from %s)", f.DisplayName, f.SourceName)
		}
	}
}
