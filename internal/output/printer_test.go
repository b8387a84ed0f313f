package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jiraflow/internal/assign"
	"jiraflow/internal/autofill"
	"jiraflow/internal/engine"
	"jiraflow/internal/jira"
	"jiraflow/internal/workflow"
)

func capturePrinter() (*Printer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	p.SetNoColor()
	return p, buf
}

func TestPrinter_Step(t *testing.T) {
	p, buf := capturePrinter()

	p.Step(&engine.StepResult{
		IssueKey: "PROJ-1",
		From:     "Waiting",
		To:       "Doing",
		Label:    "Doing",
	})

	out := buf.String()
	assert.Contains(t, out, "PROJ-1")
	assert.Contains(t, out, "Waiting")
	assert.Contains(t, out, "Doing")
	assert.NotContains(t, out, "via transition", "label matching the stage needs no note")
}

func TestPrinter_Step_WithSideEffects(t *testing.T) {
	p, buf := capturePrinter()

	p.Step(&engine.StepResult{
		IssueKey: "PROJ-1",
		From:     "Review",
		To:       "Testing",
		Label:    "Send to QA",
		Fill:     &autofill.Result{Filled: []string{"Dev Start Date"}},
		Assign:   assign.Result{Assigned: true, Assignee: "QA Team", Role: "QA"},
	})

	out := buf.String()
	assert.Contains(t, out, `via transition "Send to QA"`)
	assert.Contains(t, out, "filled: Dev Start Date")
	assert.Contains(t, out, "assigned to QA Team (QA)")
}

func TestPrinter_Report(t *testing.T) {
	tests := []struct {
		name   string
		report *engine.RunReport
		want   string
	}{
		{
			name:   "completed",
			report: &engine.RunReport{IssueKey: "P-1", Completed: []string{"Doing", "Done"}},
			want:   "completed: Doing, Done",
		},
		{
			name:   "already done",
			report: &engine.RunReport{IssueKey: "P-1"},
			want:   "already at the final stage",
		},
		{
			name:   "halted",
			report: &engine.RunReport{IssueKey: "P-1", Completed: []string{"Doing"}, FailedAt: "Review"},
			want:   "stopped at Review",
		},
		{
			name: "suspended",
			report: &engine.RunReport{
				IssueKey: "P-1", FailedAt: "Done",
				MissingFields: []string{"Dev Due Date"}, Suspended: true,
			},
			want: "waiting on: Dev Due Date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := capturePrinter()
			p.Report(tt.report)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrinter_TrackerMessageTruncated(t *testing.T) {
	p, buf := capturePrinter()
	p.SetTruncateLength(20)

	p.TrackerMessage(strings.Repeat("x", 100))

	out := buf.String()
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, strings.Repeat("x", 50))
}

func TestPrinter_TrackerMessageEmpty(t *testing.T) {
	p, buf := capturePrinter()
	p.TrackerMessage("")
	assert.Empty(t, buf.String())
}

func TestPrinter_MissingFields(t *testing.T) {
	p, buf := capturePrinter()

	p.MissingFields(&engine.MissingFieldsError{
		IssueKey: "PROJ-9",
		Stage:    "Done",
		Fields:   []string{"Dev Start Date", "Dev Due Date"},
	})

	out := buf.String()
	assert.Contains(t, out, "PROJ-9")
	assert.Contains(t, out, "- Dev Start Date")
	assert.Contains(t, out, "- Dev Due Date")
}

func TestPrinter_IssueLine(t *testing.T) {
	p, buf := capturePrinter()

	p.IssueLine(
		jira.Issue{Key: "PROJ-2", Summary: "Fix the widget", Status: "Doing"},
		workflow.Stage{Name: "Doing", Glyph: "◐", Color: "12"},
	)

	out := buf.String()
	assert.Contains(t, out, "◐")
	assert.Contains(t, out, "PROJ-2")
	assert.Contains(t, out, "Fix the widget")
}

func TestPrinter_StageTable(t *testing.T) {
	p, buf := capturePrinter()

	p.StageTable("", []workflow.Stage{
		{Name: "Waiting", Glyph: "○", Description: "Queued"},
		{Name: "Done", Glyph: "●", RequiredFields: []workflow.FieldRef{
			{DisplayName: "Dev Due Date", SourceName: "Planned Due Date"},
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "1. ○ Waiting")
	assert.Contains(t, out, "2. ● Done")
	assert.Contains(t, out, "requires Dev Due Date (from Planned Due Date)")
}

func TestPrinter_StageTable_Category(t *testing.T) {
	p, buf := capturePrinter()
	p.StageTable("documentation", nil)
	assert.Contains(t, buf.String(), "(documentation)")
}

func TestPrinter_Progress(t *testing.T) {
	p, buf := capturePrinter()
	p.Progress(2, 4, "Review")
	assert.Contains(t, buf.String(), "[2/4] Review")
}
