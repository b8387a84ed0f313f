package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	return New(Definition{
		Stages: []Stage{
			{Name: "Waiting", Glyph: "○", Color: "8"},
			{Name: "Doing", Glyph: "◐", Color: "4"},
			{Name: "Review", Glyph: "◑", Color: "3"},
			{Name: "Testing", Glyph: "◒", Color: "5"},
			{Name: "Done", Glyph: "●", Color: "2", RequiredFields: []FieldRef{
				{DisplayName: "Dev Start Date", SourceName: "Planned Start Date"},
				{DisplayName: "Dev Due Date", SourceName: "Planned Due Date"},
			}},
		},
		Categories: map[string][]string{
			"documentation": {"Waiting", "Doing", "Review", "Done"},
		},
		Aliases: map[string]string{
			"TO DO":       "Waiting",
			"OPEN":        "Waiting",
			"IN PROGRESS": "Doing",
			"IN REVIEW":   "Review",
			"QA":          "Testing",
			"CLOSED":      "Done",
		},
	})
}

func TestTable_Normalize(t *testing.T) {
	table := testTable()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"canonical name", "Waiting", "Waiting"},
		{"case-insensitive", "doing", "Doing"},
		{"trimmed", "  Review  ", "Review"},
		{"alias", "TO DO", "Waiting"},
		{"alias case-insensitive", "to do", "Waiting"},
		{"unrecognized passes through uppercased", "weird state", "WEIRD STATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Normalize(tt.input))
		})
	}
}

func TestTable_Normalize_Idempotent(t *testing.T) {
	table := testTable()

	for _, s := range []string{"Waiting", "to do", "IN PROGRESS", "nonsense", "  Done "} {
		once := table.Normalize(s)
		assert.Equal(t, once, table.Normalize(once), "normalize must be idempotent for %q", s)
	}
}

func TestTable_StageOf(t *testing.T) {
	table := testTable()

	s, ok := table.StageOf("in progress")
	require.True(t, ok)
	assert.Equal(t, "Doing", s.Name)

	_, ok = table.StageOf("garbage")
	assert.False(t, ok)
}

func TestTable_NextPrevious(t *testing.T) {
	table := testTable()

	next, ok := table.Next("Waiting", "")
	require.True(t, ok)
	assert.Equal(t, "Doing", next.Name)

	prev, ok := table.Previous("Doing", "")
	require.True(t, ok)
	assert.Equal(t, "Waiting", prev.Name)

	// Terminal stage has no successor.
	_, ok = table.Next("Done", "")
	assert.False(t, ok)

	// Initial stage has no predecessor.
	_, ok = table.Previous("Waiting", "")
	assert.False(t, ok)

	// Unrecognized status yields neither.
	_, ok = table.Next("bogus", "")
	assert.False(t, ok)
	_, ok = table.Previous("bogus", "")
	assert.False(t, ok)
}

func TestTable_NextPrevious_RoundTrip(t *testing.T) {
	table := testTable()

	// For every non-terminal stage, next(previous(next(s))) == next(s).
	for _, s := range table.Stages("") {
		next, ok := table.Next(s.Name, "")
		if !ok {
			continue
		}
		prev, ok := table.Previous(next.Name, "")
		require.True(t, ok)
		again, ok := table.Next(prev.Name, "")
		require.True(t, ok)
		assert.Equal(t, next.Name, again.Name)
	}
}

func TestTable_Remaining(t *testing.T) {
	table := testTable()

	remaining := table.Remaining("Waiting", "")
	require.Len(t, remaining, 4)
	assert.Equal(t, "Doing", remaining[0].Name)
	assert.Equal(t, "Done", remaining[3].Name)

	// Length invariant: total - index - 1.
	for _, s := range table.Stages("") {
		got := table.Remaining(s.Name, "")
		want := len(table.Stages("")) - table.IndexOf(s.Name, "") - 1
		assert.Len(t, got, want, "remaining length for %s", s.Name)
	}

	assert.Empty(t, table.Remaining("Done", ""))
	assert.Empty(t, table.Remaining("bogus", ""))
}

func TestTable_CategorySpecialization(t *testing.T) {
	table := testTable()

	// Documentation issues skip Testing.
	remaining := table.Remaining("Review", "documentation")
	require.Len(t, remaining, 1)
	assert.Equal(t, "Done", remaining[0].Name)

	next, ok := table.Next("Review", "documentation")
	require.True(t, ok)
	assert.Equal(t, "Done", next.Name)

	// Category names match case-insensitively.
	next, ok = table.Next("Review", "Documentation")
	require.True(t, ok)
	assert.Equal(t, "Done", next.Name)

	// Unknown categories fall back to the default sequence.
	next, ok = table.Next("Review", "bugfix")
	require.True(t, ok)
	assert.Equal(t, "Testing", next.Name)
}

func TestTable_AliasParticipatesLikeCanonical(t *testing.T) {
	table := testTable()

	// "TO DO" behaves identically to "Waiting" in every query.
	assert.Equal(t, table.IndexOf("Waiting", ""), table.IndexOf("TO DO", ""))

	a, aok := table.Next("Waiting", "")
	b, bok := table.Next("TO DO", "")
	require.True(t, aok)
	require.True(t, bok)
	assert.Equal(t, a.Name, b.Name)

	assert.Equal(t, len(table.Remaining("Waiting", "")), len(table.Remaining("TO DO", "")))
}

func TestTable_TerminalQueries(t *testing.T) {
	table := testTable()

	assert.Equal(t, "Done", table.Terminal("").Name)
	assert.True(t, table.IsTerminal("CLOSED", ""))
	assert.False(t, table.IsTerminal("Doing", ""))
	assert.False(t, table.IsTerminal("bogus", ""))
}
