package transition

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name       string
		message    string
		wantKind   Kind
		wantFields []string
	}{
		{
			name:       "single required field",
			message:    `Field 'Dev Start Date' is required.`,
			wantKind:   KindMissingFields,
			wantFields: []string{"Dev Start Date"},
		},
		{
			name:       "multiple required fields",
			message:    `Field 'Dev Start Date' is required. Field 'Dev Due Date' is required.`,
			wantKind:   KindMissingFields,
			wantFields: []string{"Dev Start Date", "Dev Due Date"},
		},
		{
			name:       "please fill in list form",
			message:    "please fill in the following fields: Dev Start Date, Dev Due Date",
			wantKind:   KindMissingFields,
			wantFields: []string{"Dev Start Date", "Dev Due Date"},
		},
		{
			name:       "missing required fields form",
			message:    "missing required fields: Reviewer and QA Assignee",
			wantKind:   KindMissingFields,
			wantFields: []string{"Reviewer", "QA Assignee"},
		},
		{
			name:       "duplicates collapse",
			message:    "Field 'Reviewer' is required. missing required field: Reviewer",
			wantKind:   KindMissingFields,
			wantFields: []string{"Reviewer"},
		},
		{
			name:     "unrelated rejection",
			message:  "you do not have permission to transition this issue",
			wantKind: KindUnresolvable,
		},
		{
			name:     "empty message",
			message:  "",
			wantKind: KindUnresolvable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(tt.message)
			require.Equal(t, tt.wantKind, cls.Kind)
			assert.Equal(t, tt.wantFields, cls.Fields)
		})
	}
}

func TestClassifier_CustomPatterns(t *testing.T) {
	c := NewClassifierWithPatterns([]*regexp.Regexp{
		regexp.MustCompile(`(?i)necessary item: (\S+)`),
	})

	cls := c.Classify("necessary item: deadline")
	require.Equal(t, KindMissingFields, cls.Kind)
	assert.Equal(t, []string{"deadline"}, cls.Fields)

	// Default patterns are replaced, not merged.
	cls = c.Classify("Field 'Reviewer' is required")
	assert.Equal(t, KindUnresolvable, cls.Kind)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 80))
	assert.Equal(t, "abcdefg", Truncate("abcdefg", 7))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	// Degenerate limits leave the message alone.
	assert.Equal(t, "abcdef", Truncate("abcdef", 3))
}
