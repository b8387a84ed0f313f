package autofill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jiraflow/internal/jira"
)

var testPairs = []Pair{
	{Target: "Dev Start Date", Source: "Planned Start Date"},
	{Target: "Dev Due Date", Source: "Planned Due Date"},
}

func testStore() *jira.MockStore {
	return &jira.MockStore{
		FieldIDs: map[string]string{
			"Dev Start Date":     "customfield_1",
			"Planned Start Date": "customfield_2",
			"Dev Due Date":       "customfield_3",
			"Planned Due Date":   "customfield_4",
		},
		FieldValues: map[string]string{},
	}
}

func TestFiller_NeverOverwritesExistingValue(t *testing.T) {
	store := testStore()
	store.FieldValues["customfield_1"] = "2024-01-01" // Dev Start Date already set
	store.FieldValues["customfield_2"] = "2024-02-02"
	store.FieldValues["customfield_3"] = "2024-01-31"
	store.FieldValues["customfield_4"] = "2024-03-03"

	filler := New(store, testPairs)
	result, err := filler.AutoFill(context.Background(), "PROJ-1")

	require.NoError(t, err)
	assert.Empty(t, result.Filled)
	assert.Empty(t, result.StillMissing)
	assert.Empty(t, store.WrittenFields, "no write should be issued")
}

func TestFiller_CopiesFromPlannedCounterpart(t *testing.T) {
	store := testStore()
	store.FieldValues["customfield_2"] = "2024-02-02" // Planned Start Date
	store.FieldValues["customfield_3"] = "2024-05-05" // Dev Due Date already set

	filler := New(store, testPairs)
	result, err := filler.AutoFill(context.Background(), "PROJ-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"Dev Start Date"}, result.Filled)
	assert.Empty(t, result.StillMissing)
	require.Len(t, store.WrittenFields, 1, "exactly one batched write")
	assert.Equal(t, map[string]string{"Dev Start Date": "2024-02-02"}, store.WrittenFields[0])
}

func TestFiller_ReportsStillMissing(t *testing.T) {
	store := testStore()
	store.FieldValues["customfield_2"] = "2024-02-02" // only Planned Start Date

	filler := New(store, testPairs)
	result, err := filler.AutoFill(context.Background(), "PROJ-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"Dev Start Date"}, result.Filled)
	assert.Equal(t, []string{"Dev Due Date"}, result.StillMissing)
}

func TestFiller_WriteFailureSurfaced(t *testing.T) {
	store := testStore()
	store.FieldValues["customfield_2"] = "2024-02-02"
	store.WriteErr = errors.New("http 500")

	filler := New(store, testPairs)
	result, err := filler.AutoFill(context.Background(), "PROJ-1")

	require.Error(t, err)
	// The result still reports what was computed so the caller can decide
	// whether to proceed.
	assert.Equal(t, []string{"Dev Start Date"}, result.Filled)
}

func TestFiller_UnresolvableFieldName(t *testing.T) {
	store := testStore()
	delete(store.FieldIDs, "Planned Due Date")

	filler := New(store, testPairs)
	_, err := filler.AutoFill(context.Background(), "PROJ-1")
	assert.ErrorIs(t, err, jira.ErrFieldNotFound)
}

func TestFiller_NoPairsIsNoOp(t *testing.T) {
	store := testStore()

	filler := New(store, nil)
	result, err := filler.AutoFill(context.Background(), "PROJ-1")

	require.NoError(t, err)
	assert.Empty(t, result.Filled)
	assert.Empty(t, result.StillMissing)
	assert.Empty(t, store.WrittenFields)
}
