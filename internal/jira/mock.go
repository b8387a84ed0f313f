package jira

import (
	"context"
	"fmt"
	"strings"
)

// MockStore implements [IssueStore] for tests without a real tracker.
//
// Configure behavior by setting fields before use; calls are recorded for
// verification. The zero value is usable: every lookup misses and every
// mutation succeeds.
type MockStore struct {
	// Issues maps issue key to the issue returned by FetchIssue.
	Issues map[string]*Issue

	// AssignedIssues is returned by ListAssignedIssues.
	AssignedIssues []Issue

	// TransitionErrs maps a transition label to the error AttemptTransition
	// returns for it. Labels not present succeed.
	TransitionErrs map[string]error

	// TransitionFunc, when set, decides every AttemptTransition call and
	// takes precedence over TransitionErrs.
	TransitionFunc func(key, label string) error

	// RecordedTransitions lists every attempted label in order.
	RecordedTransitions []string

	// FieldIDs maps display name to field id for ResolveFieldID.
	FieldIDs map[string]string

	// FieldValues maps field id to current value for ReadFields.
	FieldValues map[string]string

	// ReadErr, when set, fails ReadFields.
	ReadErr error

	// WrittenFields records every WriteFields payload in order.
	WrittenFields []map[string]string

	// WriteErr, when set, fails WriteFields.
	WriteErr error

	// Identities is returned by SearchIdentity (filtered by substring match
	// on Name and DisplayName).
	Identities []Identity

	// SearchErr, when set, fails SearchIdentity.
	SearchErr error

	// AssignedIdentities records every Assign call in order.
	AssignedIdentities []Identity

	// AssignErr, when set, fails Assign.
	AssignErr error

	// Me is returned by CurrentIdentity.
	Me Identity
}

func (m *MockStore) FetchIssue(ctx context.Context, key string) (*Issue, error) {
	if issue, ok := m.Issues[key]; ok {
		return issue, nil
	}
	return nil, fmt.Errorf("%s: %w", key, ErrIssueNotFound)
}

func (m *MockStore) ListAssignedIssues(ctx context.Context, statuses []string) ([]Issue, error) {
	return m.AssignedIssues, nil
}

func (m *MockStore) AttemptTransition(ctx context.Context, key, label string) error {
	m.RecordedTransitions = append(m.RecordedTransitions, label)
	if m.TransitionFunc != nil {
		return m.TransitionFunc(key, label)
	}
	if err, ok := m.TransitionErrs[label]; ok {
		return err
	}
	return nil
}

func (m *MockStore) ReadFields(ctx context.Context, key string, ids []string) (map[string]string, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	values := make(map[string]string)
	for _, id := range ids {
		if v, ok := m.FieldValues[id]; ok && v != "" {
			values[id] = v
		}
	}
	return values, nil
}

func (m *MockStore) WriteFields(ctx context.Context, key string, fields map[string]string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	m.WrittenFields = append(m.WrittenFields, copied)
	return nil
}

func (m *MockStore) ResolveFieldID(ctx context.Context, displayName string) (string, error) {
	if id, ok := m.FieldIDs[displayName]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%q: %w", displayName, ErrFieldNotFound)
}

func (m *MockStore) SearchIdentity(ctx context.Context, query string) ([]Identity, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	var matches []Identity
	q := strings.ToLower(query)
	for _, id := range m.Identities {
		if strings.Contains(strings.ToLower(id.Name), q) || strings.Contains(strings.ToLower(id.DisplayName), q) {
			matches = append(matches, id)
		}
	}
	return matches, nil
}

func (m *MockStore) Assign(ctx context.Context, key string, identity Identity) error {
	if m.AssignErr != nil {
		return m.AssignErr
	}
	m.AssignedIdentities = append(m.AssignedIdentities, identity)
	return nil
}

func (m *MockStore) CurrentIdentity(ctx context.Context) (*Identity, error) {
	me := m.Me
	return &me, nil
}
