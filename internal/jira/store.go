// Package jira provides the issue tracker boundary: the [IssueStore]
// interface the core depends on, a Jira REST API v2 implementation, and an
// in-package mock for tests.
//
// Everything network-shaped lives behind [IssueStore]; the engine, filler
// and assigner never see HTTP. All failures are returned as values -
// rejections carry the tracker's message in a [RejectionError] so the
// transition resolver can mine it for legal labels.
package jira

import "context"

// Issue is a transient, possibly-stale read replica of a tracker issue.
//
// The tracker owns the issue; this copy exists only to compute the next
// action and is mutated locally (optimistically) after the tracker confirms
// a transition.
type Issue struct {
	// Key is the unique external identifier (e.g. "PROJ-123").
	Key string

	// Summary is the issue title.
	Summary string

	// Status is the current status name as reported by the tracker,
	// possibly non-canonical; normalize before position queries.
	Status string

	// Assignee is the display name of the current assignee, if any.
	Assignee string

	// Priority is the tracker priority name.
	Priority string

	// Category is the issue type/category used to pick the workflow
	// sequence (e.g. "documentation").
	Category string
}

// Identity is a tracker user identity.
type Identity struct {
	// AccountID is the tracker-internal identifier used for assignment.
	AccountID string

	// Name is the login/short name.
	Name string

	// DisplayName is the human-readable name.
	DisplayName string
}

// IssueStore is the narrow boundary interface the workflow core consumes.
//
// Implementations must return failures as values: transitions the tracker
// refuses come back as a [*RejectionError], unresolvable issue keys as
// [ErrIssueNotFound], and HTTP-level failures as a [*RequestError].
type IssueStore interface {
	// FetchIssue retrieves one issue by key.
	FetchIssue(ctx context.Context, key string) (*Issue, error)

	// ListAssignedIssues returns issues assigned to the current identity
	// whose status is one of the given candidates. An empty candidate list
	// means any status.
	ListAssignedIssues(ctx context.Context, statuses []string) ([]Issue, error)

	// AttemptTransition performs the transition identified by label.
	// A tracker refusal is returned as a *RejectionError whose message may
	// enumerate the legal transition labels.
	AttemptTransition(ctx context.Context, key, label string) error

	// ReadFields returns the current values of the given field ids.
	// Absent or empty fields are omitted from the result map.
	ReadFields(ctx context.Context, key string, ids []string) (map[string]string, error)

	// WriteFields updates custom fields by display name in one batched call.
	WriteFields(ctx context.Context, key string, fields map[string]string) error

	// ResolveFieldID maps a field display name to its tracker id, backed by
	// a process-lifetime cached catalog.
	ResolveFieldID(ctx context.Context, displayName string) (string, error)

	// SearchIdentity looks up tracker identities matching a query.
	SearchIdentity(ctx context.Context, query string) ([]Identity, error)

	// Assign sets the issue's assignee.
	Assign(ctx context.Context, key string, identity Identity) error

	// CurrentIdentity returns the identity the store authenticates as.
	CurrentIdentity(ctx context.Context) (*Identity, error)
}
