// Package assign sets the right assignee after an issue enters a role-mapped
// stage.
//
// Assignment is a convenience, not a correctness requirement of the
// workflow: every failure here is swallowed and reported as "not assigned"
// so it can never block or abort the transition that triggered it. That
// asymmetry is deliberate; keep it.
package assign

import (
	"context"
	"strings"

	"jiraflow/internal/jira"
	"jiraflow/internal/workflow"
)

// IdentityStore is the slice of the tracker boundary the assigner needs.
// The jira package's store implementations satisfy it.
type IdentityStore interface {
	ResolveFieldID(ctx context.Context, displayName string) (string, error)
	ReadFields(ctx context.Context, key string, ids []string) (map[string]string, error)
	SearchIdentity(ctx context.Context, query string) ([]jira.Identity, error)
	Assign(ctx context.Context, key string, identity jira.Identity) error
}

// Role describes who should own issues entering a particular stage.
type Role struct {
	// Name is the role label (e.g. "QA", "Reviewer"), used in reports.
	Name string

	// DesignateField is the issue field that may hold a pre-designated
	// person for this role (e.g. "QA Assignee"). Checked first.
	DesignateField string

	// Default is the fallback identity query when the designate field is
	// empty or unresolvable.
	Default string
}

// Result reports the outcome of one auto-assign pass.
type Result struct {
	// Assigned is true when the issue was reassigned.
	Assigned bool

	// Assignee is the display name of the new assignee when Assigned.
	Assignee string

	// Role is the role that drove the assignment when Assigned.
	Role string
}

// Assigner assigns issues entering role-mapped stages.
//
// Create with [New]. Stages without a role mapping are left untouched.
type Assigner struct {
	store IdentityStore

	// roles maps uppercase canonical stage name to its role.
	roles map[string]Role
}

// New creates an [Assigner]. The roles map is keyed by canonical stage name
// (matched case-insensitively).
func New(store IdentityStore, roles map[string]Role) *Assigner {
	byStage := make(map[string]Role, len(roles))
	for stage, role := range roles {
		byStage[strings.ToUpper(stage)] = role
	}
	return &Assigner{store: store, roles: byStage}
}

// AutoAssign determines and sets the correct assignee for an issue that just
// entered the given stage.
//
// Resolution order: the issue's designate field for the stage's role, then
// the role's configured default identity; each is resolved to a real tracker
// identity by directory search, first match wins. Stages with no mapped role
// return Assigned=false with no side effect.
//
// Best-effort by contract: lookup and assignment failures are swallowed and
// reported as Assigned=false, never returned.
func (a *Assigner) AutoAssign(ctx context.Context, issueKey string, stage workflow.Stage) Result {
	role, ok := a.roles[strings.ToUpper(stage.Name)]
	if !ok {
		return Result{}
	}

	for _, query := range []string{a.designatedPerson(ctx, issueKey, role), role.Default} {
		if query == "" {
			continue
		}
		identities, err := a.store.SearchIdentity(ctx, query)
		if err != nil || len(identities) == 0 {
			continue
		}
		identity := identities[0]
		if err := a.store.Assign(ctx, issueKey, identity); err != nil {
			continue
		}
		name := identity.DisplayName
		if name == "" {
			name = identity.Name
		}
		return Result{Assigned: true, Assignee: name, Role: role.Name}
	}
	return Result{}
}

// designatedPerson reads the role's designate field from the issue,
// returning empty on any failure.
func (a *Assigner) designatedPerson(ctx context.Context, issueKey string, role Role) string {
	if role.DesignateField == "" {
		return ""
	}
	id, err := a.store.ResolveFieldID(ctx, role.DesignateField)
	if err != nil {
		return ""
	}
	values, err := a.store.ReadFields(ctx, issueKey, []string{id})
	if err != nil {
		return ""
	}
	return values[id]
}
