package engine

import (
	"errors"
	"fmt"
	"strings"

	"jiraflow/internal/transition"
)

// Sentinel errors for engine operations.
var (
	// ErrAtFinalStage indicates an advance was requested on an issue already
	// at the terminal stage. Callers should report it, not treat it as a
	// failure condition.
	ErrAtFinalStage = errors.New("issue is already at the final stage")

	// ErrAtFirstStage indicates a regress was requested on an issue already
	// at the initial stage.
	ErrAtFirstStage = errors.New("issue is already at the first stage")

	// ErrUnrecognizedStatus indicates the issue's current status does not
	// normalize to a known stage; position queries are impossible. Likely a
	// tracker workflow the table doesn't describe.
	ErrUnrecognizedStatus = errors.New("status not recognized by the workflow table")

	// ErrNothingSuspended indicates Resume was called with no suspended
	// operation awaiting field input.
	ErrNothingSuspended = errors.New("no suspended operation to resume")
)

// displayMessageLimit bounds raw tracker messages embedded in error strings.
const displayMessageLimit = 200

// MissingFieldsError reports a transition suspended pending specific field
// values. It is recoverable: supply the values and call [Engine.Resume].
type MissingFieldsError struct {
	IssueKey string
	Stage    string
	Fields   []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("transition of %s to %s needs values for: %s",
		e.IssueKey, e.Stage, strings.Join(e.Fields, ", "))
}

// RejectedError reports a transition the tracker refused and that neither
// the resolver nor the alias table could recover. Terminal for the step.
//
// Message holds the tracker's raw rejection text; Error() truncates it for
// display but the full text stays available to callers.
type RejectedError struct {
	IssueKey string
	Stage    string
	Label    string
	Message  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition of %s to %s rejected: %s",
		e.IssueKey, e.Stage, transition.Truncate(e.Message, displayMessageLimit))
}
