package jira

import (
	"errors"
	"fmt"
)

// Sentinel errors for tracker lookups.
var (
	// ErrIssueNotFound indicates the issue key did not resolve. Not retried;
	// surfaced immediately.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrFieldNotFound indicates a field display name is absent from the
	// tracker's field catalog.
	ErrFieldNotFound = errors.New("field not found in catalog")
)

// RejectionError is a tracker refusal of a transition.
//
// The Message carries the tracker's raw rejection text, which may enumerate
// the legal transition labels; the transition resolver and classifier
// pattern-match against it.
type RejectionError struct {
	IssueKey string
	Label    string
	Message  string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("transition %q rejected for %s: %s", e.Label, e.IssueKey, e.Message)
}

// RequestError is an HTTP-level failure from the tracker.
type RequestError struct {
	// StatusCode is the HTTP status of the failed request.
	StatusCode int

	// Body is the raw response body, bounded by the client.
	Body string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("tracker request failed with status %d: %s", e.StatusCode, e.Body)
}
