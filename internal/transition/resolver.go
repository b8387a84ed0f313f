// Package transition resolves tracker transition labels and classifies
// rejection messages.
//
// The canonical stage name and the label the tracker expects for the same
// move frequently drift apart (a regression transition may be configured as
// "Return to Doing" while the stage is just "Doing"). Rather than baking
// label assumptions into the engine, the drift is handled here as a pure
// function over the target name and the tracker's rejection text.
//
// Key types:
//   - [Resolver] - extracts legal labels from a rejection and picks a match
//   - [Classifier] - pattern-matches rejection text into failure kinds
//
// The rejection-message patterns are inherently tracker-version-dependent,
// so both types take their marker/patterns as configuration with defaults
// rather than hardcoding the phrasing.
package transition

import "strings"

// DefaultCandidateMarker is the phrase that precedes the comma-separated
// list of legal transition labels in a rejection message.
const DefaultCandidateMarker = "available transitions:"

// Resolver finds the actual transition label to invoke for a desired target
// stage, using the legal labels enumerated in a rejection message.
//
// The zero value is not usable; create with [NewResolver].
type Resolver struct {
	// marker is the phrase that introduces the candidate label list.
	marker string
}

// NewResolver returns a [Resolver] using [DefaultCandidateMarker].
func NewResolver() *Resolver {
	return &Resolver{marker: DefaultCandidateMarker}
}

// NewResolverWithMarker returns a [Resolver] with a custom marker phrase,
// for trackers whose rejection wording differs from the default.
func NewResolverWithMarker(marker string) *Resolver {
	if marker == "" {
		marker = DefaultCandidateMarker
	}
	return &Resolver{marker: strings.ToLower(marker)}
}

// Candidates extracts the legal transition labels enumerated in a rejection
// message.
//
// The message is expected to contain the marker phrase followed by a
// comma-separated, possibly quote-wrapped list of labels. A message without
// the marker yields an empty list, not an error.
func (r *Resolver) Candidates(rejection string) []string {
	lower := strings.ToLower(rejection)
	idx := strings.Index(lower, strings.ToLower(r.marker))
	if idx < 0 {
		return nil
	}

	rest := rejection[idx+len(r.marker):]
	// The list runs to the end of its line.
	if nl := strings.IndexAny(rest, "\r\n"); nl >= 0 {
		rest = rest[:nl]
	}

	var labels []string
	for _, part := range strings.Split(rest, ",") {
		label := strings.TrimSpace(part)
		label = strings.Trim(label, `"'`)
		label = strings.TrimSpace(label)
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// Resolve picks the transition label to invoke for the target stage name.
//
// Matching is case-insensitive, first match wins:
//  1. A label exactly equal to the target name.
//  2. A label of the form "BACK TO <target>".
//  3. A label that ends with the target name but is not identical to it
//     (covers regressions phrased like "Return to Doing").
//
// The second return value is false when no candidate matches; the caller
// falls back to configured aliases or surfaces the rejection.
func (r *Resolver) Resolve(target, rejection string) (string, bool) {
	candidates := r.Candidates(rejection)
	if len(candidates) == 0 {
		return "", false
	}

	for _, label := range candidates {
		if strings.EqualFold(label, target) {
			return label, true
		}
	}
	for _, label := range candidates {
		if strings.EqualFold(label, "BACK TO "+target) {
			return label, true
		}
	}
	upperTarget := strings.ToUpper(target)
	for _, label := range candidates {
		upper := strings.ToUpper(label)
		if upper != upperTarget && strings.HasSuffix(upper, upperTarget) {
			return label, true
		}
	}
	return "", false
}
