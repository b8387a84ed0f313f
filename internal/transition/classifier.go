package transition

import (
	"regexp"
	"strings"
)

// Kind is the failure category a rejection message classifies into.
type Kind int

const (
	// KindUnresolvable means the message matched no known pattern; the
	// failure is terminal for the step and reported verbatim.
	KindUnresolvable Kind = iota

	// KindMissingFields means the tracker rejected the transition pending
	// specific field values; recoverable after external input.
	KindMissingFields
)

// Classification is the result of pattern-matching a rejection message.
type Classification struct {
	Kind Kind

	// Fields holds the extracted field names when Kind is KindMissingFields.
	Fields []string
}

// Classifier pattern-matches tracker rejection text into failure kinds.
//
// The patterns are free-text matches over CLI/HTTP error strings and are
// tracker-version-dependent; [NewClassifier] installs defaults that match
// Jira Server/DC phrasing, and custom patterns can be supplied for trackers
// that word things differently.
type Classifier struct {
	fieldPatterns []*regexp.Regexp
}

// Default missing-field patterns. Each must have exactly one capture group
// holding either a single field name or a comma-separated list of them.
var defaultFieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)field '([^']+)' is required`),
	regexp.MustCompile(`(?i)"([^"]+)" is required`),
	regexp.MustCompile(`(?i)please fill in (?:the )?(?:following )?(?:required )?fields?:?\s*([^.\r\n]+)`),
	regexp.MustCompile(`(?i)missing required fields?:?\s*([^.\r\n]+)`),
}

// NewClassifier returns a [Classifier] with the default Jira patterns.
func NewClassifier() *Classifier {
	return &Classifier{fieldPatterns: defaultFieldPatterns}
}

// NewClassifierWithPatterns returns a [Classifier] using the given patterns.
// Each pattern needs one capture group for the field name or name list.
// An empty slice falls back to the defaults.
func NewClassifierWithPatterns(patterns []*regexp.Regexp) *Classifier {
	if len(patterns) == 0 {
		return NewClassifier()
	}
	return &Classifier{fieldPatterns: patterns}
}

// Classify pattern-matches a rejection message.
//
// A message matching any missing-field pattern yields KindMissingFields with
// the extracted field names (deduplicated, in order of appearance). Anything
// else is KindUnresolvable.
func (c *Classifier) Classify(message string) Classification {
	var fields []string
	seen := make(map[string]bool)

	for _, pat := range c.fieldPatterns {
		for _, m := range pat.FindAllStringSubmatch(message, -1) {
			for _, name := range splitFieldList(m[1]) {
				key := strings.ToLower(name)
				if !seen[key] {
					seen[key] = true
					fields = append(fields, name)
				}
			}
		}
	}

	if len(fields) > 0 {
		return Classification{Kind: KindMissingFields, Fields: fields}
	}
	return Classification{Kind: KindUnresolvable}
}

// splitFieldList splits a captured group that may hold one field name or a
// comma/and-separated list of them.
func splitFieldList(captured string) []string {
	captured = strings.ReplaceAll(captured, " and ", ",")
	var names []string
	for _, part := range strings.Split(captured, ",") {
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"'`))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Truncate bounds a raw tracker message for display, appending an ellipsis
// when the message was cut.
func Truncate(message string, max int) string {
	if max <= 3 || len(message) <= max {
		return message
	}
	return message[:max-3] + "..."
}
