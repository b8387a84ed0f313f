// Package workflow provides the ordered stage table that issues move through.
//
// The table is an immutable, totally ordered sequence of stages, optionally
// specialized per issue category (e.g. documentation issues skip the Testing
// stage). All lookups are pure functions: unknown statuses produce not-found
// sentinels, never errors.
//
// Key types:
//   - [Stage] - one named step in the workflow sequence
//   - [Table] - the ordered sequence with normalization and position queries
//   - [Definition] - the raw material a Table is built from
//
// Status strings arriving from the tracker are normalized through
// [Table.Normalize] before any position query; the alias map resolves legacy
// spellings (e.g. "TO DO" -> "Waiting") to canonical stage names.
package workflow

// FieldRef identifies a custom field a stage requires before it can be
// entered, together with the "planned" counterpart field its value can be
// derived from.
type FieldRef struct {
	// DisplayName is the tracker-visible field name (e.g. "Dev Start Date").
	DisplayName string `yaml:"name"`

	// SourceName is the field whose value is copied when DisplayName is
	// empty (e.g. "Planned Start Date"). Empty means no derivable source.
	SourceName string `yaml:"source"`
}

// Stage is one named step in the fixed workflow sequence.
//
// Stages are immutable and defined at startup. Their order in the [Table]
// is total and never changes at runtime.
type Stage struct {
	// Name is the canonical stage name (e.g. "Doing"). Transitions against
	// the tracker use a label resolved at runtime, which may differ.
	Name string `yaml:"name"`

	// Glyph is the single-character indicator used in list output.
	Glyph string `yaml:"glyph"`

	// Color is the terminal color for the glyph (hex or ANSI name).
	Color string `yaml:"color"`

	// Description is a one-line human explanation of the stage.
	Description string `yaml:"description"`

	// RequiredFields are fields that must hold values before a transition
	// into this stage is attempted. Typically only set on the terminal stage.
	RequiredFields []FieldRef `yaml:"required_fields"`
}
