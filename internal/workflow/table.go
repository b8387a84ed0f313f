package workflow

import "strings"

// Definition is the raw material a [Table] is built from.
//
// Stages lists the default ordered sequence. Categories maps a category name
// (lowercase) to an ordered list of stage names drawn from Stages; categories
// without an entry use the default sequence. Aliases maps alternate status
// spellings to canonical stage names (many-to-one).
type Definition struct {
	Stages     []Stage             `yaml:"stages"`
	Categories map[string][]string `yaml:"categories"`
	Aliases    map[string]string   `yaml:"aliases"`
}

// Table is the immutable, ordered workflow stage table.
//
// Create with [New]. All query methods are pure functions over the table;
// they never mutate their input and never fail beyond a not-found sentinel.
type Table struct {
	// stages is the default ordered sequence.
	stages []Stage

	// byCategory maps lowercase category name to its specialized sequence.
	byCategory map[string][]Stage

	// canonical maps normalized (uppercase, trimmed) spellings - both stage
	// names and aliases - to the canonical stage name.
	canonical map[string]string

	// byName maps canonical stage name to its Stage definition.
	byName map[string]Stage
}

// New builds a [Table] from a [Definition].
//
// Category sequences reference stages from the default sequence by name;
// names that don't resolve are dropped rather than failing, so a partially
// misconfigured category degrades to a shorter sequence instead of
// poisoning every lookup.
func New(def Definition) *Table {
	t := &Table{
		stages:     def.Stages,
		byCategory: make(map[string][]Stage),
		canonical:  make(map[string]string),
		byName:     make(map[string]Stage, len(def.Stages)),
	}

	for _, s := range def.Stages {
		t.byName[s.Name] = s
		t.canonical[normalizeKey(s.Name)] = s.Name
	}
	for alias, name := range def.Aliases {
		if _, ok := t.byName[name]; ok {
			t.canonical[normalizeKey(alias)] = name
		}
	}
	for category, names := range def.Categories {
		var seq []Stage
		for _, name := range names {
			if s, ok := t.byName[name]; ok {
				seq = append(seq, s)
			}
		}
		if len(seq) > 0 {
			t.byCategory[strings.ToLower(category)] = seq
		}
	}

	return t
}

// normalizeKey uppercases and trims a status string for map lookup.
func normalizeKey(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

// Normalize resolves a raw status string to its canonical stage name.
//
// Matching is case-insensitive and alias-resolving. Unrecognized statuses
// are returned uppercased and trimmed, which keeps Normalize idempotent:
// Normalize(Normalize(s)) == Normalize(s) for every input.
func (t *Table) Normalize(status string) string {
	key := normalizeKey(status)
	if name, ok := t.canonical[key]; ok {
		return name
	}
	return key
}

// StageOf returns the [Stage] a status string resolves to.
// The second return value is false for unrecognized statuses.
func (t *Table) StageOf(status string) (Stage, bool) {
	name, ok := t.canonical[normalizeKey(status)]
	if !ok {
		return Stage{}, false
	}
	return t.byName[name], true
}

// Stages returns the ordered stage sequence for a category.
// Categories without a specialized sequence get the default one.
func (t *Table) Stages(category string) []Stage {
	if seq, ok := t.byCategory[strings.ToLower(category)]; ok {
		return seq
	}
	return t.stages
}

// IndexOf returns the ordinal position of a status within its category's
// sequence, or -1 if the status is unrecognized or absent from the sequence.
func (t *Table) IndexOf(status, category string) int {
	name, ok := t.canonical[normalizeKey(status)]
	if !ok {
		return -1
	}
	for i, s := range t.Stages(category) {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Next returns the stage after the given status in its category's sequence.
// The second return value is false if the status is unrecognized or already
// at the terminal stage.
func (t *Table) Next(status, category string) (Stage, bool) {
	seq := t.Stages(category)
	idx := t.IndexOf(status, category)
	if idx < 0 || idx >= len(seq)-1 {
		return Stage{}, false
	}
	return seq[idx+1], true
}

// Previous returns the stage before the given status in its category's
// sequence. The second return value is false if the status is unrecognized
// or already at the initial stage.
func (t *Table) Previous(status, category string) (Stage, bool) {
	seq := t.Stages(category)
	idx := t.IndexOf(status, category)
	if idx <= 0 {
		return Stage{}, false
	}
	return seq[idx-1], true
}

// Remaining returns the ordered stages from the position after the given
// status through the terminal stage inclusive. It is empty when the status
// is unrecognized or already terminal.
func (t *Table) Remaining(status, category string) []Stage {
	seq := t.Stages(category)
	idx := t.IndexOf(status, category)
	if idx < 0 || idx >= len(seq)-1 {
		return nil
	}
	out := make([]Stage, len(seq)-idx-1)
	copy(out, seq[idx+1:])
	return out
}

// Terminal returns the final stage of a category's sequence.
func (t *Table) Terminal(category string) Stage {
	seq := t.Stages(category)
	return seq[len(seq)-1]
}

// IsTerminal reports whether a status resolves to the terminal stage of its
// category's sequence.
func (t *Table) IsTerminal(status, category string) bool {
	seq := t.Stages(category)
	return t.IndexOf(status, category) == len(seq)-1
}
