// Package autofill satisfies a transition's field prerequisites before the
// transition is attempted.
//
// Each managed field pair links a target field (e.g. "Dev Start Date") to a
// "planned" counterpart (e.g. "Planned Start Date"). The filler copies
// planned values into empty targets and reports what it filled and what
// remains missing; it never overwrites data the issue already holds.
package autofill

import (
	"context"
	"fmt"
)

// FieldStore is the slice of the tracker boundary the filler needs.
// The jira package's store implementations satisfy it.
type FieldStore interface {
	ResolveFieldID(ctx context.Context, displayName string) (string, error)
	ReadFields(ctx context.Context, key string, ids []string) (map[string]string, error)
	WriteFields(ctx context.Context, key string, fields map[string]string) error
}

// Pair links a target field to the source field its value derives from.
// Both are display names.
type Pair struct {
	Target string
	Source string
}

// Result reports the outcome of one auto-fill pass.
type Result struct {
	// Filled lists target fields that were computed and written.
	Filled []string

	// StillMissing lists target fields with no value and no derivable
	// source; these need externally supplied values.
	StillMissing []string
}

// Filler copies planned counterpart values into empty target fields.
//
// Create with [New]. The filler is stateless; every AutoFill call reads
// fresh values.
type Filler struct {
	store FieldStore
	pairs []Pair
}

// New creates a [Filler] managing the given field pairs.
func New(store FieldStore, pairs []Pair) *Filler {
	return &Filler{store: store, pairs: pairs}
}

// AutoFill evaluates every managed pair independently and writes all
// computed values in a single batched update.
//
// Per pair: a target that already holds a value is skipped (never
// overwritten); an empty target with a populated source is filled with the
// source value verbatim; an empty target with an empty source is reported
// as still missing.
//
// A failure of the batched write is returned as an error alongside the
// Result; the caller decides whether to proceed regardless. No write is
// issued when nothing was computed.
func (f *Filler) AutoFill(ctx context.Context, issueKey string) (Result, error) {
	var result Result
	if len(f.pairs) == 0 {
		return result, nil
	}

	ids := make(map[string]string, len(f.pairs)*2)
	var readList []string
	for _, p := range f.pairs {
		for _, name := range []string{p.Target, p.Source} {
			if name == "" {
				continue
			}
			if _, ok := ids[name]; ok {
				continue
			}
			id, err := f.store.ResolveFieldID(ctx, name)
			if err != nil {
				return result, fmt.Errorf("failed to resolve field %q: %w", name, err)
			}
			ids[name] = id
			readList = append(readList, id)
		}
	}

	values, err := f.store.ReadFields(ctx, issueKey, readList)
	if err != nil {
		return result, fmt.Errorf("failed to read fields for %s: %w", issueKey, err)
	}

	updates := make(map[string]string)
	for _, p := range f.pairs {
		if values[ids[p.Target]] != "" {
			continue
		}
		source := ""
		if p.Source != "" {
			source = values[ids[p.Source]]
		}
		if source == "" {
			result.StillMissing = append(result.StillMissing, p.Target)
			continue
		}
		updates[p.Target] = source
		result.Filled = append(result.Filled, p.Target)
	}

	if len(updates) == 0 {
		return result, nil
	}
	if err := f.store.WriteFields(ctx, issueKey, updates); err != nil {
		return result, fmt.Errorf("failed to write auto-filled fields for %s: %w", issueKey, err)
	}
	return result, nil
}
