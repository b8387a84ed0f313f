package jira

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Catalog is a process-lifetime cache of the tracker's field catalog,
// mapping field display names to field ids.
//
// The catalog is built lazily on first lookup and never invalidated; a
// process restart is the only refresh. It is a single long-lived object
// passed by reference into the store implementation rather than an ambient
// global, so its scope is explicit at the wiring site.
type Catalog struct {
	mu     sync.Mutex
	byName map[string]string
	loaded bool
}

// NewCatalog returns an empty, unloaded [Catalog].
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Resolve maps a field display name to its id, loading the catalog on first
// use via the supplied loader. Lookup is case-insensitive.
//
// Returns [ErrFieldNotFound] when the name is absent from the catalog.
func (c *Catalog) Resolve(ctx context.Context, displayName string, load func(context.Context) (map[string]string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		fields, err := load(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load field catalog: %w", err)
		}
		c.byName = make(map[string]string, len(fields))
		for name, id := range fields {
			c.byName[strings.ToLower(name)] = id
		}
		c.loaded = true
	}

	id, ok := c.byName[strings.ToLower(displayName)]
	if !ok {
		return "", fmt.Errorf("%q: %w", displayName, ErrFieldNotFound)
	}
	return id, nil
}
