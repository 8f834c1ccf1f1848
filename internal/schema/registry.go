package schema

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"reviewsubgraph/internal/schema/types"
)

// ErrEmptyName is returned when registering a definition without a name
var ErrEmptyName = errors.New("schema name must not be empty")

// Registry holds named schema definitions for the lifetime of the process.
//
// Readers never observe a partially written entry: definitions are copied
// on the way in and on the way out, and both copies happen while the lock
// is held. Lookups share a read lock and do not block each other.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]types.SchemaDefinition
}

// New creates an empty schema registry
func New() *Registry {
	return &Registry{
		definitions: make(map[string]types.SchemaDefinition),
	}
}

// Register inserts or replaces the definition stored under name
func (r *Registry) Register(name string, def types.SchemaDefinition) error {
	if name == "" {
		return ErrEmptyName
	}

	stored := def.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.definitions[name]; ok {
		slog.Debug("Replacing schema definition", "name", name)
	} else {
		slog.Debug("Registering schema definition", "name", name)
	}
	r.definitions[name] = stored

	return nil
}

// Lookup returns a copy of the definition stored under name.
// The boolean is false when nothing is registered under that name.
func (r *Registry) Lookup(name string) (types.SchemaDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[name]
	if !ok {
		return types.SchemaDefinition{}, false
	}
	return def.Clone(), true
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
