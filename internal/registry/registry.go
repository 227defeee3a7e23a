// Package registry holds the published export tables of compiled
// modules. It is the only shared mutable state in the core: module
// environments stay private and are discarded after compilation, while
// export signatures live here for linking, the bridge and tooling.
package registry

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/phpxlang/phpx/internal/typesystem"
)

// ModuleID identifies a compiled module. IDs are uuid v5 over the
// cleaned module path, so the same path maps to the same ID within and
// across runs.
type ModuleID = uuid.UUID

// ExportSignature is one published export: its public name, checked
// signature and the mangled internal reference the wrapper dispatches
// to.
type ExportSignature struct {
	Name     string
	Params   []typesystem.Type
	Required int // leading parameters without defaults
	Return   typesystem.Type
	RawRef   string
}

// Registry maps module IDs to their export tables. Construct one per
// host and pass it where needed; nothing in the core holds a global.
type Registry struct {
	mu      sync.RWMutex
	modules map[ModuleID]map[string]ExportSignature
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[ModuleID]map[string]ExportSignature)}
}

// Publish installs a module's complete export table in one step.
// Readers see the whole table or the previous state, never a partial
// one. Publishing again replaces the table.
func (r *Registry) Publish(id ModuleID, exports map[string]ExportSignature) {
	table := make(map[string]ExportSignature, len(exports))
	for name, sig := range exports {
		table[name] = sig
	}
	r.mu.Lock()
	r.modules[id] = table
	r.mu.Unlock()
}

// Lookup finds one export of a published module.
func (r *Registry) Lookup(id ModuleID, name string) (ExportSignature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.modules[id]
	if !ok {
		return ExportSignature{}, false
	}
	sig, ok := table[name]
	return sig, ok
}

// Exports returns a copy of a module's export table.
func (r *Registry) Exports(id ModuleID) (map[string]ExportSignature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.modules[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]ExportSignature, len(table))
	for name, sig := range table {
		out[name] = sig
	}
	return out, true
}

// Published reports whether the module has a table in the registry.
func (r *Registry) Published(id ModuleID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[id]
	return ok
}

// Modules lists every published module ID in stable order.
func (r *Registry) Modules() []ModuleID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ModuleID, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
