package extension

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/vk/scopekit/internal/typeutil"
)

// Capability describes one pluggable contract type: the name manifests and
// loaders refer to it by, the scope level its instances are shared at, and
// optionally the name of the implementation to use when none is asked for
// explicitly.
type Capability struct {
	Name        string
	Scope       ScopeLevel
	Description string
	Default     string
}

// Declaration is the format-agnostic form of a manifest `capability` block.
// Manifest loaders translate into this and hand it to ApplyDeclaration.
type Declaration struct {
	Name        string
	Scope       ScopeLevel
	Description string
	Default     string
	Params      map[string]any
}

// capabilityEntry is the catalog's record for one declared capability. The
// catalog mutex guards every field, including the overlays ApplyDeclaration
// writes.
type capabilityEntry struct {
	cap    Capability
	typ    reflect.Type
	impls  map[string]func() any
	params map[string]any
}

// The catalog is process-wide, the same way database/sql tracks drivers:
// capability declarations are metadata about types, not about scope
// instances. Scope-instance state lives in directors and loaders.
var catalog = struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*capabilityEntry
	byName map[string]*capabilityEntry
}{
	byType: make(map[reflect.Type]*capabilityEntry),
	byName: make(map[string]*capabilityEntry),
}

// Declare binds the capability type T to its metadata. It is expected to run
// once per capability, typically from the declaring package's init; a second
// declaration for the same type or name is a programmer error and panics.
func Declare[T any](c Capability) {
	t := typeutil.TypeOf[T]()
	if c.Name == "" {
		panic(fmt.Sprintf("extension: capability %s declared with an empty name", t))
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if _, exists := catalog.byType[t]; exists {
		panic(fmt.Sprintf("extension: capability type %s already declared", t))
	}
	if _, exists := catalog.byName[c.Name]; exists {
		panic(fmt.Sprintf("extension: capability name %q already declared", c.Name))
	}

	slog.Debug("Declaring extension capability.", "name", c.Name, "type", t.String(), "scope", c.Scope.String())
	entry := &capabilityEntry{
		cap:   c,
		typ:   t,
		impls: make(map[string]func() any),
	}
	catalog.byType[t] = entry
	catalog.byName[c.Name] = entry
}

// RegisterImplementation registers a named factory for the capability T.
// The capability must have been declared first; duplicate names panic, the
// way a double handler registration would.
func RegisterImplementation[T any](name string, fn func() T) {
	t := typeutil.TypeOf[T]()
	if name == "" {
		panic(fmt.Sprintf("extension: implementation of %s registered with an empty name", t))
	}
	if fn == nil {
		panic(fmt.Sprintf("extension: implementation %q of %s registered with a nil factory", name, t))
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	entry, ok := catalog.byType[t]
	if !ok {
		panic(fmt.Sprintf("extension: implementation %q registered for undeclared capability type %s", name, t))
	}
	if _, exists := entry.impls[name]; exists {
		panic(fmt.Sprintf("extension: implementation %q of capability %q already registered", name, entry.cap.Name))
	}

	slog.Debug("Registering capability implementation.", "capability", entry.cap.Name, "name", name)
	entry.impls[name] = func() any { return fn() }
}

// ApplyDeclaration overlays a manifest declaration onto the code-side
// catalog. The capability must already be declared in code and the scope
// levels must agree; the declaration's default implementation name, params
// and description (when the code declared none) are then adopted.
func ApplyDeclaration(d Declaration) error {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	entry, ok := catalog.byName[d.Name]
	if !ok {
		return &UndeclaredCapabilityError{Capability: d.Name}
	}
	if entry.cap.Scope != d.Scope {
		return &ScopeMismatchError{
			Capability: d.Name,
			Declared:   entry.cap.Scope,
			Manifest:   d.Scope,
		}
	}

	if d.Default != "" {
		entry.cap.Default = d.Default
	}
	if entry.cap.Description == "" {
		entry.cap.Description = d.Description
	}
	if len(d.Params) > 0 {
		if entry.params == nil {
			entry.params = make(map[string]any, len(d.Params))
		}
		for k, v := range d.Params {
			entry.params[k] = v
		}
	}
	return nil
}

// CapabilityFor returns the declared metadata for the capability type T.
func CapabilityFor[T any]() (Capability, bool) {
	return capabilityOf(typeutil.TypeOf[T]())
}

func capabilityOf(t reflect.Type) (Capability, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	entry, ok := catalog.byType[t]
	if !ok {
		return Capability{}, false
	}
	return entry.cap, true
}

// CapabilityByName returns the declared metadata for a capability name.
func CapabilityByName(name string) (Capability, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	entry, ok := catalog.byName[name]
	if !ok {
		return Capability{}, false
	}
	return entry.cap, true
}

// ImplementationNames returns the sorted implementation names registered
// for the named capability, empty when the capability is unknown.
func ImplementationNames(capability string) []string {
	catalog.mu.RLock()
	entry, ok := catalog.byName[capability]
	catalog.mu.RUnlock()
	if !ok {
		return nil
	}
	return entry.implementationNames()
}

// Capabilities lists every declared capability, sorted by name.
func Capabilities() []Capability {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	out := make([]Capability, 0, len(catalog.byName))
	for _, entry := range catalog.byName {
		out = append(out, entry.cap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func lookupEntry(t reflect.Type) (*capabilityEntry, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	entry, ok := catalog.byType[t]
	return entry, ok
}

// snapshot accessors keep loader code from touching entry fields without the
// catalog mutex.

func (e *capabilityEntry) capability() Capability {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	return e.cap
}

func (e *capabilityEntry) implementation(name string) (func() any, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	fn, ok := e.impls[name]
	return fn, ok
}

func (e *capabilityEntry) implementationNames() []string {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	names := make([]string, 0, len(e.impls))
	for name := range e.impls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *capabilityEntry) snapshotParams() map[string]any {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	if len(e.params) == 0 {
		return nil
	}
	out := make(map[string]any, len(e.params))
	for k, v := range e.params {
		out[k] = v
	}
	return out
}
