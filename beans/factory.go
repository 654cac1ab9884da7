package beans

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/scopekit/extension"
	"github.com/vk/scopekit/internal/typeutil"
)

// entry pairs a registered instance with its resolved name. Entries are
// append-only until Destroy; insertion order is the scan order for lookups.
type entry struct {
	name     string
	instance any
}

// Factory is the per-scope store of shared components. Lookups that find
// nothing locally delegate to the parent factory, mirroring the scope
// hierarchy, so a component registered at a coarser scope is visible to
// every finer scope beneath it.
//
// All methods are safe for concurrent use.
type Factory struct {
	parent   *Factory
	accessor extension.Accessor
	logger   *slog.Logger

	mu      sync.RWMutex
	entries []entry

	// seq holds one *atomic.Int64 per type identifier, used to synthesize
	// unique anonymous bean names.
	seq sync.Map

	// createMu serializes the check-then-act of the Create and GetOrCreate
	// families, so concurrent callers racing on the same name and type
	// construct at most one instance.
	createMu sync.Mutex

	destroyed atomic.Bool
}

// Option customizes a Factory at construction time.
type Option func(*Factory)

// WithLogger sets the logger the factory emits lifecycle events on.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New builds a factory. parent may be nil for the topmost scope; accessor
// may be nil, in which case registration skips accessor injection and
// post-processing.
func New(parent *Factory, accessor extension.Accessor, opts ...Option) *Factory {
	f := &Factory{
		parent:   parent,
		accessor: accessor,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Parent returns the factory lookups delegate to, or nil for the topmost
// scope.
func (f *Factory) Parent() *Factory { return f.parent }

// Register stores instance under a synthesized name of the form
// "<type>#<n>", where n counts anonymous registrations of that type in this
// factory. Registering the same instance again is a no-op.
func (f *Factory) Register(instance any) error {
	return f.register("", instance)
}

// RegisterNamed stores instance under name. Registering the same instance
// under the same name again is a no-op; a different instance under an
// already-used name is accepted, with the earlier entry winning exact-name
// lookups.
func (f *Factory) RegisterNamed(name string, instance any) error {
	if name == "" {
		return fmt.Errorf("bean name must not be empty")
	}
	return f.register(name, instance)
}

func (f *Factory) register(name string, instance any) error {
	if f.destroyed.Load() {
		return ErrFactoryDestroyed
	}
	if typeutil.IsNil(instance) {
		return fmt.Errorf("cannot register a nil bean")
	}

	f.mu.RLock()
	exists := f.containsLocked(name, instance)
	f.mu.RUnlock()
	if exists {
		return nil
	}

	resolved := name
	if resolved == "" {
		resolved = f.nextName(instance)
	}
	if err := f.initialize(resolved, instance); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed.Load() {
		return ErrFactoryDestroyed
	}
	// Recheck with the caller's name, not the synthesized one, so two
	// goroutines racing to register the same instance append it once.
	if f.containsLocked(name, instance) {
		return nil
	}
	f.entries = append(f.entries, entry{name: resolved, instance: instance})
	f.logger.Debug("Registered bean.", "name", resolved, "type", typeutil.NameOf(instance))
	return nil
}

// containsLocked reports whether instance is already present, additionally
// matching on name when one is given. Identity, not equality: two equal but
// distinct instances are both registrable. Callers hold f.mu.
func (f *Factory) containsLocked(name string, instance any) bool {
	for i := range f.entries {
		e := &f.entries[i]
		if typeutil.Identical(e.instance, instance) && (name == "" || name == e.name) {
			return true
		}
	}
	return false
}

func (f *Factory) nextName(instance any) string {
	id := typeutil.NameOf(instance)
	counter, _ := f.seq.LoadOrStore(id, new(atomic.Int64))
	return fmt.Sprintf("%s#%d", id, counter.(*atomic.Int64).Add(1))
}

// Initialize wires an already-constructed instance without tracking it:
// accessor injection and post-processing hooks run, but no entry is added.
func (f *Factory) Initialize(instance any) error {
	if f.destroyed.Load() {
		return ErrFactoryDestroyed
	}
	if typeutil.IsNil(instance) {
		return fmt.Errorf("cannot initialize a nil bean")
	}
	return f.initialize("", instance)
}

// initialize injects the extension accessor and runs the director's
// post-processors in order. The processor list is read live from the
// director, so hooks added after the factory was built still apply.
func (f *Factory) initialize(name string, instance any) error {
	if f.accessor == nil {
		return nil
	}
	if aware, ok := instance.(extension.AccessorAware); ok {
		aware.SetExtensionAccessor(f.accessor)
	}
	for _, p := range f.accessor.ExtensionDirector().PostProcessors() {
		if err := p.PostProcess(instance, name); err != nil {
			return &InitializationError{Name: name, Type: typeutil.NameOf(instance), Err: err}
		}
	}
	return nil
}

// lookup runs the local algorithm, then walks up to the parent when nothing
// matched locally. A local ambiguity stops the walk. A destroyed factory
// resolves nothing, not even through its parent.
func (f *Factory) lookup(name string, typ reflect.Type) (any, error) {
	if f.destroyed.Load() {
		return nil, nil
	}
	inst, err := f.lookupLocal(name, typ)
	if err != nil {
		return nil, err
	}
	if inst == nil && f.parent != nil {
		return f.parent.lookup(name, typ)
	}
	return inst, nil
}

// lookupLocal scans the entries in insertion order. The first entry whose
// name equals the requested name wins outright. Failing that, a single
// type-compatible entry is returned even under a non-matching name, the
// name being advisory when there is no ambiguity. Two or more candidates
// make the request ambiguous.
func (f *Factory) lookupLocal(name string, typ reflect.Type) (any, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var candidates []*entry
	for i := range f.entries {
		e := &f.entries[i]
		if !typeutil.AssignableTo(e.instance, typ) {
			continue
		}
		if e.name == name {
			return e.instance, nil
		}
		candidates = append(candidates, e)
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0].instance, nil
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return nil, &AmbiguousError{Type: typeutil.Name(typ), Candidates: names}
}

// Destroy tears the factory down. Beans implementing io.Closer are closed in
// reverse registration order, close failures are aggregated rather than
// short-circuiting, the entry list is cleared, and every later mutating call
// returns ErrFactoryDestroyed. Destroy is idempotent; lookups on a destroyed
// factory simply find nothing.
func (f *Factory) Destroy() error {
	if !f.destroyed.CompareAndSwap(false, true) {
		return nil
	}

	f.mu.Lock()
	entries := f.entries
	f.entries = nil
	f.mu.Unlock()

	var result *multierror.Error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		closer, ok := e.instance.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing bean %q: %w", e.name, err))
		}
	}
	f.logger.Debug("Destroyed bean factory.", "beans", len(entries))
	return result.ErrorOrNil()
}

// Destroyed reports whether Destroy has run.
func (f *Factory) Destroyed() bool { return f.destroyed.Load() }
