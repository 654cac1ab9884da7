package extension

import (
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/scopekit/internal/typeutil"
)

// Director is the per-scope-instance entry point into the extension
// subsystem. Each scope object owns exactly one; directors mirror the scope
// hierarchy through their parent links so that capabilities declared at a
// coarser level are served by the matching ancestor and their instances are
// shared across the whole subtree.
type Director struct {
	parent *Director
	level  ScopeLevel
	logger *slog.Logger

	procMu     sync.RWMutex
	processors []PostProcessor

	mu      sync.Mutex
	loaders map[reflect.Type]*Loader

	destroyed atomic.Bool
}

// DirectorOption configures a Director at construction.
type DirectorOption func(*Director)

// WithDirectorLogger sets the logger loader events are reported through.
func WithDirectorLogger(logger *slog.Logger) DirectorOption {
	return func(d *Director) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDirector creates the director for one scope instance. parent is nil for
// a framework-level director.
func NewDirector(parent *Director, level ScopeLevel, opts ...DirectorOption) *Director {
	d := &Director{
		parent:  parent,
		level:   level,
		logger:  slog.Default(),
		loaders: make(map[reflect.Type]*Loader),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ExtensionDirector makes a Director its own Accessor, so it can be injected
// into AccessorAware components directly.
func (d *Director) ExtensionDirector() *Director { return d }

// Parent returns the next coarser director, nil at the framework level.
func (d *Director) Parent() *Director { return d.parent }

// Level returns the scope level this director serves.
func (d *Director) Level() ScopeLevel { return d.level }

// AddPostProcessor appends a hook run on every bean registration and
// extension instantiation under this director.
func (d *Director) AddPostProcessor(p PostProcessor) {
	if p == nil {
		return
	}
	d.procMu.Lock()
	defer d.procMu.Unlock()
	d.processors = append(d.processors, p)
}

// PostProcessors returns the configured hooks in invocation order.
func (d *Director) PostProcessors() []PostProcessor {
	d.procMu.RLock()
	defer d.procMu.RUnlock()
	out := make([]PostProcessor, len(d.processors))
	copy(out, d.processors)
	return out
}

// Loader returns the loader serving capability type t from this scope. A
// capability declared at a coarser level is redirected to the matching
// ancestor director, so every scope in a subtree sees the same loader and
// therefore the same extension instances.
func (d *Director) Loader(t reflect.Type) (*Loader, error) {
	if d.destroyed.Load() {
		return nil, ErrDirectorDestroyed
	}
	entry, ok := lookupEntry(t)
	if !ok {
		return nil, &UndeclaredCapabilityError{Capability: typeutil.Name(t)}
	}
	cap := entry.capability()
	if cap.Scope < d.level && d.parent != nil {
		return d.parent.Loader(t)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed.Load() {
		return nil, ErrDirectorDestroyed
	}
	if l, ok := d.loaders[t]; ok {
		return l, nil
	}
	l := &Loader{
		director:  d,
		entry:     entry,
		instances: make(map[string]any),
	}
	d.loaders[t] = l
	d.logger.Debug("Created extension loader.", "capability", cap.Name, "level", d.level.String())
	return l, nil
}

// LoaderFor is Director.Loader with the capability given as a type
// parameter.
func LoaderFor[T any](d *Director) (*Loader, error) {
	return d.Loader(typeutil.TypeOf[T]())
}

// Destroy closes every extension instance cached under this director and
// rejects all further Loader requests. Instances served from an ancestor
// director are untouched; the ancestor owns them. Destroy is idempotent and
// aggregates close failures instead of stopping at the first one.
func (d *Director) Destroy() error {
	if !d.destroyed.CompareAndSwap(false, true) {
		return nil
	}

	d.mu.Lock()
	loaders := make([]*Loader, 0, len(d.loaders))
	for _, l := range d.loaders {
		loaders = append(loaders, l)
	}
	d.loaders = nil
	d.mu.Unlock()

	var result *multierror.Error
	for _, l := range loaders {
		if err := l.destroy(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	d.logger.Debug("Destroyed extension director.", "level", d.level.String())
	return result.ErrorOrNil()
}
