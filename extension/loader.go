package extension

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/scopekit/internal/typeutil"
)

// Loader serves the implementations of one capability for one director.
// Instances are singletons per (loader, implementation name): the first Get
// constructs through the registered factory and initializes the result, every
// later Get returns the cached instance.
type Loader struct {
	director *Director
	entry    *capabilityEntry

	mu        sync.Mutex
	instances map[string]any
}

// Capability returns the metadata of the capability this loader serves.
func (l *Loader) Capability() Capability {
	return l.entry.capability()
}

// Names lists the registered implementation names, sorted.
func (l *Loader) Names() []string {
	return l.entry.implementationNames()
}

// Get returns the instance registered under name, constructing and
// initializing it on first use. Initialization is accessor injection,
// manifest params via Configurable, then the director's post-processors in
// order; a failure at any step leaves nothing cached.
//
// The per-loader lock is held across construction, so factories and
// post-processors must not call back into the same loader.
func (l *Loader) Get(name string) (any, error) {
	cap := l.entry.capability()
	if name == "" {
		return nil, fmt.Errorf("empty implementation name for capability %q (use GetDefault)", cap.Name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if inst, ok := l.instances[name]; ok {
		return inst, nil
	}

	fn, ok := l.entry.implementation(name)
	if !ok {
		return nil, &UnknownImplementationError{
			Capability: cap.Name,
			Name:       name,
			Known:      l.entry.implementationNames(),
		}
	}

	inst := fn()
	if err := l.initialize(inst, name); err != nil {
		return nil, &InitError{Capability: cap.Name, Name: name, Err: err}
	}

	l.instances[name] = inst
	l.director.logger.Debug("Instantiated extension.", "capability", cap.Name, "name", name)
	return inst, nil
}

// GetDefault returns the instance named by the capability's declared
// default, from code or from an applied manifest.
func (l *Loader) GetDefault() (any, error) {
	cap := l.entry.capability()
	if cap.Default == "" {
		return nil, &NoDefaultError{Capability: cap.Name}
	}
	return l.Get(cap.Default)
}

func (l *Loader) initialize(inst any, name string) error {
	if aware, ok := inst.(AccessorAware); ok {
		aware.SetExtensionAccessor(l.director)
	}
	if cfg, ok := inst.(Configurable); ok {
		if params := l.entry.snapshotParams(); len(params) > 0 {
			if err := cfg.Configure(params); err != nil {
				return fmt.Errorf("configure: %w", err)
			}
		}
	}
	for _, p := range l.director.PostProcessors() {
		if err := p.PostProcess(inst, name); err != nil {
			return fmt.Errorf("post-process: %w", err)
		}
	}
	return nil
}

// destroy closes cached instances in name order and empties the cache.
func (l *Loader) destroy() error {
	l.mu.Lock()
	instances := l.instances
	l.instances = make(map[string]any)
	l.mu.Unlock()

	names := make([]string, 0, len(instances))
	for name := range instances {
		names = append(names, name)
	}
	sort.Strings(names)

	cap := l.entry.capability()
	var result *multierror.Error
	for _, name := range names {
		closer, ok := instances[name].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("closing implementation %q of capability %q: %w", name, cap.Name, err))
		}
	}
	return result.ErrorOrNil()
}

// Instance returns the named implementation asserted to T. The loader must
// serve a capability whose implementations satisfy T.
func Instance[T any](l *Loader, name string) (T, error) {
	var zero T
	inst, err := l.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("implementation %q of capability %q is not a %s",
			name, l.Capability().Name, typeutil.TypeOf[T]())
	}
	return typed, nil
}

// Default returns the default implementation asserted to T.
func Default[T any](l *Loader) (T, error) {
	var zero T
	inst, err := l.GetDefault()
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("default implementation of capability %q is not a %s",
			l.Capability().Name, typeutil.TypeOf[T]())
	}
	return typed, nil
}
