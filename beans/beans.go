package beans

import (
	"fmt"

	"github.com/vk/scopekit/internal/typeutil"
)

// Get returns the bean satisfying type T, reporting whether one resolved.
// Absence is not an error; an ambiguous match is.
func Get[T any](f *Factory) (T, bool, error) {
	return lookupAs[T](f, "")
}

// GetNamed returns the bean satisfying type T under name. An exact name
// match wins; with no exact match the name is advisory and a sole candidate
// of the type is returned regardless of its name.
func GetNamed[T any](f *Factory, name string) (T, bool, error) {
	return lookupAs[T](f, name)
}

func lookupAs[T any](f *Factory, name string) (T, bool, error) {
	var zero T
	inst, err := f.lookup(name, typeutil.TypeOf[T]())
	if err != nil {
		return zero, false, err
	}
	if inst == nil {
		return zero, false, nil
	}
	return inst.(T), true, nil
}

// Create constructs a default instance of T, registers it anonymously, and
// returns it. T must be a pointer type; construction yields a pointer to a
// zero value. Fails with a DuplicateError when a bean of type T already
// resolves.
func Create[T any](f *Factory) (T, error) {
	f.createMu.Lock()
	defer f.createMu.Unlock()
	return createLocked[T](f, "")
}

// CreateNamed is Create under an explicit name. Fails with a DuplicateError
// when a bean already resolves for that name and type.
func CreateNamed[T any](f *Factory, name string) (T, error) {
	var zero T
	if name == "" {
		return zero, fmt.Errorf("bean name must not be empty")
	}
	f.createMu.Lock()
	defer f.createMu.Unlock()
	return createLocked[T](f, name)
}

// createLocked runs the resolve-then-construct step. Callers hold f.createMu.
func createLocked[T any](f *Factory, name string) (T, error) {
	var zero T
	if f.destroyed.Load() {
		return zero, ErrFactoryDestroyed
	}
	_, found, err := lookupAs[T](f, name)
	if err != nil {
		return zero, err
	}
	if found {
		return zero, &DuplicateError{Name: name, Type: typeutil.Name(typeutil.TypeOf[T]())}
	}
	inst, err := typeutil.Construct(typeutil.TypeOf[T]())
	if err != nil {
		return zero, &InstantiationError{Type: typeutil.Name(typeutil.TypeOf[T]()), Err: err}
	}
	if err := f.register(name, inst); err != nil {
		return zero, err
	}
	return inst.(T), nil
}

// GetOrCreate returns the bean of type T, constructing and registering a
// default instance when none resolves. The resolve and the construction run
// under one per-factory lock, so concurrent callers observe exactly one
// instance.
func GetOrCreate[T any](f *Factory) (T, error) {
	return getOrCreate[T](f, "")
}

// GetOrCreateNamed is GetOrCreate for an explicitly named bean.
func GetOrCreateNamed[T any](f *Factory, name string) (T, error) {
	var zero T
	if name == "" {
		return zero, fmt.Errorf("bean name must not be empty")
	}
	return getOrCreate[T](f, name)
}

func getOrCreate[T any](f *Factory, name string) (T, error) {
	f.createMu.Lock()
	defer f.createMu.Unlock()
	existing, found, err := lookupAs[T](f, name)
	if err != nil {
		var zero T
		return zero, err
	}
	if found {
		return existing, nil
	}
	return createLocked[T](f, name)
}

// GetOrCreateFunc is GetOrCreate with an explicit constructor, for types
// whose default instance needs arguments or setup. The constructor runs
// while the factory's creation lock is held, so it must not call back into
// the Create or GetOrCreate family of the same factory; plain Get and
// Register are safe.
func GetOrCreateFunc[T any](f *Factory, fn func() (T, error)) (T, error) {
	return getOrCreateFunc[T](f, "", fn)
}

// GetOrCreateNamedFunc is GetOrCreateFunc for an explicitly named bean.
func GetOrCreateNamedFunc[T any](f *Factory, name string, fn func() (T, error)) (T, error) {
	var zero T
	if name == "" {
		return zero, fmt.Errorf("bean name must not be empty")
	}
	return getOrCreateFunc[T](f, name, fn)
}

func getOrCreateFunc[T any](f *Factory, name string, fn func() (T, error)) (T, error) {
	var zero T
	if fn == nil {
		return zero, fmt.Errorf("bean constructor must not be nil")
	}
	f.createMu.Lock()
	defer f.createMu.Unlock()
	if f.destroyed.Load() {
		return zero, ErrFactoryDestroyed
	}
	existing, found, err := lookupAs[T](f, name)
	if err != nil {
		return zero, err
	}
	if found {
		return existing, nil
	}
	inst, err := fn()
	if err != nil {
		return zero, &InstantiationError{Type: typeutil.Name(typeutil.TypeOf[T]()), Err: err}
	}
	if err := f.register(name, any(inst)); err != nil {
		return zero, err
	}
	return inst, nil
}
