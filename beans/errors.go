package beans

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFactoryDestroyed is returned by every mutating operation invoked after
// Destroy.
var ErrFactoryDestroyed = errors.New("bean factory is destroyed")

// DuplicateError reports an explicit Create for a name and type that already
// resolve to a registered bean, locally or through a parent.
type DuplicateError struct {
	Name string
	Type string
}

func (e *DuplicateError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("a bean of type %s is already registered", e.Type)
	}
	return fmt.Sprintf("a bean named %q of type %s is already registered", e.Name, e.Type)
}

// AmbiguousError reports a lookup that matched two or more beans by type with
// none winning on name. It carries every candidate's name; the lookup does
// not fall through to the parent factory in this case.
type AmbiguousError struct {
	Type       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("expected a single matching bean but found %d candidates for type %s: %s",
		len(e.Candidates), e.Type, strings.Join(e.Candidates, ", "))
}

// InstantiationError reports a failed default construction or a constructor
// function that returned an error.
type InstantiationError struct {
	Type string
	Err  error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("creating bean instance of type %s: %v", e.Type, e.Err)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

// InitializationError reports a post-processing hook failing while a bean was
// being wired. The bean is not added to the factory when this is returned.
type InitializationError struct {
	Name string
	Type string
	Err  error
}

func (e *InitializationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("initializing bean of type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("initializing bean %q of type %s: %v", e.Name, e.Type, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
