package extension

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDirectorDestroyed is returned by loader requests made after a
// director's Destroy.
var ErrDirectorDestroyed = errors.New("extension director is destroyed")

// UndeclaredCapabilityError reports a lookup for a type no Declare call has
// registered.
type UndeclaredCapabilityError struct {
	Capability string
}

func (e *UndeclaredCapabilityError) Error() string {
	return fmt.Sprintf("capability %q is not declared", e.Capability)
}

// UnknownImplementationError reports a Get for an implementation name that
// was never registered for the capability.
type UnknownImplementationError struct {
	Capability string
	Name       string
	Known      []string
}

func (e *UnknownImplementationError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("capability %q has no implementation named %q (none registered)",
			e.Capability, e.Name)
	}
	return fmt.Sprintf("capability %q has no implementation named %q (registered: %s)",
		e.Capability, e.Name, strings.Join(e.Known, ", "))
}

// NoDefaultError reports a GetDefault on a capability whose declaration and
// manifests name no default implementation.
type NoDefaultError struct {
	Capability string
}

func (e *NoDefaultError) Error() string {
	return fmt.Sprintf("capability %q declares no default implementation", e.Capability)
}

// InitError reports a failure while initializing a freshly constructed
// instance. The instance is discarded, not cached.
type InitError struct {
	Capability string
	Name       string
	Err        error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing implementation %q of capability %q: %v",
		e.Name, e.Capability, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// ScopeMismatchError reports a manifest declaring a capability at a scope
// level different from the one its Declare call fixed.
type ScopeMismatchError struct {
	Capability string
	Declared   ScopeLevel
	Manifest   ScopeLevel
}

func (e *ScopeMismatchError) Error() string {
	return fmt.Sprintf("capability %q is declared at %s scope, manifest says %s",
		e.Capability, e.Declared, e.Manifest)
}
