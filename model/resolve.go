package model

import (
	"fmt"

	"github.com/vk/scopekit/extension"
	"github.com/vk/scopekit/internal/typeutil"
)

// UnresolvableScopeError reports a scope handle that cannot be coarsened to
// the requested level, such as asking for the module of a framework.
type UnresolvableScopeError struct {
	Scope string
	Want  string
}

func (e *UnresolvableScopeError) Error() string {
	return fmt.Sprintf("cannot resolve a %s from scope %s", e.Want, e.Scope)
}

// ModuleOf resolves an optional scope handle to a concrete module. A nil
// handle means the process-wide default module; a module resolves to
// itself. Coarser scopes do not narrow downward and are rejected.
func ModuleOf(s Scope) (*Module, error) {
	if typeutil.IsNil(s) {
		return DefaultModule(), nil
	}
	if m, ok := s.(*Module); ok {
		return m, nil
	}
	return nil, &UnresolvableScopeError{Scope: describeScope(s), Want: "module"}
}

// ApplicationOf resolves an optional scope handle to the application owning
// it. A nil handle means the process-wide default application.
func ApplicationOf(s Scope) (*Application, error) {
	if typeutil.IsNil(s) {
		return DefaultApplication(), nil
	}
	switch v := s.(type) {
	case *Application:
		return v, nil
	case *Module:
		return v.Application(), nil
	}
	return nil, &UnresolvableScopeError{Scope: describeScope(s), Want: "application"}
}

// FrameworkOf resolves an optional scope handle to the framework above it.
// A nil handle means the process-wide default framework. Every scope level
// coarsens to a framework, so this fails only for handles not built by this
// package.
func FrameworkOf(s Scope) (*Framework, error) {
	if typeutil.IsNil(s) {
		return DefaultFramework(), nil
	}
	switch v := s.(type) {
	case *Framework:
		return v, nil
	case *Application:
		return v.Framework(), nil
	case *Module:
		return v.Application().Framework(), nil
	}
	return nil, &UnresolvableScopeError{Scope: describeScope(s), Want: "framework"}
}

// LoaderOf resolves the extension loader for capability T. With a scope
// given, that scope's own director serves the request. With a nil handle,
// the capability's declared level picks the default scope: framework-level
// capabilities resolve against the default framework, application-level
// against the default application, everything else against the default
// module.
func LoaderOf[T any](s Scope) (*extension.Loader, error) {
	if !typeutil.IsNil(s) {
		return extension.LoaderFor[T](s.ExtensionDirector())
	}
	cap, ok := extension.CapabilityFor[T]()
	if !ok {
		return nil, &extension.UndeclaredCapabilityError{
			Capability: typeutil.Name(typeutil.TypeOf[T]()),
		}
	}
	switch cap.Scope {
	case extension.ScopeFramework:
		return extension.LoaderFor[T](DefaultFramework().ExtensionDirector())
	case extension.ScopeApplication:
		return extension.LoaderFor[T](DefaultApplication().ExtensionDirector())
	default:
		return extension.LoaderFor[T](DefaultModule().ExtensionDirector())
	}
}

func describeScope(s Scope) string {
	return fmt.Sprintf("%q (%T)", s.Name(), s)
}
