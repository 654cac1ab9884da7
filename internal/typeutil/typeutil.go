// Package typeutil confines all runtime type inspection used by the scope
// runtime. The rest of the codebase talks in reflect.Type values obtained
// here; no other package is expected to import reflect for its own checks.
package typeutil

import (
	"fmt"
	"reflect"
)

// TypeOf returns the reflect.Type for T. Unlike reflect.TypeOf on a value,
// it works for interface types as well, which is what makes capability
// lookups by interface possible.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Name returns the stable human-readable identifier for a type, used for
// synthesized bean names and error messages. Pointer types are reported as
// their element type, so *pkg.Widget and pkg.Widget share one identifier.
func Name(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// NameOf is Name applied to a value's dynamic type.
func NameOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return Name(reflect.TypeOf(v))
}

// AssignableTo reports whether the value's dynamic type can satisfy a request
// for target: it is the same type, or target is an interface the value
// implements.
func AssignableTo(v any, target reflect.Type) bool {
	if v == nil || target == nil {
		return false
	}
	return reflect.TypeOf(v).AssignableTo(target)
}

// Construct builds a default instance of t. Only pointer types are
// constructible: the result is a pointer to a zero value of the element type.
// Interface and non-pointer kinds have no sensible default instance and are
// rejected.
func Construct(t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot construct <nil> type")
	}
	if t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("cannot construct %s: only pointer types have a default instance", t)
	}
	return reflect.New(t.Elem()).Interface(), nil
}

// Identical reports whether a and b are the same object. Values of
// different dynamic types are never identical; reference kinds of the same
// type compare by referent; comparable values fall back to ==; everything
// else is never identical.
//
// The runtime places every zero-size allocation at one address, so two
// pointers to distinct zero-size values of the same type compare identical
// here, exactly as they do under ==.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	}
	if !va.Type().Comparable() {
		return false
	}
	return a == b
}

// IsNil reports whether v is nil, including a typed nil inside an interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
