// Package model defines the scope hierarchy the runtime organizes state
// into: a Framework at the top, Applications beneath it, Modules beneath
// those.
//
// Each scope owns one bean factory and one extension director, both wired
// to the parent scope's so that lookups delegate upward. Destroying a scope
// cascades downward through its children before tearing down its own
// registries.
//
// The package also carries the process-wide default chain (DefaultFramework
// and friends) and the resolver helpers (ModuleOf, ApplicationOf,
// FrameworkOf, LoaderOf) that code paths use when they hold an optional
// scope handle and need a concrete level without caring which one they were
// given.
package model
