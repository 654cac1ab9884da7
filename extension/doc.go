// Package extension provides the pluggable capability system that sits
// beside the scoped bean registry.
//
// A capability is an interface declared once per process with Declare,
// pinned to a scope level. Implementations register under string names with
// RegisterImplementation, typically from init functions in the packages that
// provide them. Manifests loaded at runtime may overlay a declaration's
// default implementation and parameters through ApplyDeclaration.
//
// Directors form a hierarchy mirroring the scope hierarchy. Asking a
// director for a capability pinned to a coarser scope transparently serves
// the request from the matching ancestor, so an instance pinned to the
// framework level is shared by every application and module beneath it.
// Instances are constructed lazily and cached per loader; construction runs
// accessor injection, manifest configuration, and the director's
// post-processors before the instance is published.
package extension
