// Package beans implements the scoped component registry at the heart of
// the runtime.
//
// Each scope owns one Factory. Subsystems register shared singleton-like
// components ("beans") with it and retrieve them by type, optionally
// narrowed by name, without any central wiring file. A factory that cannot
// resolve a request locally delegates to its parent, mirroring the
// framework / application / module hierarchy, so beans registered at a
// coarser scope are visible to every scope beneath them but never the other
// way around.
//
// Registration triggers wiring: instances asking for the extension accessor
// receive it, and every post-processor configured on the owning scope's
// director runs over the new bean. A registration either fully completes or
// leaves the factory untouched.
//
// The generic package-level functions (Get, Create, GetOrCreate and their
// named variants) are the public lookup surface; they keep runtime type
// inspection an internal concern of this package.
package beans
