package extension

// Accessor is the gateway a component uses to reach the extension subsystem
// of the scope it lives in. Every scope object is an Accessor, and so is a
// Director itself.
type Accessor interface {
	ExtensionDirector() *Director
}

// AccessorAware is implemented by beans and extension instances that want
// the accessor of their owning scope handed to them during initialization.
type AccessorAware interface {
	SetExtensionAccessor(Accessor)
}

// PostProcessor is a cross-cutting hook invoked once for every bean
// registration and every extension instantiation, in the order the
// processors were added to the director. A non-nil error aborts the
// registration or instantiation.
type PostProcessor interface {
	PostProcess(instance any, name string) error
}

// PostProcessorFunc adapts a plain function to the PostProcessor interface.
type PostProcessorFunc func(instance any, name string) error

func (f PostProcessorFunc) PostProcess(instance any, name string) error {
	return f(instance, name)
}

// Configurable is implemented by extension instances that accept parameters
// declared in a capability manifest. Configure runs after accessor injection
// and before any post-processors.
type Configurable interface {
	Configure(params map[string]any) error
}
