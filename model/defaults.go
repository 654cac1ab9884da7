package model

import "sync"

// The process-wide default hierarchy. Most programs run one framework with
// one application and one module; these accessors create that chain lazily
// and hand out the same instances until they are destroyed.
var (
	defaultsMu       sync.Mutex
	defaultFramework *Framework
)

// DefaultFramework returns the process-wide framework scope, creating it on
// first use. A destroyed default is replaced by a fresh instance on the
// next call.
func DefaultFramework() *Framework {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	if defaultFramework == nil || defaultFramework.Destroyed() {
		defaultFramework = NewFramework()
	}
	return defaultFramework
}

// DefaultApplication returns the default framework's shared application.
func DefaultApplication() *Application {
	return DefaultFramework().DefaultApplication()
}

// DefaultModule returns the default application's shared module.
func DefaultModule() *Module {
	return DefaultApplication().DefaultModule()
}

// ResetDefaults destroys the default hierarchy so the next accessor call
// starts from scratch. Intended for tests that need a pristine process
// state.
func ResetDefaults() error {
	defaultsMu.Lock()
	fw := defaultFramework
	defaultFramework = nil
	defaultsMu.Unlock()
	if fw == nil {
		return nil
	}
	return fw.Destroy()
}
