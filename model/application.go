package model

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/scopekit/extension"
)

// Application is the middle scope level. Its registries delegate misses to
// the owning framework's, and it tracks the modules created beneath it.
type Application struct {
	scopeModel
	framework *Framework

	mu            sync.Mutex
	modules       []*Module
	defaultModule *Module
}

var _ Scope = (*Application)(nil)

var applicationSeq atomic.Int64

// Parent returns the owning framework.
func (app *Application) Parent() Scope { return app.framework }

// Framework returns the owning framework with its concrete type.
func (app *Application) Framework() *Framework { return app.framework }

// NewModule creates a module scope under this application. Panics if the
// application is already destroyed.
func (app *Application) NewModule(opts ...Option) *Module {
	mod := app.buildModule(opts)
	app.mu.Lock()
	app.modules = append(app.modules, mod)
	app.mu.Unlock()
	return mod
}

func (app *Application) buildModule(opts []Option) *Module {
	if app.Destroyed() {
		panic(fmt.Sprintf("new module created on destroyed application '%s'", app.name))
	}
	o := buildOptions(opts)
	name := o.name
	if name == "" {
		name = fmt.Sprintf("module-%d", moduleSeq.Add(1))
	}
	base := o.logger
	if base == nil {
		base = app.base
	}
	mod := &Module{
		scopeModel:  newScopeModel(name, base, extension.ScopeModule, app.director, app.factory),
		application: app,
	}
	mod.logger.Debug("Created module scope.", "id", mod.id, "application", app.name)
	return mod
}

// DefaultModule returns this application's shared module, creating it on
// first use. A destroyed default is replaced on the next call.
func (app *Application) DefaultModule() *Module {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.defaultModule == nil || app.defaultModule.Destroyed() {
		mod := app.buildModule(nil)
		app.modules = append(app.modules, mod)
		app.defaultModule = mod
	}
	return app.defaultModule
}

// Modules returns the modules currently registered under this application,
// in creation order.
func (app *Application) Modules() []*Module {
	app.mu.Lock()
	defer app.mu.Unlock()
	out := make([]*Module, len(app.modules))
	copy(out, app.modules)
	return out
}

func (app *Application) removeModule(mod *Module) {
	app.mu.Lock()
	defer app.mu.Unlock()
	for i, m := range app.modules {
		if m == mod {
			app.modules = append(app.modules[:i], app.modules[i+1:]...)
			break
		}
	}
	if app.defaultModule == mod {
		app.defaultModule = nil
	}
}

// Destroy tears down the modules in reverse creation order, then the
// application's own registry and director, and finally deregisters from the
// framework. Failures are aggregated; Destroy is idempotent.
func (app *Application) Destroy() error {
	if !app.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	var result *multierror.Error
	mods := app.Modules()
	for i := len(mods) - 1; i >= 0; i-- {
		if err := mods[i].Destroy(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := app.destroySelf(); err != nil {
		result = multierror.Append(result, err)
	}
	app.framework.removeApplication(app)
	app.logger.Debug("Destroyed application scope.", "id", app.id)
	return result.ErrorOrNil()
}
