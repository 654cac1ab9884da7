package model

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/scopekit/extension"
)

// Framework is the top scope level, usually one per process. Its bean
// factory and extension director have no parents; everything registered
// here is visible to every application and module beneath it.
type Framework struct {
	scopeModel

	mu         sync.Mutex
	apps       []*Application
	defaultApp *Application
}

var _ Scope = (*Framework)(nil)

var frameworkSeq atomic.Int64

// NewFramework creates an isolated framework scope. Separate frameworks
// share nothing: each carries its own registries, directors and defaults.
func NewFramework(opts ...Option) *Framework {
	o := buildOptions(opts)
	name := o.name
	if name == "" {
		name = fmt.Sprintf("framework-%d", frameworkSeq.Add(1))
	}
	base := o.logger
	if base == nil {
		base = slog.Default()
	}
	fw := &Framework{
		scopeModel: newScopeModel(name, base, extension.ScopeFramework, nil, nil),
	}
	fw.logger.Debug("Created framework scope.", "id", fw.id)
	return fw
}

// Parent returns nil: a framework has no enclosing scope.
func (fw *Framework) Parent() Scope { return nil }

// NewApplication creates an application scope under this framework. Panics
// if the framework is already destroyed.
func (fw *Framework) NewApplication(opts ...Option) *Application {
	app := fw.buildApplication(opts)
	fw.mu.Lock()
	fw.apps = append(fw.apps, app)
	fw.mu.Unlock()
	return app
}

func (fw *Framework) buildApplication(opts []Option) *Application {
	if fw.Destroyed() {
		panic(fmt.Sprintf("new application created on destroyed framework '%s'", fw.name))
	}
	o := buildOptions(opts)
	name := o.name
	if name == "" {
		name = fmt.Sprintf("application-%d", applicationSeq.Add(1))
	}
	base := o.logger
	if base == nil {
		base = fw.base
	}
	app := &Application{
		scopeModel: newScopeModel(name, base, extension.ScopeApplication, fw.director, fw.factory),
		framework:  fw,
	}
	app.logger.Debug("Created application scope.", "id", app.id, "framework", fw.name)
	return app
}

// DefaultApplication returns this framework's shared application, creating
// it on first use. A destroyed default is replaced on the next call.
func (fw *Framework) DefaultApplication() *Application {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.defaultApp == nil || fw.defaultApp.Destroyed() {
		app := fw.buildApplication(nil)
		fw.apps = append(fw.apps, app)
		fw.defaultApp = app
	}
	return fw.defaultApp
}

// Applications returns the applications currently registered under this
// framework, in creation order.
func (fw *Framework) Applications() []*Application {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	out := make([]*Application, len(fw.apps))
	copy(out, fw.apps)
	return out
}

func (fw *Framework) removeApplication(app *Application) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for i, a := range fw.apps {
		if a == app {
			fw.apps = append(fw.apps[:i], fw.apps[i+1:]...)
			break
		}
	}
	if fw.defaultApp == app {
		fw.defaultApp = nil
	}
}

// Destroy tears down the applications in reverse creation order, then the
// framework's own registry and director. Failures are aggregated; Destroy
// is idempotent.
func (fw *Framework) Destroy() error {
	if !fw.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	var result *multierror.Error
	apps := fw.Applications()
	for i := len(apps) - 1; i >= 0; i-- {
		if err := apps[i].Destroy(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := fw.destroySelf(); err != nil {
		result = multierror.Append(result, err)
	}
	fw.logger.Debug("Destroyed framework scope.", "id", fw.id)
	return result.ErrorOrNil()
}
