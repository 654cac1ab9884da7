package model

import (
	"sync/atomic"
)

// Module is the finest scope level. Its registries delegate misses through
// the owning application up to the framework.
type Module struct {
	scopeModel
	application *Application
}

var _ Scope = (*Module)(nil)

var moduleSeq atomic.Int64

// Parent returns the owning application.
func (m *Module) Parent() Scope { return m.application }

// Application returns the owning application with its concrete type.
func (m *Module) Application() *Application { return m.application }

// Destroy tears down the module's registry and director and deregisters it
// from the application. Idempotent.
func (m *Module) Destroy() error {
	if !m.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	err := m.destroySelf()
	m.application.removeModule(m)
	m.logger.Debug("Destroyed module scope.", "id", m.id)
	return err
}
