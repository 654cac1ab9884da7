package model

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/vk/scopekit/beans"
	"github.com/vk/scopekit/extension"
)

// Scope is the surface shared by the three nesting levels. The interface is
// sealed: Framework, Application and Module are its only implementations,
// so callers can switch over the concrete types exhaustively.
type Scope interface {
	// ID returns the unique identifier of this scope instance.
	ID() string
	// Name returns the scope's name, synthesized per level unless set with
	// WithName.
	Name() string
	// Parent returns the enclosing scope, nil for a Framework.
	Parent() Scope
	// BeanFactory returns the component registry owned by this scope.
	BeanFactory() *beans.Factory
	// ExtensionDirector returns the extension entry point owned by this
	// scope.
	ExtensionDirector() *extension.Director
	// Destroy tears down this scope and every scope beneath it.
	Destroy() error
	// Destroyed reports whether Destroy has run.
	Destroyed() bool

	isScope()
}

// scopeModel carries the state every level shares. The concrete scope types
// embed it and add their level-specific parent and child links.
type scopeModel struct {
	id   string
	name string

	// base is the unadorned logger children derive theirs from; logger is
	// base annotated with this scope's name.
	base   *slog.Logger
	logger *slog.Logger

	director *extension.Director
	factory  *beans.Factory

	destroyed atomic.Bool
}

func newScopeModel(name string, base *slog.Logger, level extension.ScopeLevel, parentDir *extension.Director, parentFac *beans.Factory) scopeModel {
	logger := base.With("scope", name)
	director := extension.NewDirector(parentDir, level, extension.WithDirectorLogger(logger))
	factory := beans.New(parentFac, director, beans.WithLogger(logger))
	return scopeModel{
		id:       uuid.NewString(),
		name:     name,
		base:     base,
		logger:   logger,
		director: director,
		factory:  factory,
	}
}

func (m *scopeModel) ID() string                             { return m.id }
func (m *scopeModel) Name() string                           { return m.name }
func (m *scopeModel) BeanFactory() *beans.Factory            { return m.factory }
func (m *scopeModel) ExtensionDirector() *extension.Director { return m.director }
func (m *scopeModel) Destroyed() bool                        { return m.destroyed.Load() }

func (m *scopeModel) isScope() {}

// destroySelf tears down the registry and director of this scope alone;
// child scopes are the concrete types' responsibility.
func (m *scopeModel) destroySelf() error {
	var result *multierror.Error
	if err := m.factory.Destroy(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := m.director.Destroy(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// scopeOptions collects the per-scope construction knobs.
type scopeOptions struct {
	name   string
	logger *slog.Logger
}

// Option customizes a scope at construction time.
type Option func(*scopeOptions)

// WithName overrides the synthesized scope name.
func WithName(name string) Option {
	return func(o *scopeOptions) { o.name = name }
}

// WithLogger sets the base logger for a scope and, through inheritance, all
// scopes created beneath it.
func WithLogger(logger *slog.Logger) Option {
	return func(o *scopeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) scopeOptions {
	var o scopeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
