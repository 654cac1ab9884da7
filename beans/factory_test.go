package beans

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/scopekit/extension"
)

type cache struct {
	hits int
}

type tracer struct {
	label string
}

type encoder interface {
	ContentType() string
}

type jsonEncoder struct{}

func (*jsonEncoder) ContentType() string { return "application/json" }

type textEncoder struct{}

func (*textEncoder) ContentType() string { return "text/plain" }

func newFactory(parent *Factory) *Factory {
	var parentDir *extension.Director
	level := extension.ScopeFramework
	if parent != nil {
		parentDir = parent.accessor.ExtensionDirector()
		level = extension.ScopeApplication
	}
	return New(parent, extension.NewDirector(parentDir, level))
}

func TestRegister(t *testing.T) {
	t.Run("same instance twice is a no-op", func(t *testing.T) {
		f := newFactory(nil)
		c := &cache{}

		require.NoError(t, f.Register(c))
		require.NoError(t, f.Register(c))

		assert.Len(t, f.entries, 1)
	})

	t.Run("same instance under same name is a no-op", func(t *testing.T) {
		f := newFactory(nil)
		c := &cache{}

		require.NoError(t, f.RegisterNamed("shared", c))
		require.NoError(t, f.RegisterNamed("shared", c))

		assert.Len(t, f.entries, 1)
	})

	t.Run("anonymous names count per type", func(t *testing.T) {
		f := newFactory(nil)

		require.NoError(t, f.Register(&cache{}))
		require.NoError(t, f.Register(&cache{}))
		require.NoError(t, f.Register(&tracer{}))

		require.Len(t, f.entries, 3)
		assert.Equal(t, "beans.cache#1", f.entries[0].name)
		assert.Equal(t, "beans.cache#2", f.entries[1].name)
		assert.Equal(t, "beans.tracer#1", f.entries[2].name)
	})

	t.Run("nil instance is rejected", func(t *testing.T) {
		f := newFactory(nil)

		assert.Error(t, f.Register(nil))

		var typedNil *cache
		assert.Error(t, f.Register(typedNil))
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		f := newFactory(nil)
		assert.Error(t, f.RegisterNamed("", &cache{}))
	})

	t.Run("zero-size beans of distinct types both register", func(t *testing.T) {
		// All zero-size allocations share one address, so identity must
		// not collapse a *jsonEncoder and a *textEncoder into one entry.
		f := newFactory(nil)

		require.NoError(t, f.Register(&jsonEncoder{}))
		require.NoError(t, f.Register(&textEncoder{}))
		require.Len(t, f.entries, 2)

		_, _, err := Get[encoder](f)
		var ambErr *AmbiguousError
		require.ErrorAs(t, err, &ambErr)
		assert.ElementsMatch(t, []string{"beans.jsonEncoder#1", "beans.textEncoder#1"}, ambErr.Candidates)
	})

	t.Run("different instances may share a name", func(t *testing.T) {
		f := newFactory(nil)
		first := &cache{hits: 1}
		second := &cache{hits: 2}

		require.NoError(t, f.RegisterNamed("shared", first))
		require.NoError(t, f.RegisterNamed("shared", second))
		require.Len(t, f.entries, 2)

		// The earlier entry wins the exact-name match.
		got, found, err := GetNamed[*cache](f, "shared")
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, first, got)
	})
}

func TestLookup(t *testing.T) {
	t.Run("absent type is not an error", func(t *testing.T) {
		f := newFactory(nil)

		got, found, err := Get[*cache](f)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
	})

	t.Run("exact name match wins over ambiguity", func(t *testing.T) {
		f := newFactory(nil)
		primary := &cache{hits: 1}
		replica := &cache{hits: 2}
		require.NoError(t, f.RegisterNamed("primary", primary))
		require.NoError(t, f.RegisterNamed("replica", replica))

		got, found, err := GetNamed[*cache](f, "primary")
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, primary, got)

		got, found, err = GetNamed[*cache](f, "replica")
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, replica, got)
	})

	t.Run("two candidates without a name match is ambiguous", func(t *testing.T) {
		f := newFactory(nil)
		require.NoError(t, f.RegisterNamed("primary", &cache{}))
		require.NoError(t, f.RegisterNamed("replica", &cache{}))

		_, _, err := Get[*cache](f)
		var ambErr *AmbiguousError
		require.ErrorAs(t, err, &ambErr)
		assert.Equal(t, "beans.cache", ambErr.Type)
		assert.ElementsMatch(t, []string{"primary", "replica"}, ambErr.Candidates)
	})

	t.Run("a single candidate makes the name advisory", func(t *testing.T) {
		f := newFactory(nil)
		only := &cache{}
		require.NoError(t, f.RegisterNamed("primary", only))

		got, found, err := GetNamed[*cache](f, "no-such-name")
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, only, got)
	})

	t.Run("lookup by interface", func(t *testing.T) {
		f := newFactory(nil)
		impl := &jsonEncoder{}
		require.NoError(t, f.Register(impl))

		got, found, err := Get[encoder](f)
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, impl, got)
		assert.Equal(t, "application/json", got.ContentType())
	})

	t.Run("interface ambiguity lists concrete candidates", func(t *testing.T) {
		f := newFactory(nil)
		require.NoError(t, f.Register(&jsonEncoder{}))
		require.NoError(t, f.Register(&textEncoder{}))

		_, _, err := Get[encoder](f)
		var ambErr *AmbiguousError
		require.ErrorAs(t, err, &ambErr)
		assert.ElementsMatch(t, []string{"beans.jsonEncoder#1", "beans.textEncoder#1"}, ambErr.Candidates)
	})

	t.Run("anonymous pair resolved by synthesized name", func(t *testing.T) {
		parent := newFactory(nil)
		f := newFactory(parent)
		first := &cache{hits: 1}
		second := &cache{hits: 2}
		require.NoError(t, f.Register(first))
		require.NoError(t, f.Register(second))

		_, _, err := Get[*cache](f)
		var ambErr *AmbiguousError
		require.ErrorAs(t, err, &ambErr)
		assert.ElementsMatch(t, []string{"beans.cache#1", "beans.cache#2"}, ambErr.Candidates)

		got, found, err := GetNamed[*cache](f, "beans.cache#1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, first, got)
	})
}

func TestParentDelegation(t *testing.T) {
	t.Run("miss falls through to the parent", func(t *testing.T) {
		parent := newFactory(nil)
		child := newFactory(parent)
		shared := &tracer{label: "root"}
		require.NoError(t, parent.Register(shared))

		got, found, err := Get[*tracer](child)
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, shared, got)
	})

	t.Run("parent bean is invisible upward", func(t *testing.T) {
		parent := newFactory(nil)
		child := newFactory(parent)
		require.NoError(t, child.Register(&tracer{}))

		_, found, err := Get[*tracer](parent)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("local ambiguity does not consult the parent", func(t *testing.T) {
		parent := newFactory(nil)
		child := newFactory(parent)
		require.NoError(t, parent.RegisterNamed("exact", &cache{}))
		require.NoError(t, child.RegisterNamed("a", &cache{}))
		require.NoError(t, child.RegisterNamed("b", &cache{}))

		_, _, err := GetNamed[*cache](child, "exact")
		var ambErr *AmbiguousError
		require.ErrorAs(t, err, &ambErr)
		assert.ElementsMatch(t, []string{"a", "b"}, ambErr.Candidates)
	})

	t.Run("delegation spans three levels", func(t *testing.T) {
		top := newFactory(nil)
		mid := newFactory(top)
		leaf := newFactory(mid)
		shared := &cache{}
		require.NoError(t, top.Register(shared))

		got, found, err := Get[*cache](leaf)
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, shared, got)
	})
}

func TestCreate(t *testing.T) {
	t.Run("constructs and registers a default instance", func(t *testing.T) {
		f := newFactory(nil)

		created, err := Create[*cache](f)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, 0, created.hits)

		got, found, err := Get[*cache](f)
		require.NoError(t, err)
		require.True(t, found)
		assert.Same(t, created, got)
	})

	t.Run("existing bean makes create a duplicate", func(t *testing.T) {
		f := newFactory(nil)
		_, err := Create[*cache](f)
		require.NoError(t, err)

		_, err = Create[*cache](f)
		var dupErr *DuplicateError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "beans.cache", dupErr.Type)
	})

	t.Run("duplicate check sees the parent", func(t *testing.T) {
		parent := newFactory(nil)
		child := newFactory(parent)
		require.NoError(t, parent.RegisterNamed("shared", &cache{}))

		_, err := CreateNamed[*cache](child, "shared")
		var dupErr *DuplicateError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "shared", dupErr.Name)
	})

	t.Run("non-pointer types are not constructible", func(t *testing.T) {
		f := newFactory(nil)

		_, err := Create[cache](f)
		var instErr *InstantiationError
		require.ErrorAs(t, err, &instErr)
	})
}

func TestGetOrCreate(t *testing.T) {
	t.Run("returns the existing bean", func(t *testing.T) {
		f := newFactory(nil)
		existing := &cache{hits: 7}
		require.NoError(t, f.Register(existing))

		got, err := GetOrCreate[*cache](f)
		require.NoError(t, err)
		assert.Same(t, existing, got)
	})

	t.Run("creates when absent", func(t *testing.T) {
		f := newFactory(nil)

		got, err := GetOrCreate[*cache](f)
		require.NoError(t, err)
		require.NotNil(t, got)

		again, err := GetOrCreate[*cache](f)
		require.NoError(t, err)
		assert.Same(t, got, again)
	})

	t.Run("constructor variant is used on miss only", func(t *testing.T) {
		f := newFactory(nil)
		calls := 0

		build := func() (*tracer, error) {
			calls++
			return &tracer{label: "built"}, nil
		}

		first, err := GetOrCreateFunc(f, build)
		require.NoError(t, err)
		second, err := GetOrCreateFunc(f, build)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("constructor failure registers nothing", func(t *testing.T) {
		f := newFactory(nil)
		boom := errors.New("no database")

		_, err := GetOrCreateFunc(f, func() (*tracer, error) { return nil, boom })
		var instErr *InstantiationError
		require.ErrorAs(t, err, &instErr)
		assert.ErrorIs(t, err, boom)

		_, found, err := Get[*tracer](f)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("racing callers construct exactly once", func(t *testing.T) {
		f := newFactory(nil)
		var constructed int
		var mu sync.Mutex

		build := func() (*cache, error) {
			mu.Lock()
			constructed++
			mu.Unlock()
			return &cache{}, nil
		}

		const workers = 32
		results := make([]*cache, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got, err := GetOrCreateFunc(f, build)
				assert.NoError(t, err)
				results[i] = got
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, constructed)
		for i := 1; i < workers; i++ {
			assert.Same(t, results[0], results[i])
		}
	})
}

func TestConcurrentRegistration(t *testing.T) {
	f := newFactory(nil)

	const workers = 64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Register(&cache{}))
		}()
	}
	wg.Wait()

	f.mu.RLock()
	defer f.mu.RUnlock()
	require.Len(t, f.entries, workers)

	names := make(map[string]struct{}, workers)
	for _, e := range f.entries {
		names[e.name] = struct{}{}
	}
	assert.Len(t, names, workers, "synthesized names must not collide")
}

func TestDestroy(t *testing.T) {
	t.Run("closes beans in reverse registration order", func(t *testing.T) {
		f := newFactory(nil)
		var order []string
		require.NoError(t, f.Register(&closeRecorder{log: &order, label: "first"}))
		require.NoError(t, f.Register(&closeRecorder{log: &order, label: "second"}))
		require.NoError(t, f.Register(&closeRecorder{log: &order, label: "third"}))

		require.NoError(t, f.Destroy())
		assert.Equal(t, []string{"third", "second", "first"}, order)
	})

	t.Run("close failures are aggregated", func(t *testing.T) {
		f := newFactory(nil)
		var order []string
		require.NoError(t, f.Register(&closeRecorder{log: &order, label: "ok"}))
		require.NoError(t, f.Register(&closeRecorder{log: &order, label: "bad", err: errors.New("flush failed")}))
		require.NoError(t, f.Register(&closeRecorder{log: &order, label: "also-bad", err: errors.New("fsync failed")}))

		err := f.Destroy()
		require.Error(t, err)
		assert.ErrorContains(t, err, "flush failed")
		assert.ErrorContains(t, err, "fsync failed")
		// The failing closer does not stop the remaining ones.
		assert.Equal(t, []string{"also-bad", "bad", "ok"}, order)
	})

	t.Run("destroy is idempotent and blocks mutation", func(t *testing.T) {
		f := newFactory(nil)
		require.NoError(t, f.Register(&cache{}))
		require.NoError(t, f.Destroy())
		require.NoError(t, f.Destroy())
		assert.True(t, f.Destroyed())

		assert.ErrorIs(t, f.Register(&cache{}), ErrFactoryDestroyed)
		assert.ErrorIs(t, f.Initialize(&cache{}), ErrFactoryDestroyed)
		_, err := Create[*cache](f)
		assert.ErrorIs(t, err, ErrFactoryDestroyed)
		_, err = GetOrCreate[*cache](f)
		assert.ErrorIs(t, err, ErrFactoryDestroyed)

		_, found, err := Get[*cache](f)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("a destroyed child no longer delegates upward", func(t *testing.T) {
		parent := newFactory(nil)
		require.NoError(t, parent.Register(&cache{}))
		child := newFactory(parent)

		require.NoError(t, child.Destroy())

		_, found, err := Get[*cache](child)
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = Get[*cache](parent)
		require.NoError(t, err)
		assert.True(t, found, "the parent keeps serving its own beans")
	})
}

type closeRecorder struct {
	log   *[]string
	label string
	err   error
}

func (c *closeRecorder) Close() error {
	*c.log = append(*c.log, c.label)
	return c.err
}

func TestErrorMessages(t *testing.T) {
	amb := &AmbiguousError{Type: "beans.cache", Candidates: []string{"primary", "replica"}}
	assert.Equal(t, "expected a single matching bean but found 2 candidates for type beans.cache: primary, replica", amb.Error())

	dup := &DuplicateError{Name: "shared", Type: "beans.cache"}
	assert.Contains(t, dup.Error(), `"shared"`)

	inner := fmt.Errorf("boom")
	initErr := &InitializationError{Name: "shared", Type: "beans.cache", Err: inner}
	assert.ErrorIs(t, initErr, inner)
	assert.Contains(t, initErr.Error(), "beans.cache")
}
