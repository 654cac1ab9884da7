package manifest

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/scopekit/extension"
	"github.com/vk/scopekit/internal/testutil"
)

type objectCache interface {
	Get(key string) any
}

type lruCache struct {
	params map[string]any
}

func (c *lruCache) Get(string) any { return nil }

func (c *lruCache) Configure(params map[string]any) error {
	c.params = params
	return nil
}

type arcCache struct{}

func (*arcCache) Get(string) any { return nil }

type transport interface {
	Dial(addr string) error
}

type inprocTransport struct{}

func (*inprocTransport) Dial(string) error { return nil }

func init() {
	extension.Declare[objectCache](extension.Capability{
		Name:  "cache",
		Scope: extension.ScopeApplication,
	})
	extension.RegisterImplementation[objectCache]("lru", func() objectCache { return &lruCache{} })
	extension.RegisterImplementation[objectCache]("arc", func() objectCache { return &arcCache{} })

	extension.Declare[transport](extension.Capability{
		Name:  "transport",
		Scope: extension.ScopeFramework,
	})
	extension.RegisterImplementation[transport]("inproc", func() transport { return &inprocTransport{} })
}

const cacheManifest = `
capability "cache" {
  scope       = "application"
  description = "Shared object cache."
  default     = "lru"

  params {
    max_entries = 1024
    ratio       = 0.5
    persistent  = true
    shards      = ["a", "b"]
    limits = {
      soft = 10
      hard = 20
    }
  }
}
`

func TestLoad(t *testing.T) {
	t.Run("single file parses fully", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{
			"cache.hcl": cacheManifest,
		})

		set, err := Load(ctx, dir)
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())

		want := []extension.Declaration{{
			Name:        "cache",
			Scope:       extension.ScopeApplication,
			Description: "Shared object cache.",
			Default:     "lru",
			Params: map[string]any{
				"max_entries": int64(1024),
				"ratio":       0.5,
				"persistent":  true,
				"shards":      []any{"a", "b"},
				"limits":      map[string]any{"soft": int64(10), "hard": int64(20)},
			},
		}}
		if diff := cmp.Diff(want, set.Declarations()); diff != "" {
			t.Errorf("declarations mismatch (-want +got):\n%s", diff)
		}

		src, ok := set.Source("cache")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "cache.hcl"), src)
	})

	t.Run("directories are walked recursively", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{
			"net/transport.hcl": `capability "transport" { scope = "framework" }`,
			"cache.hcl":         `capability "cache" { scope = "application" }`,
			"README.md":         "ignored",
		})

		set, err := Load(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, 2, set.Len())

		decls := set.Declarations()
		assert.Equal(t, "cache", decls[0].Name)
		assert.Equal(t, "transport", decls[1].Name)
	})

	t.Run("a path may name a single file", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{
			"only.hcl":  `capability "cache" { scope = "application" }`,
			"other.hcl": `capability "transport" { scope = "framework" }`,
		})

		set, err := Load(ctx, filepath.Join(dir, "only.hcl"))
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())
		_, ok := set.Source("transport")
		assert.False(t, ok)
	})

	t.Run("duplicate declaration across files", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{
			"a.hcl": `capability "cache" { scope = "application" }`,
			"b.hcl": `capability "cache" { scope = "application" }`,
		})

		_, err := Load(ctx, dir)
		require.Error(t, err)
		assert.ErrorContains(t, err, "a.hcl")
		assert.ErrorContains(t, err, "b.hcl")
	})

	t.Run("unknown scope level", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{
			"bad.hcl": `capability "cache" { scope = "tenant" }`,
		})

		_, err := Load(ctx, dir)
		require.Error(t, err)
		assert.ErrorContains(t, err, "cache")
		assert.ErrorContains(t, err, "unknown scope level")
	})

	t.Run("malformed file", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{
			"broken.hcl": `capability "cache" {`,
		})

		_, err := Load(ctx, dir)
		assert.ErrorContains(t, err, "failed to parse manifest file")
	})

	t.Run("missing scope attribute", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{
			"incomplete.hcl": `capability "cache" { default = "lru" }`,
		})

		_, err := Load(ctx, dir)
		assert.ErrorContains(t, err, "failed to decode manifest file")
	})

	t.Run("empty directory warns and yields an empty set", func(t *testing.T) {
		ctx, buf := testutil.NewContext(t)
		dir := testutil.WriteManifests(t, map[string]string{})

		set, err := Load(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, 0, set.Len())
		assert.Contains(t, buf.String(), "No manifest files found.")
	})

	t.Run("missing path", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		_, err := Load(ctx, "/no/such/manifest/dir")
		assert.ErrorContains(t, err, "failed to read manifest path")
	})
}
