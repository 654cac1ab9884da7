package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/scopekit/extension"
	"github.com/vk/scopekit/internal/ctxlog"
)

const manifestExtension = ".hcl"

// Load reads capability manifests from the given paths and merges them into
// one Set. A path may name a single file or a directory searched
// recursively for .hcl files; files are processed in sorted path order so a
// duplicate declaration is reported deterministically.
func Load(ctx context.Context, paths ...string) (*Set, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := gatherFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("No manifest files found.", "paths", paths)
		return newSet(), nil
	}
	logger.Debug("Found manifest files to load.", "files", files)

	set := newSet()
	parser := hclparse.NewParser()

	for _, path := range files {
		hclFile, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest file %s: %w", path, diags)
		}

		var file fileSchema
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &file); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode manifest file %s: %w", path, diags)
		}

		for _, block := range file.Capabilities {
			decl, err := buildDeclaration(block)
			if err != nil {
				return nil, fmt.Errorf("in manifest file %s: %w", path, err)
			}
			if prev, ok := set.sources[decl.Name]; ok {
				return nil, fmt.Errorf("capability '%s' declared in both %s and %s", decl.Name, prev, path)
			}
			set.decls[decl.Name] = decl
			set.sources[decl.Name] = path
		}
		logger.Debug("Loaded declarations from manifest file.", "file", path)
	}

	logger.Info("Manifests loaded.", "capabilities", set.Len())
	return set, nil
}

// gatherFiles expands each path into the manifest files beneath it. Plain
// files are taken as-is; directories are walked recursively. The result is
// de-duplicated and sorted.
func gatherFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest path %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), manifestExtension) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk manifest directory %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// buildDeclaration translates one HCL capability block into the
// format-agnostic declaration the extension catalog consumes.
func buildDeclaration(block *capabilityBlock) (extension.Declaration, error) {
	level, err := extension.ParseScopeLevel(block.Scope)
	if err != nil {
		return extension.Declaration{}, fmt.Errorf("capability '%s': %w", block.Name, err)
	}

	decl := extension.Declaration{
		Name:        block.Name,
		Scope:       level,
		Description: block.Description,
		Default:     block.Default,
	}

	if block.Params != nil {
		attrs, diags := block.Params.Body.JustAttributes()
		if diags.HasErrors() {
			return extension.Declaration{}, fmt.Errorf("capability '%s': invalid params block: %w", block.Name, diags)
		}
		params := make(map[string]any, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return extension.Declaration{}, fmt.Errorf("capability '%s': evaluating param '%s': %w", block.Name, name, diags)
			}
			native, err := ctyToNative(val)
			if err != nil {
				return extension.Declaration{}, fmt.Errorf("capability '%s': converting param '%s': %w", block.Name, name, err)
			}
			params[name] = native
		}
		decl.Params = params
	}

	return decl, nil
}
