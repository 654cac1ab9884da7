package manifest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/scopekit/extension"
	"github.com/vk/scopekit/internal/ctxlog"
)

// Set is the merged view of the capability declarations one Load produced.
type Set struct {
	decls   map[string]extension.Declaration
	sources map[string]string
}

func newSet() *Set {
	return &Set{
		decls:   make(map[string]extension.Declaration),
		sources: make(map[string]string),
	}
}

// Len returns the number of declarations in the set.
func (s *Set) Len() int { return len(s.decls) }

// Declarations returns the declarations sorted by capability name.
func (s *Set) Declarations() []extension.Declaration {
	out := make([]extension.Declaration, 0, len(s.decls))
	for _, d := range s.decls {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Source returns the file a capability's declaration came from.
func (s *Set) Source(capability string) (string, bool) {
	src, ok := s.sources[capability]
	return src, ok
}

// Validate performs a strict parity check between the manifests and the
// code-side catalog: every declared capability must exist in code, the
// scope levels must agree, and a declared default must name a registered
// implementation. All findings are reported together.
func (s *Set) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, d := range s.Declarations() {
		cap, ok := extension.CapabilityByName(d.Name)
		if !ok {
			errs = append(errs, fmt.Sprintf("capability '%s': declared in %s but not in code", d.Name, s.sources[d.Name]))
			continue
		}
		if cap.Scope != d.Scope {
			errs = append(errs, fmt.Sprintf("capability '%s': scope mismatch, code declares %s but manifest says %s", d.Name, cap.Scope, d.Scope))
		}
		if d.Default == "" {
			continue
		}
		impls := extension.ImplementationNames(d.Name)
		found := false
		for _, name := range impls {
			if name == d.Default {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("capability '%s': default '%s' is not a registered implementation (registered: %s)",
				d.Name, d.Default, strings.Join(impls, ", ")))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Manifest validation passed.", "capabilities", s.Len())
	return nil
}

// Apply overlays every declaration onto the process catalog. Failures are
// aggregated per capability rather than stopping at the first one.
func (s *Set) Apply() error {
	var result *multierror.Error
	for _, d := range s.Declarations() {
		if err := extension.ApplyDeclaration(d); err != nil {
			result = multierror.Append(result, fmt.Errorf("applying manifest for capability '%s': %w", d.Name, err))
		}
	}
	return result.ErrorOrNil()
}
