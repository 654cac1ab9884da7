package extension

import "fmt"

// ScopeLevel names the level of the scope hierarchy a capability is pinned
// to. Instances of a capability's implementations are shared across every
// finer scope beneath the level it declares.
type ScopeLevel int

const (
	// ScopeFramework pins a capability to the framework, the coarsest level.
	ScopeFramework ScopeLevel = iota
	// ScopeApplication pins a capability to one application.
	ScopeApplication
	// ScopeModule pins a capability to one module, the finest level.
	ScopeModule
)

func (l ScopeLevel) String() string {
	switch l {
	case ScopeFramework:
		return "framework"
	case ScopeApplication:
		return "application"
	case ScopeModule:
		return "module"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// ParseScopeLevel converts the manifest spelling of a scope level into its
// ScopeLevel value.
func ParseScopeLevel(s string) (ScopeLevel, error) {
	switch s {
	case "framework":
		return ScopeFramework, nil
	case "application":
		return ScopeApplication, nil
	case "module":
		return ScopeModule, nil
	default:
		return 0, fmt.Errorf("unknown scope level %q (want framework, application or module)", s)
	}
}
