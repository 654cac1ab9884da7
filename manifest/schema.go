package manifest

import "github.com/hashicorp/hcl/v2"

// paramsBlock captures the free-form attributes of a `params` block. The
// attribute set is open; values are evaluated as literals and converted to
// native Go values.
type paramsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// capabilityBlock represents one `capability` block in a manifest file.
type capabilityBlock struct {
	Name        string       `hcl:"name,label"`
	Scope       string       `hcl:"scope"`
	Description string       `hcl:"description,optional"`
	Default     string       `hcl:"default,optional"`
	Params      *paramsBlock `hcl:"params,block"`
}

// fileSchema represents the top-level structure of a manifest file,
// containing any number of capability blocks.
type fileSchema struct {
	Capabilities []*capabilityBlock `hcl:"capability,block"`
	Body         hcl.Body           `hcl:",remain"`
}
