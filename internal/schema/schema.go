// Package schema defines the HCL decode targets for declaration files.
package schema

import "github.com/hashicorp/hcl/v2"

// ArgsBlock captures the raw content of an `arguments` block.
type ArgsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Resource represents a `resource "<type>" "<name>"` block.
type Resource struct {
	Type      string     `hcl:"type,label"`
	Name      string     `hcl:"name,label"`
	Arguments *ArgsBlock `hcl:"arguments,block"`
	DependsOn []string   `hcl:"depends_on,optional"`
	State     string     `hcl:"state,optional"`
}

// File represents the top-level structure of a declaration file.
type File struct {
	Resources []*Resource `hcl:"resource,block"`
	Remain    hcl.Body    `hcl:",remain"`
}
