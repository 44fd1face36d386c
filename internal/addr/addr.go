// Package addr defines the canonical identity of a declared resource.
//
// Every resource declaration is addressed as "<type>.<name>", e.g.
// "vpc.main" or "tgw_attachment.egress". Addresses are the node IDs of the
// dependency graph, the keys of the state snapshot, and the targets of
// depends_on entries.
package addr

import (
	"fmt"
	"regexp"
	"strings"
)

// namePattern restricts the type and name segments of an address.
var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Address identifies a single resource declaration.
type Address struct {
	// Type is the resource type, e.g. "vpc" or "transit_gateway".
	Type string
	// Name is the user-chosen instance name within the type.
	Name string
}

// New builds an Address from its two segments.
func New(resourceType, name string) Address {
	return Address{Type: resourceType, Name: name}
}

// String returns the canonical "<type>.<name>" form.
func (a Address) String() string {
	return a.Type + "." + a.Name
}

// IsZero reports whether the address is the empty value.
func (a Address) IsZero() bool {
	return a.Type == "" && a.Name == ""
}

// Parse parses the canonical "<type>.<name>" form. Both segments must start
// with a letter and may contain only letters, digits, underscores, and
// hyphens; dots are not allowed in either segment.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("resource address cannot be empty")
	}
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Address{}, fmt.Errorf("invalid resource address %q: want \"type.name\"", raw)
	}
	if !namePattern.MatchString(parts[0]) {
		return Address{}, fmt.Errorf("invalid resource type in address %q", raw)
	}
	if !namePattern.MatchString(parts[1]) {
		return Address{}, fmt.Errorf("invalid resource name in address %q", raw)
	}
	return Address{Type: parts[0], Name: parts[1]}, nil
}
