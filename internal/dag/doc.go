// Package dag builds and validates the resource dependency graph.
//
// Construction happens in passes: one node per declaration, then edges from
// explicit depends_on entries and from implicit references discovered by
// walking argument expressions. Every cross-reference is checked against the
// schema of the referenced type before any provider call is made, so a
// dangling reference is a build error, not a mid-run failure.
package dag
