// Package config holds the format-agnostic model of a set of resource
// declarations. The hcl package translates parsed files into this model;
// everything downstream (graph builder, planner, executor) depends only on
// the model, never on the concrete source format.
package config
