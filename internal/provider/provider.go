// Package provider defines the contract between the engine and a cloud
// control plane. A provider registers one Handler per resource type; the
// executor drives the handlers according to the plan.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Result is what a handler returns after touching the control plane.
type Result struct {
	// ID is the provider-assigned identifier of the resource.
	ID string
	// Outputs are the computed attributes exposed to downstream
	// expressions, always including "id".
	Outputs map[string]cty.Value
}

// Handler holds the lifecycle functions for one resource type. NewArgs
// returns a pointer to the type's argument struct; the executor decodes the
// declaration's arguments body into it before each call. Delete receives
// the declared arguments too, so providers can route the call (region,
// endpoint) the same way the create did.
type Handler struct {
	NewArgs func() any
	Create  func(ctx context.Context, args any) (*Result, error)
	Read    func(ctx context.Context, id string, args any) (*Result, error)
	Update  func(ctx context.Context, id string, args any) (*Result, error)
	Delete  func(ctx context.Context, id string, args any) error
}

// Registry maps resource types to their registered handlers.
type Registry struct {
	handlers map[string]*Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]*Handler)}
}

// Register adds a handler for a resource type. Registering the same type
// twice is a programming error and panics.
func (r *Registry) Register(resourceType string, h *Handler) {
	if _, exists := r.handlers[resourceType]; exists {
		panic(fmt.Sprintf("handler for resource type %q already registered", resourceType))
	}
	slog.Debug("Registering resource handler.", "type", resourceType)
	r.handlers[resourceType] = h
}

// Handler returns the handler for a resource type, if one is registered.
func (r *Registry) Handler(resourceType string) (*Handler, bool) {
	h, ok := r.handlers[resourceType]
	return h, ok
}

// Types returns the registered resource types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
