// Package memory is an in-process provider that fakes the cloud control
// plane. It backs local experimentation and the engine's own tests: IDs
// are deterministic per type and all state lives in a map.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/provider"
)

// Provider implements every built-in resource type against process memory.
type Provider struct {
	mu       sync.Mutex
	counters map[string]int
	// objects maps ID to the last argument struct applied to it.
	objects map[string]any
}

// New creates an empty in-memory provider.
func New() *Provider {
	return &Provider{
		counters: make(map[string]int),
		objects:  make(map[string]any),
	}
}

// Register installs a handler for each built-in resource type.
func (p *Provider) Register(reg *provider.Registry) {
	reg.Register("vpc", p.handler("vpc", func() any { return &provider.VPCArgs{} }))
	reg.Register("subnet", p.handler("subnet", func() any { return &provider.SubnetArgs{} }))
	reg.Register("transit_gateway", p.handler("tgw", func() any { return &provider.TransitGatewayArgs{} }))
	reg.Register("tgw_attachment", p.handler("tgw-attach", func() any { return &provider.TGWAttachmentArgs{} }))
	reg.Register("tgw_route_table", p.handler("tgw-rtb", func() any { return &provider.TGWRouteTableArgs{} }))
}

func (p *Provider) handler(idPrefix string, newArgs func() any) *provider.Handler {
	return &provider.Handler{
		NewArgs: newArgs,
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return p.create(idPrefix, args)
		},
		Read: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.read(id)
		},
		Update: func(ctx context.Context, id string, args any) (*provider.Result, error) {
			return p.update(id, args)
		},
		Delete: func(ctx context.Context, id string, args any) error {
			return p.delete(id)
		},
	}
}

func (p *Provider) create(idPrefix string, args any) (*provider.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counters[idPrefix]++
	id := fmt.Sprintf("%s-%04d", idPrefix, p.counters[idPrefix])
	p.objects[id] = args
	return result(id), nil
}

func (p *Provider) read(id string) (*provider.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[id]; !ok {
		return nil, fmt.Errorf("object %q does not exist", id)
	}
	return result(id), nil
}

func (p *Provider) update(id string, args any) (*provider.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[id]; !ok {
		return nil, fmt.Errorf("cannot update %q: object does not exist", id)
	}
	p.objects[id] = args
	return result(id), nil
}

func (p *Provider) delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[id]; !ok {
		return fmt.Errorf("cannot delete %q: object does not exist", id)
	}
	delete(p.objects, id)
	return nil
}

// Len reports how many objects currently exist.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.objects)
}

// Object returns the argument struct last applied to id.
func (p *Provider) Object(id string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	obj, ok := p.objects[id]
	return obj, ok
}

func result(id string) *provider.Result {
	return &provider.Result{
		ID: id,
		Outputs: map[string]cty.Value{
			"id":    cty.StringVal(id),
			"state": cty.StringVal("available"),
		},
	}
}
