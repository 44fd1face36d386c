package awsec2

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/provider"
)

// Provider wires the EC2 handlers into a registry.
type Provider struct {
	client *Client
}

// New creates the provider over an initialized client.
func New(client *Client) *Provider {
	return &Provider{client: client}
}

// Register installs a handler for each resource type the provider serves.
func (p *Provider) Register(reg *provider.Registry) {
	reg.Register("vpc", p.vpcHandler())
	reg.Register("subnet", p.subnetHandler())
	reg.Register("transit_gateway", p.transitGatewayHandler())
	reg.Register("tgw_attachment", p.attachmentHandler())
	reg.Register("tgw_route_table", p.routeTableHandler())
}

func strOutput(values map[string]string) map[string]cty.Value {
	out := make(map[string]cty.Value, len(values))
	for k, v := range values {
		out[k] = cty.StringVal(v)
	}
	return out
}
