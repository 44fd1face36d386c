package provider

// Argument structs shared by all providers. The executor decodes a
// declaration's arguments body into one of these via gohcl before calling
// the registered handler, so the hcl tags are the public argument names.

// VPCArgs are the arguments of a `vpc` resource.
type VPCArgs struct {
	Name      string            `hcl:"name"`
	CIDRBlock string            `hcl:"cidr_block"`
	Region    string            `hcl:"region,optional"`
	Tenancy   string            `hcl:"tenancy,optional"`
	Tags      map[string]string `hcl:"tags,optional"`
}

// SubnetArgs are the arguments of a `subnet` resource.
type SubnetArgs struct {
	VPCID            string            `hcl:"vpc_id"`
	CIDRBlock        string            `hcl:"cidr_block"`
	AvailabilityZone string            `hcl:"availability_zone"`
	Tags             map[string]string `hcl:"tags,optional"`
}

// TransitGatewayArgs are the arguments of a `transit_gateway` resource.
type TransitGatewayArgs struct {
	Description                  string            `hcl:"description,optional"`
	Region                       string            `hcl:"region,optional"`
	AutoAcceptSharedAttachments  bool              `hcl:"auto_accept_shared_attachments,optional"`
	DefaultRouteTableAssociation bool              `hcl:"default_route_table_association,optional"`
	DefaultRouteTablePropagation bool              `hcl:"default_route_table_propagation,optional"`
	DNSSupport                   *bool             `hcl:"dns_support,optional"`
	PurgeTags                    bool              `hcl:"purge_tags,optional"`
	Tags                         map[string]string `hcl:"tags,optional"`
}

// TGWAttachmentArgs are the arguments of a `tgw_attachment` resource.
type TGWAttachmentArgs struct {
	TransitGatewayID string            `hcl:"transit_gateway_id"`
	VPCID            string            `hcl:"vpc_id"`
	SubnetIDs        []string          `hcl:"subnet_ids"`
	Region           string            `hcl:"region,optional"`
	Tags             map[string]string `hcl:"tags,optional"`
}

// TGWRouteArgs is a single `route` block of a tgw_route_table.
type TGWRouteArgs struct {
	DestCIDR     string `hcl:"dest_cidr"`
	AttachmentID string `hcl:"attachment_id"`
}

// TGWRouteTableArgs are the arguments of a `tgw_route_table` resource.
// Lookup selects how an existing table is found on refresh: "tag" (the
// default) matches on the Tags set, "id" requires RouteTableID.
type TGWRouteTableArgs struct {
	TransitGatewayID string            `hcl:"transit_gateway_id"`
	Lookup           string            `hcl:"lookup,optional"`
	RouteTableID     string            `hcl:"route_table_id,optional"`
	Associations     []string          `hcl:"associations,optional"`
	Routes           []TGWRouteArgs    `hcl:"route,block"`
	Region           string            `hcl:"region,optional"`
	PurgeTags        bool              `hcl:"purge_tags,optional"`
	Tags             map[string]string `hcl:"tags,optional"`
}
