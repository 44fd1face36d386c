package provider

import "github.com/zclconf/go-cty/cty"

// Attribute describes one declarable argument of a resource type.
type Attribute struct {
	Type     cty.Type
	Required bool
}

// BlockSchema describes a repeatable nested block inside an arguments body.
type BlockSchema struct {
	Attributes map[string]Attribute
}

// Schema describes everything that may be declared or referenced on a
// resource type. The graph builder validates every cross-reference against
// the schema of the referenced type, so a typo in a reference fails at
// build time instead of surfacing as a missing value mid-run.
type Schema struct {
	Type      string
	Arguments map[string]Attribute
	Blocks    map[string]*BlockSchema
	Outputs   map[string]cty.Type
}

// Referenceable reports whether attr can appear after the address in a
// reference expression, i.e. it is either a declared argument or a computed
// output of the type.
func (s *Schema) Referenceable(attr string) bool {
	if _, ok := s.Arguments[attr]; ok {
		return true
	}
	_, ok := s.Outputs[attr]
	return ok
}

var stringMap = cty.Map(cty.String)

// BuiltinSchemas returns the schemas of the network resource types the
// engine ships with.
func BuiltinSchemas() map[string]*Schema {
	return map[string]*Schema{
		"vpc": {
			Type: "vpc",
			Arguments: map[string]Attribute{
				"name":       {Type: cty.String, Required: true},
				"cidr_block": {Type: cty.String, Required: true},
				"region":     {Type: cty.String},
				"tenancy":    {Type: cty.String},
				"tags":       {Type: stringMap},
			},
			Outputs: map[string]cty.Type{
				"id":    cty.String,
				"state": cty.String,
			},
		},
		"subnet": {
			Type: "subnet",
			Arguments: map[string]Attribute{
				"vpc_id":            {Type: cty.String, Required: true},
				"cidr_block":        {Type: cty.String, Required: true},
				"availability_zone": {Type: cty.String, Required: true},
				"tags":              {Type: stringMap},
			},
			Outputs: map[string]cty.Type{
				"id":    cty.String,
				"state": cty.String,
			},
		},
		"transit_gateway": {
			Type: "transit_gateway",
			Arguments: map[string]Attribute{
				"description":                     {Type: cty.String},
				"region":                          {Type: cty.String},
				"auto_accept_shared_attachments":  {Type: cty.Bool},
				"default_route_table_association": {Type: cty.Bool},
				"default_route_table_propagation": {Type: cty.Bool},
				"dns_support":                     {Type: cty.Bool},
				"purge_tags":                      {Type: cty.Bool},
				"tags":                            {Type: stringMap},
			},
			Outputs: map[string]cty.Type{
				"id":    cty.String,
				"arn":   cty.String,
				"state": cty.String,
			},
		},
		"tgw_attachment": {
			Type: "tgw_attachment",
			Arguments: map[string]Attribute{
				"transit_gateway_id": {Type: cty.String, Required: true},
				"vpc_id":             {Type: cty.String, Required: true},
				"subnet_ids":         {Type: cty.List(cty.String), Required: true},
				"region":             {Type: cty.String},
				"tags":               {Type: stringMap},
			},
			Outputs: map[string]cty.Type{
				"id":    cty.String,
				"state": cty.String,
			},
		},
		"tgw_route_table": {
			Type: "tgw_route_table",
			Arguments: map[string]Attribute{
				"transit_gateway_id": {Type: cty.String, Required: true},
				"lookup":             {Type: cty.String},
				"route_table_id":     {Type: cty.String},
				"associations":       {Type: cty.List(cty.String)},
				"region":             {Type: cty.String},
				"purge_tags":         {Type: cty.Bool},
				"tags":               {Type: stringMap},
			},
			Blocks: map[string]*BlockSchema{
				"route": {
					Attributes: map[string]Attribute{
						"dest_cidr":     {Type: cty.String, Required: true},
						"attachment_id": {Type: cty.String, Required: true},
					},
				},
			},
			Outputs: map[string]cty.Type{
				"id":    cty.String,
				"state": cty.String,
			},
		},
	}
}
