package dag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/provider"
	"github.com/netweave/netweave/internal/testutil"
)

const hubConfig = `
resource "vpc" "main" {
  arguments {
    name       = "hub-vpc"
    cidr_block = "10.0.0.0/16"
    tags       = { Name = "hub-vpc" }
  }
}

resource "subnet" "egress_a" {
  arguments {
    vpc_id            = resource.vpc.main.id
    cidr_block        = "10.0.1.0/24"
    availability_zone = "us-west-1a"
  }
}

resource "subnet" "egress_b" {
  arguments {
    vpc_id            = resource.vpc.main.id
    cidr_block        = "10.0.2.0/24"
    availability_zone = "us-west-1b"
  }
}

resource "transit_gateway" "hub" {
  arguments {
    description = "central hub"
    dns_support = true
  }
}

resource "tgw_attachment" "egress" {
  arguments {
    transit_gateway_id = resource.transit_gateway.hub.id
    vpc_id             = resource.vpc.main.id
    subnet_ids         = [resource.subnet.egress_a.id, resource.subnet.egress_b.id]
  }
}

resource "tgw_route_table" "main" {
  arguments {
    transit_gateway_id = resource.transit_gateway.hub.id
    associations       = [resource.tgw_attachment.egress.id]

    route {
      dest_cidr     = "0.0.0.0/0"
      attachment_id = resource.tgw_attachment.egress.id
    }
  }
}
`

func buildErr(t *testing.T, src string) error {
	t.Helper()
	model := testutil.ModelFromHCL(t, src)
	_, err := dag.Build(context.Background(), model, provider.BuiltinSchemas())
	return err
}

func TestBuildLinksReferences(t *testing.T) {
	g := testutil.GraphFromHCL(t, hubConfig)
	require.Len(t, g.Nodes, 6)

	attachment := g.Nodes["tgw_attachment.egress"]
	require.NotNil(t, attachment)
	assert.Contains(t, attachment.Deps, "transit_gateway.hub")
	assert.Contains(t, attachment.Deps, "vpc.main")
	assert.Contains(t, attachment.Deps, "subnet.egress_a")
	assert.Contains(t, attachment.Deps, "subnet.egress_b")

	// References inside nested route blocks link too.
	routeTable := g.Nodes["tgw_route_table.main"]
	require.NotNil(t, routeTable)
	assert.Contains(t, routeTable.Deps, "tgw_attachment.egress")

	vpc := g.Nodes["vpc.main"]
	assert.Contains(t, vpc.Dependents, "subnet.egress_a")
	assert.Empty(t, vpc.Deps)
}

func TestBuildRejectsUndeclaredReference(t *testing.T) {
	// The route table points at an attachment that is never declared; the
	// build must fail before any provider call could be issued.
	err := buildErr(t, `
resource "transit_gateway" "hub" {
  arguments {}
}

resource "tgw_route_table" "main" {
  arguments {
    transit_gateway_id = resource.transit_gateway.hub.id
    associations       = [resource.tgw_attachment.ingress.id]
  }
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "undeclared resource")
	assert.ErrorContains(t, err, "tgw_attachment.ingress")
}

func TestBuildRejectsUndeclaredAttribute(t *testing.T) {
	err := buildErr(t, `
resource "vpc" "main" {
  arguments {
    name       = "v"
    cidr_block = "10.0.0.0/16"
  }
}

resource "subnet" "a" {
  arguments {
    vpc_id            = resource.vpc.main.vpc_identifier
    cidr_block        = "10.0.1.0/24"
    availability_zone = "us-west-1a"
  }
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "undeclared attribute")
}

func TestBuildRejectsDuplicateAddress(t *testing.T) {
	err := buildErr(t, `
resource "vpc" "main" {
  arguments {
    name       = "a"
    cidr_block = "10.0.0.0/16"
  }
}

resource "vpc" "main" {
  arguments {
    name       = "b"
    cidr_block = "10.1.0.0/16"
  }
}
`)
	assert.ErrorContains(t, err, "duplicate resource address")
}

func TestBuildRejectsUnknownType(t *testing.T) {
	err := buildErr(t, `
resource "elastic_ip" "a" {
  arguments {}
}
`)
	assert.ErrorContains(t, err, "unknown resource type")
}

func TestBuildRejectsMissingRequiredArgument(t *testing.T) {
	err := buildErr(t, `
resource "vpc" "main" {
  arguments {
    name = "no-cidr"
  }
}
`)
	assert.ErrorContains(t, err, `required argument "cidr_block" is missing`)
}

func TestBuildRejectsDependsOnCycle(t *testing.T) {
	err := buildErr(t, `
resource "vpc" "a" {
  arguments {
    name       = "a"
    cidr_block = "10.0.0.0/16"
  }
  depends_on = ["vpc.b"]
}

resource "vpc" "b" {
  arguments {
    name       = "b"
    cidr_block = "10.1.0.0/16"
  }
  depends_on = ["vpc.a"]
}
`)
	assert.ErrorContains(t, err, "cycle")
}

func TestBuildRejectsOverlappingSubnets(t *testing.T) {
	err := buildErr(t, `
resource "vpc" "main" {
  arguments {
    name       = "v"
    cidr_block = "10.0.0.0/16"
  }
}

resource "subnet" "a" {
  arguments {
    vpc_id            = resource.vpc.main.id
    cidr_block        = "10.0.1.0/24"
    availability_zone = "us-west-1a"
  }
}

resource "subnet" "b" {
  arguments {
    vpc_id            = resource.vpc.main.id
    cidr_block        = "10.0.1.0/25"
    availability_zone = "us-west-1b"
  }
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "overlap")
}

func TestBuildRejectsSubnetOutsideVPC(t *testing.T) {
	err := buildErr(t, `
resource "vpc" "main" {
  arguments {
    name       = "v"
    cidr_block = "10.0.0.0/16"
  }
}

resource "subnet" "stray" {
  arguments {
    vpc_id            = resource.vpc.main.id
    cidr_block        = "172.16.0.0/24"
    availability_zone = "us-west-1a"
  }
}
`)
	assert.ErrorContains(t, err, "not contained in parent network")
}
