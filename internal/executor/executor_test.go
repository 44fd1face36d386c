package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/executor"
	"github.com/netweave/netweave/internal/plan"
	"github.com/netweave/netweave/internal/provider"
	"github.com/netweave/netweave/internal/provider/memory"
	"github.com/netweave/netweave/internal/state"
	"github.com/netweave/netweave/internal/testutil"
)

const hubConfig = `
resource "vpc" "main" {
  arguments {
    name       = "hub-vpc"
    cidr_block = "10.0.0.0/16"
    region     = "us-west-1"
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
    cidr_block        = "10.0.2.0/24"
    availability_zone = "us-west-1b"
  }
}

resource "transit_gateway" "hub" {
  arguments {
    description = "hub tgw"
    region      = "us-west-1"
  }
}

resource "tgw_attachment" "egress" {
  arguments {
    transit_gateway_id = resource.transit_gateway.hub.id
    vpc_id             = resource.vpc.main.id
    subnet_ids         = [resource.subnet.a.id, resource.subnet.b.id]
    region             = "us-west-1"
  }
}

resource "tgw_route_table" "hub" {
  arguments {
    transit_gateway_id = resource.transit_gateway.hub.id
    associations       = [resource.tgw_attachment.egress.id]
    region             = "us-west-1"

    route {
      dest_cidr     = "0.0.0.0/0"
      attachment_id = resource.tgw_attachment.egress.id
    }
  }
}
`

// applyAll plans and executes the graph against the given provider registry
// and snapshot, returning the plan that was executed.
func applyAll(t *testing.T, g *dag.Graph, reg *provider.Registry, snap *state.Snapshot) *plan.Plan {
	t.Helper()
	ctx := context.Background()

	p, err := plan.NewPlanner(snap).Plan(ctx, g)
	require.NoError(t, err)
	require.NoError(t, executor.New(g, p, reg, snap).Run(ctx))
	return p
}

func TestApplyCreatesFullTopology(t *testing.T) {
	g := testutil.GraphFromHCL(t, hubConfig)
	prov := memory.New()
	reg := provider.NewRegistry()
	prov.Register(reg)
	snap := state.NewSnapshot()

	applyAll(t, g, reg, snap)

	require.Len(t, snap.Resources, 6)
	assert.Equal(t, 6, prov.Len())

	// Downstream arguments resolved to the IDs the provider assigned.
	vpcID := snap.Record("vpc.main").ID
	require.NotEmpty(t, vpcID)
	assert.Equal(t, vpcID, snap.Record("subnet.a").Attributes["vpc_id"])

	attachRec := snap.Record("tgw_attachment.egress")
	require.NotNil(t, attachRec)
	assert.Equal(t, snap.Record("transit_gateway.hub").ID, attachRec.Attributes["transit_gateway_id"])
	assert.ElementsMatch(t,
		[]any{snap.Record("subnet.a").ID, snap.Record("subnet.b").ID},
		attachRec.Attributes["subnet_ids"])

	// The typed argument struct the handler received carries the resolved
	// route block.
	rtbRec := snap.Record("tgw_route_table.hub")
	obj, ok := prov.Object(rtbRec.ID)
	require.True(t, ok)
	rtbArgs := obj.(*provider.TGWRouteTableArgs)
	require.Len(t, rtbArgs.Routes, 1)
	assert.Equal(t, "0.0.0.0/0", rtbArgs.Routes[0].DestCIDR)
	assert.Equal(t, attachRec.ID, rtbArgs.Routes[0].AttachmentID)
}

func TestReapplyIsAllNoOps(t *testing.T) {
	g := testutil.GraphFromHCL(t, hubConfig)
	prov := memory.New()
	reg := provider.NewRegistry()
	prov.Register(reg)
	snap := state.NewSnapshot()

	applyAll(t, g, reg, snap)
	before := prov.Len()

	p := applyAll(t, testutil.GraphFromHCL(t, hubConfig), reg, snap)
	for _, c := range p.Changes {
		assert.Equal(t, plan.NoOp, c.Action, c.Node.ID)
	}
	assert.Equal(t, before, prov.Len())
}

func TestDestroyRemovesEverything(t *testing.T) {
	g := testutil.GraphFromHCL(t, hubConfig)
	prov := memory.New()
	reg := provider.NewRegistry()
	prov.Register(reg)
	snap := state.NewSnapshot()
	ctx := context.Background()

	applyAll(t, g, reg, snap)

	p, err := plan.NewPlanner(snap).Destroy(ctx, g)
	require.NoError(t, err)
	require.NoError(t, executor.New(g.Reversed(), p, reg, snap).Run(ctx))

	assert.Empty(t, snap.Resources)
	assert.Equal(t, 0, prov.Len())
}

func TestDeleteReceivesDeclaredArguments(t *testing.T) {
	// Deleting must see the same declared arguments as creating did, so a
	// provider can route the call to the right region.
	cfg := `
resource "vpc" "west" {
  arguments {
    name       = "west"
    cidr_block = "10.0.0.0/16"
    region     = "eu-west-1"
  }
}
`
	g := testutil.GraphFromHCL(t, cfg)
	snap := state.NewSnapshot()
	ctx := context.Background()

	var deletedRegion string
	reg := provider.NewRegistry()
	reg.Register("vpc", &provider.Handler{
		NewArgs: func() any { return &provider.VPCArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return &provider.Result{
				ID:      "vpc-west",
				Outputs: map[string]cty.Value{"id": cty.StringVal("vpc-west")},
			}, nil
		},
		Delete: func(ctx context.Context, id string, args any) error {
			deletedRegion = args.(*provider.VPCArgs).Region
			return nil
		},
	})

	p, err := plan.NewPlanner(snap).Plan(ctx, g)
	require.NoError(t, err)
	require.NoError(t, executor.New(g, p, reg, snap).Run(ctx))

	p, err = plan.NewPlanner(snap).Destroy(ctx, g)
	require.NoError(t, err)
	require.NoError(t, executor.New(g.Reversed(), p, reg, snap).Run(ctx))

	assert.Equal(t, "eu-west-1", deletedRegion)
	assert.Nil(t, snap.Record("vpc.west"))
}

func TestFailureSkipsDependents(t *testing.T) {
	g := testutil.GraphFromHCL(t, hubConfig)
	snap := state.NewSnapshot()
	ctx := context.Background()

	boom := errors.New("control plane said no")
	prov := memory.New()
	reg := provider.NewRegistry()
	prov.Register(reg)

	// Wrap the vpc handler so creation fails.
	failing := provider.NewRegistry()
	for _, typ := range reg.Types() {
		h, _ := reg.Handler(typ)
		if typ != "vpc" {
			failing.Register(typ, h)
			continue
		}
		failing.Register(typ, &provider.Handler{
			NewArgs: h.NewArgs,
			Create: func(ctx context.Context, args any) (*provider.Result, error) {
				return nil, boom
			},
			Read:   h.Read,
			Update: h.Update,
			Delete: h.Delete,
		})
	}

	p, err := plan.NewPlanner(snap).Plan(ctx, g)
	require.NoError(t, err)

	err = executor.New(g, p, failing, snap).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// Nothing downstream of the vpc was created; the independent transit
	// gateway may or may not have made it in before cancellation, but the
	// attachment depends on the vpc and must not exist.
	assert.Nil(t, snap.Record("subnet.a"))
	assert.Nil(t, snap.Record("subnet.b"))
	assert.Nil(t, snap.Record("tgw_attachment.egress"))
	assert.Equal(t, dag.Failed, g.Nodes["vpc.main"].State())
	assert.Equal(t, dag.Failed, g.Nodes["subnet.a"].State())
}

func TestFailureReleasesDisjointChain(t *testing.T) {
	// A failing resource next to an independent dependency chain: once the
	// failure cancels the run, the chain's head is skipped and its
	// dependents must be released transitively or Run never returns. A
	// single worker forces the chain to drain through the skip path.
	cfg := `
resource "vpc" "doomed" {
  arguments {
    name       = "doomed"
    cidr_block = "10.1.0.0/16"
  }
}

resource "transit_gateway" "hub" {
  arguments {
    description = "hub"
  }
}

resource "tgw_route_table" "hub" {
  arguments {
    transit_gateway_id = resource.transit_gateway.hub.id
  }
}
`
	g := testutil.GraphFromHCL(t, cfg)
	snap := state.NewSnapshot()
	ctx := context.Background()

	boom := errors.New("vpc limit reached")
	reg := provider.NewRegistry()
	reg.Register("vpc", &provider.Handler{
		NewArgs: func() any { return &provider.VPCArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return nil, boom
		},
	})
	reg.Register("transit_gateway", &provider.Handler{
		NewArgs: func() any { return &provider.TransitGatewayArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			// Give the vpc failure time to cancel the run first, so the
			// chain head takes the canceled-context path.
			time.Sleep(50 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return &provider.Result{
				ID:      "tgw-1",
				Outputs: map[string]cty.Value{"id": cty.StringVal("tgw-1")},
			}, nil
		},
	})
	reg.Register("tgw_route_table", &provider.Handler{
		NewArgs: func() any { return &provider.TGWRouteTableArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return nil, errors.New("must not run after upstream skip")
		},
	})

	p, err := plan.NewPlanner(snap).Plan(ctx, g)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- executor.New(g, p, reg, snap, executor.WithParallelism(1)).Run(ctx)
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return: dependents of a skipped node were never released")
	}

	assert.Equal(t, dag.Failed, g.Nodes["vpc.doomed"].State())
	assert.Equal(t, dag.Failed, g.Nodes["tgw_route_table.hub"].State())
	assert.Nil(t, snap.Record("tgw_route_table.hub"))
}

func TestPartialStateSurvivesFailure(t *testing.T) {
	cfg := `
resource "vpc" "main" {
  arguments {
    name       = "hub-vpc"
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
`
	g := testutil.GraphFromHCL(t, cfg)
	snap := state.NewSnapshot()
	ctx := context.Background()

	reg := provider.NewRegistry()
	reg.Register("vpc", &provider.Handler{
		NewArgs: func() any { return &provider.VPCArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return &provider.Result{
				ID:      "vpc-real",
				Outputs: map[string]cty.Value{"id": cty.StringVal("vpc-real")},
			}, nil
		},
	})
	reg.Register("subnet", &provider.Handler{
		NewArgs: func() any { return &provider.SubnetArgs{} },
		Create: func(ctx context.Context, args any) (*provider.Result, error) {
			return nil, errors.New("subnet quota exceeded")
		},
	})

	p, err := plan.NewPlanner(snap).Plan(ctx, g)
	require.NoError(t, err)

	err = executor.New(g, p, reg, snap).Run(ctx)
	require.Error(t, err)

	// The vpc that did get created is recorded, so the next run can pick
	// up where this one stopped instead of creating a duplicate.
	require.NotNil(t, snap.Record("vpc.main"))
	assert.Equal(t, "vpc-real", snap.Record("vpc.main").ID)
	assert.Nil(t, snap.Record("subnet.a"))
}
