package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netweave/netweave/internal/app"
	"github.com/netweave/netweave/internal/state"
)

const networkHCL = `
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

// newTestApp writes the config into a temp dir and wires an app against the
// in-memory provider and a file state backend there.
func newTestApp(t *testing.T, hclSrc string) (*app.App, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "network.hcl"), []byte(hclSrc), 0o644))

	statePath := filepath.Join(dir, "state.json")
	cfg, err := app.NewConfig(app.Config{
		ConfigPaths: []string{dir},
		Provider:    "memory",
		StatePath:   statePath,
		LogLevel:    "error",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	return app.New(cfg, &out, &out), &out, statePath
}

func TestValidateReportsResourceCount(t *testing.T) {
	a, out, _ := newTestApp(t, networkHCL)
	require.NoError(t, a.Validate(context.Background()))
	assert.Contains(t, out.String(), "2 resources")
}

func TestValidateRejectsDanglingReference(t *testing.T) {
	bad := networkHCL + `
resource "tgw_route_table" "hub" {
  arguments {
    transit_gateway_id = resource.transit_gateway.hub.id
  }
}
`
	a, _, _ := newTestApp(t, bad)
	err := a.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared resource")
}

func TestApplyThenDestroyRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, out, statePath := newTestApp(t, networkHCL)

	require.NoError(t, a.Apply(ctx))
	assert.Contains(t, out.String(), "2 to create")

	// State was persisted with both records.
	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vpc.main")
	assert.Contains(t, string(data), "subnet.a")

	// A second apply finds nothing to change.
	out.Reset()
	require.NoError(t, a.Apply(ctx))
	assert.Contains(t, out.String(), "2 unchanged")

	// The lock was released between runs, and destroy empties the state.
	require.NoError(t, a.Destroy(ctx))
	snap := loadSnapshot(t, statePath)
	assert.Empty(t, snap.Resources)
}

func TestPlanDoesNotTouchState(t *testing.T) {
	ctx := context.Background()
	a, out, statePath := newTestApp(t, networkHCL)

	require.NoError(t, a.Plan(ctx, false))
	assert.Contains(t, out.String(), "+ vpc.main")
	assert.Contains(t, out.String(), "+ subnet.a")

	_, err := os.Stat(statePath)
	assert.True(t, os.IsNotExist(err), "plan must not create a state file")
}

func loadSnapshot(t *testing.T, path string) *state.Snapshot {
	t.Helper()
	snap, err := state.NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	return snap
}
