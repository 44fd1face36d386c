// Package testutil provides shared helpers for tests that need declarations
// loaded from inline HCL source.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netweave/netweave/internal/config"
	"github.com/netweave/netweave/internal/dag"
	"github.com/netweave/netweave/internal/hcl"
	"github.com/netweave/netweave/internal/provider"
)

// WriteHCL writes src to a fresh temp directory and returns the file path.
func WriteHCL(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// ModelFromHCL loads a config model from inline HCL source.
func ModelFromHCL(t *testing.T, src string) *config.Model {
	t.Helper()
	model, err := hcl.NewLoader().Load(context.Background(), WriteHCL(t, src))
	require.NoError(t, err)
	return model
}

// GraphFromHCL loads and builds a validated graph from inline HCL source
// using the built-in schemas.
func GraphFromHCL(t *testing.T, src string) *dag.Graph {
	t.Helper()
	g, err := dag.Build(context.Background(), ModelFromHCL(t, src), provider.BuiltinSchemas())
	require.NoError(t, err)
	return g
}
