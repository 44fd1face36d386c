package hcl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netweave/netweave/internal/config"
	"github.com/netweave/netweave/internal/hcl"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestLoadMergesFilesAcrossDirectories(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"vpc.hcl": `
resource "vpc" "main" {
  arguments {
    name       = "v"
    cidr_block = "10.0.0.0/16"
  }
}
`,
		"nested/subnet.hcl": `
resource "subnet" "a" {
  arguments {
    vpc_id            = resource.vpc.main.id
    cidr_block        = "10.0.1.0/24"
    availability_zone = "us-west-1a"
  }
}
`,
		"notes.txt": "ignored, wrong extension",
	})

	model, err := hcl.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, model.Resources, 2)

	byAddr := make(map[string]*config.Resource)
	for _, res := range model.Resources {
		byAddr[res.Address().String()] = res
	}
	require.Contains(t, byAddr, "vpc.main")
	require.Contains(t, byAddr, "subnet.a")
	assert.Equal(t, config.StatePresent, byAddr["vpc.main"].Desired)
	assert.Contains(t, byAddr["subnet.a"].Attributes, "vpc_id")
}

func TestLoadPassingSameFileTwiceDeduplicates(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"vpc.hcl": `
resource "vpc" "main" {
  arguments {
    name       = "v"
    cidr_block = "10.0.0.0/16"
  }
}
`,
	})
	file := filepath.Join(dir, "vpc.hcl")

	model, err := hcl.NewLoader().Load(context.Background(), file, file, dir)
	require.NoError(t, err)
	assert.Len(t, model.Resources, 1)
}

func TestLoadParsesStateAndDependsOn(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.hcl": `
resource "vpc" "old" {
  state = "absent"
  arguments {
    name       = "old"
    cidr_block = "10.9.0.0/16"
  }
}

resource "transit_gateway" "hub" {
  depends_on = ["vpc.old"]
  arguments {
    description = "hub"
  }
}
`,
	})

	model, err := hcl.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, model.Resources, 2)

	assert.Equal(t, config.StateAbsent, model.Resources[0].Desired)
	assert.Equal(t, []string{"vpc.old"}, model.Resources[1].DependsOn)
}

func TestLoadRejectsInvalidState(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.hcl": `
resource "vpc" "main" {
  state = "paused"
  arguments {
    name       = "v"
    cidr_block = "10.0.0.0/16"
  }
}
`,
	})

	_, err := hcl.NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid state "paused"`)
}

func TestLoadRejectsBlocksWithinBlocks(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.hcl": `
resource "tgw_route_table" "hub" {
  arguments {
    transit_gateway_id = "tgw-123"

    route {
      dest_cidr     = "0.0.0.0/0"
      attachment_id = "att-1"

      nested {
        oops = true
      }
    }
  }
}
`,
	})

	_, err := hcl.NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
}

func TestLoadFailsWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := hcl.NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl files found")
}
