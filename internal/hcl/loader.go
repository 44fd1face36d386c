// Package hcl loads declaration files and translates them into the
// format-agnostic config model.
package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/netweave/netweave/internal/config"
	"github.com/netweave/netweave/internal/ctxlog"
	"github.com/netweave/netweave/internal/schema"
)

// Loader parses .hcl declaration files into a config.Model.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every .hcl file under the given paths and merges their resource
// blocks into a single model. A path may be a file or a directory; directories
// are walked recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found under %v", paths)
	}
	logger.Debug("Discovered declaration files.", "count", len(files))

	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}

		var root schema.File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}

		for _, res := range root.Resources {
			translated, err := translateResource(res)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Resources = append(model.Resources, translated)
		}
	}

	logger.Debug("Declaration loading complete.", "resources", len(model.Resources))
	return model, nil
}

// findHCLFiles walks all given paths and returns the .hcl files found,
// deduplicated and in a stable order.
func findHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, ok := seen[p]; !ok {
			all = append(all, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}
