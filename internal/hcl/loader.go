package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/sentgrid/internal/config"
	"github.com/vk/sentgrid/internal/ctxlog"
	"github.com/vk/sentgrid/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load finds every .hcl file under paths, in sorted order per path, and
// merges them into a single model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, p := range paths {
		found, err := fsutil.FindFilesByExtension(p, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to find grammar files in %s: %w", p, err)
		}
		logger.Debug("Discovered grammar files.", "path", p, "count", len(found))
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl grammar files found in %v", paths)
	}

	parser := hclparse.NewParser()
	model := config.NewModel()
	seenGeneration := ""
	for _, path := range files {
		hclFile, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}

		var parsed file
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
		}

		if len(parsed.Generation) > 0 {
			if seenGeneration != "" || len(parsed.Generation) > 1 {
				return nil, fmt.Errorf("%s: duplicate generation block (first declared in %s)", path, firstNonEmpty(seenGeneration, path))
			}
			seenGeneration = path
		}

		if err := translateFile(ctx, &parsed, model); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("Grammar file loaded.", "path", path, "rules", len(parsed.Rules))
	}

	logger.Debug("Grammar model assembled.",
		"files", len(files),
		"rules", len(model.Rules),
		"symbols", len(model.Symbols),
		"contexts", len(model.Contexts),
	)
	return model, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
