package hcl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/ctxlog"
)

// ErrInvalidMatrix marks structural problems in an otherwise parseable
// matrix file.
var ErrInvalidMatrix = errors.New("invalid matrix configuration")

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses and validates the matrix file at path. Run-scoped variables
// (version, tag) are exposed to every expression in the file.
func (l *Loader) Load(ctx context.Context, path string, vars config.Vars) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading matrix file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"version": cty.StringVal(vars.Version),
			"tag":     cty.StringVal(vars.Tag),
		},
	}

	var root rootSchema
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	model, err := translate(&root)
	if err != nil {
		return nil, err
	}

	logger.Debug("Matrix file loaded.", "targets", len(model.Targets))
	return model, nil
}

// translate converts the decoded schema into the config model, applying
// defaults and validating everything the schema tags cannot express.
func translate(root *rootSchema) (*config.Model, error) {
	model := &config.Model{
		Release: config.ReleaseConfig{Draft: true, AllowUpdates: true},
		Storage: config.StorageConfig{Backend: "fs"},
	}

	if r := root.Release; r != nil {
		model.Release.URL = r.URL
		if r.Draft != nil {
			model.Release.Draft = *r.Draft
		}
		if r.AllowUpdates != nil {
			model.Release.AllowUpdates = *r.AllowUpdates
		}
	}

	if s := root.Storage; s != nil {
		if s.Backend != "" {
			model.Storage.Backend = s.Backend
		}
		model.Storage.Bucket = s.Bucket
		model.Storage.Prefix = s.Prefix
	}
	switch model.Storage.Backend {
	case "fs":
	case "s3":
		if model.Storage.Bucket == "" {
			return nil, fmt.Errorf("%w: storage backend \"s3\" requires a bucket", ErrInvalidMatrix)
		}
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", ErrInvalidMatrix, model.Storage.Backend)
	}

	if len(root.Targets) == 0 {
		return nil, fmt.Errorf("%w: at least one target block is required", ErrInvalidMatrix)
	}

	seen := make(map[string]bool, len(root.Targets))
	for _, t := range root.Targets {
		target, err := translateTarget(t)
		if err != nil {
			return nil, err
		}
		if seen[target.ID()] {
			return nil, fmt.Errorf("%w: duplicate target %q", ErrInvalidMatrix, target.ID())
		}
		seen[target.ID()] = true
		model.Targets = append(model.Targets, target)
	}

	return model, nil
}

func translateTarget(t *targetSchema) (config.Target, error) {
	target := config.Target{
		Platform:  t.Platform,
		Arch:      t.Arch,
		Env:       t.Env,
		Artifacts: t.Artifacts,
	}

	if t.Platform == "" || t.Arch == "" {
		return target, fmt.Errorf("%w: target labels must be non-empty", ErrInvalidMatrix)
	}

	if t.Timeout != "" {
		d, err := time.ParseDuration(t.Timeout)
		if err != nil {
			return target, fmt.Errorf("%w: target %q has invalid timeout %q", ErrInvalidMatrix, target.ID(), t.Timeout)
		}
		target.Timeout = d
	}

	if len(t.Steps) == 0 {
		return target, fmt.Errorf("%w: target %q declares no steps", ErrInvalidMatrix, target.ID())
	}
	if len(t.Artifacts) == 0 {
		return target, fmt.Errorf("%w: target %q declares no artifact patterns", ErrInvalidMatrix, target.ID())
	}

	names := make(map[string]bool, len(t.Steps))
	for _, s := range t.Steps {
		step := config.Step{Name: s.Name, Run: s.Run}
		if s.Archive != nil {
			step.Archive = &config.ArchiveSpec{
				Sources: s.Archive.Sources,
				Output:  s.Archive.Output,
			}
		}

		if names[step.Name] {
			return target, fmt.Errorf("%w: target %q has duplicate step %q", ErrInvalidMatrix, target.ID(), step.Name)
		}
		names[step.Name] = true

		if step.Kind() == "" {
			return target, fmt.Errorf("%w: step %q in target %q must set exactly one of run/archive", ErrInvalidMatrix, step.Name, target.ID())
		}
		target.Steps = append(target.Steps, step)
	}

	return target, nil
}
