// Package coretools implements the baseline filesystem tools: write_file,
// read_file, and diff. Each tool contributes a declaration to the catalog and
// a builder that binds one call's parameters into an invocation.
package coretools

import (
	"errors"
	"fmt"

	"toolflow/internal/telemetry"
	"toolflow/pkg/batch"
	"toolflow/pkg/fsys"
	"toolflow/pkg/reconcile"
	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

// Options carries the collaborators the core tools execute through.
type Options struct {
	Boundary   *workspace.Boundary
	FS         *fsys.Service
	Reconciler *reconcile.Reconciler
	Batch      *batch.Executor
	Telemetry  *telemetry.Collector
}

func (o Options) validate() error {
	if o.Boundary == nil {
		return errors.New("workspace boundary is required")
	}
	if o.FS == nil {
		return errors.New("filesystem service is required")
	}
	if o.Reconciler == nil {
		return errors.New("reconciler is required")
	}
	if o.Batch == nil {
		return errors.New("batch executor is required")
	}
	return nil
}

// RegisterCoreTools registers the filesystem tools with the catalog.
func RegisterCoreTools(registry *tool.Registry, opts Options) error {
	if registry == nil {
		return errors.New("tool registry is required")
	}
	if err := opts.validate(); err != nil {
		return err
	}

	declarations := []struct {
		decl    tool.Declaration
		builder tool.Builder
	}{
		{writeFileDeclaration(), func(params map[string]interface{}) (tool.Invocation, error) {
			return newWriteInvocation(opts, params)
		}},
		{readFileDeclaration(), func(params map[string]interface{}) (tool.Invocation, error) {
			return newReadInvocation(opts, params)
		}},
		{diffDeclaration(), func(params map[string]interface{}) (tool.Invocation, error) {
			return newDiffInvocation(opts, params)
		}},
	}

	for _, d := range declarations {
		if err := registry.Register(d.decl, d.builder); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", d.decl.Name, err)
		}
	}
	return nil
}

func (o Options) record(ev telemetry.Event) {
	if o.Telemetry != nil {
		o.Telemetry.Record(ev)
	}
}

func (o Options) recordError(toolName string) {
	if o.Telemetry != nil {
		o.Telemetry.RecordError(toolName)
	}
}
