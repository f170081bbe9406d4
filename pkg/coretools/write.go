package coretools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"toolflow/internal/telemetry"
	"toolflow/pkg/batch"
	"toolflow/pkg/fsys"
	"toolflow/pkg/reconcile"
	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

const writeToolName = "write_file"

const snippetLines = 5

func writeFileDeclaration() tool.Declaration {
	return tool.Declaration{
		Name:                 writeToolName,
		Description:          "Write content to a file in the workspace, or to several files at once via the files array.",
		Kind:                 tool.KindEdit,
		RequiresConfirmation: true,
		Parameters: []tool.Parameter{
			{Name: "path", Type: "string", Description: "Target file path (single mode)"},
			{Name: "content", Type: "string", Description: "Full replacement content (single mode)"},
			{Name: "files", Type: "array", Description: "Batch mode: array of {path, content} objects"},
		},
	}
}

type writeInvocation struct {
	opts     Options
	targets  []tool.Target
	resolved map[string]string // raw path -> absolute path
}

func newWriteInvocation(opts Options, params map[string]interface{}) (tool.Invocation, error) {
	targets, err := tool.NormalizeTargets(params)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(targets))
	for _, t := range targets {
		if !t.HasContent {
			return nil, fmt.Errorf("content is required for %s", t.Path)
		}
		abs, err := opts.Boundary.Resolve(t.Path)
		if err != nil {
			return nil, err
		}
		resolved[t.Path] = abs
	}

	return &writeInvocation{opts: opts, targets: targets, resolved: resolved}, nil
}

func (w *writeInvocation) Description() string {
	if len(w.targets) == 1 {
		return fmt.Sprintf("Write %s", w.targets[0].Path)
	}
	paths := make([]string, len(w.targets))
	for i, t := range w.targets {
		paths[i] = t.Path
	}
	return fmt.Sprintf("Write %d files: %s", len(w.targets), strings.Join(paths, ", "))
}

func (w *writeInvocation) Locations() []string {
	locs := make([]string, len(w.targets))
	for i, t := range w.targets {
		locs[i] = w.resolved[t.Path]
	}
	return locs
}

// Confirmation builds an edit prompt with a reconciled diff for a single
// target. Batch calls degrade to one info prompt naming the target count,
// avoiding per-file diff rendering cost.
func (w *writeInvocation) Confirmation(ctx context.Context) (*tool.ConfirmationDetails, error) {
	if len(w.targets) > 1 {
		return &tool.ConfirmationDetails{
			Type:   tool.ConfirmInfo,
			Title:  "Confirm bulk write",
			Prompt: fmt.Sprintf("Write %d files", len(w.targets)),
		}, nil
	}

	target := w.targets[0]
	abs := w.resolved[target.Path]

	rc := w.opts.Reconciler.Reconcile(ctx, abs, target.Content)
	if rc.Err != nil {
		return nil, rc.Err
	}

	fileName := filepath.Base(abs)
	diff, err := reconcile.UnifiedDiff(rc.OriginalContent, rc.CorrectedContent, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to render diff preview: %w", err)
	}

	return &tool.ConfirmationDetails{
		Type:            tool.ConfirmEdit,
		Title:           fmt.Sprintf("Confirm write: %s", target.Path),
		FileName:        fileName,
		FilePath:        abs,
		FileDiff:        diff,
		OriginalContent: rc.OriginalContent,
		ProposedContent: rc.CorrectedContent,
	}, nil
}

// ReplaceProposedContent swaps in content accepted through a side-channel
// edit for the matching target before execution.
func (w *writeInvocation) ReplaceProposedContent(path, content string) {
	for i, t := range w.targets {
		if w.resolved[t.Path] == path || t.Path == path {
			w.targets[i].Content = content
			return
		}
	}
}

func (w *writeInvocation) Execute(ctx context.Context) tool.Result {
	results := w.opts.Batch.Run(ctx, w.targets, w.writeOne)
	for _, r := range results {
		if r.Err != nil {
			w.opts.recordError(writeToolName)
		}
	}
	return batch.Aggregate(results, "Wrote")
}

func (w *writeInvocation) writeOne(ctx context.Context, target tool.Target) (string, error) {
	start := time.Now()
	abs := w.resolved[target.Path]

	if reason := w.opts.Boundary.ValidateAccess(abs, workspace.AccessWrite); reason != "" {
		return "", fmt.Errorf("%w: %s", tool.ErrAccessDenied, reason)
	}

	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %v", tool.ErrCancelled, ctx.Err())
	}

	rc := w.opts.Reconciler.Reconcile(ctx, abs, target.Content)
	if rc.Err != nil {
		return "", rc.Err
	}

	// Preserve the dominant line ending of a pre-existing file so rewrites
	// do not churn every line of the diff.
	ending := fsys.DefaultLineEnding
	if rc.FileExists && rc.OriginalContent != "" {
		ending = fsys.DetectLineEnding(rc.OriginalContent)
	}
	normalized := fsys.NormalizeLineEndings(rc.CorrectedContent, ending)

	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %v", tool.ErrCancelled, ctx.Err())
	}

	if err := w.opts.FS.WriteText(abs, normalized); err != nil {
		return "", err
	}

	operation := "update"
	if !rc.FileExists {
		operation = "create"
	}
	w.opts.record(telemetry.Event{
		Tool:      writeToolName,
		Operation: operation,
		Path:      abs,
		Lines:     fsys.CountLines(normalized),
		Extension: strings.TrimPrefix(filepath.Ext(abs), "."),
		Duration:  time.Since(start),
	})

	fileName := filepath.Base(abs)
	if !rc.FileExists {
		return fmt.Sprintf("Created %s (%d lines).", fileName, fsys.CountLines(normalized)), nil
	}

	snippet, err := reconcile.DiffSnippet(rc.OriginalContent, normalized, fileName, snippetLines)
	if err != nil || snippet == "" {
		return fmt.Sprintf("Updated %s.", fileName), nil
	}
	return fmt.Sprintf("Updated %s:\n%s", fileName, snippet), nil
}
