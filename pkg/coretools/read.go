package coretools

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"toolflow/internal/telemetry"
	"toolflow/pkg/batch"
	"toolflow/pkg/fsys"
	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

const readToolName = "read_file"

func readFileDeclaration() tool.Declaration {
	return tool.Declaration{
		Name:        readToolName,
		Description: "Read a file from the workspace, optionally slicing a 1-based inclusive line range, or read several files at once via the files array.",
		Kind:        tool.KindRead,
		Parameters: []tool.Parameter{
			{Name: "path", Type: "string", Description: "Target file path (single mode)"},
			{Name: "files", Type: "array", Description: "Batch mode: array of {path} objects"},
			{Name: "start_line", Type: "integer", Description: "First line to read (1-based, inclusive)"},
			{Name: "end_line", Type: "integer", Description: "Last line to read (1-based, inclusive)"},
		},
	}
}

type readInvocation struct {
	opts      Options
	targets   []tool.Target
	resolved  map[string]string
	startLine int // 0 means unset
	endLine   int
}

func newReadInvocation(opts Options, params map[string]interface{}) (tool.Invocation, error) {
	targets, err := tool.NormalizeTargets(params)
	if err != nil {
		return nil, err
	}

	inv := &readInvocation{
		opts:     opts,
		targets:  targets,
		resolved: make(map[string]string, len(targets)),
	}

	if raw, ok := params["start_line"]; ok {
		inv.startLine, err = intParam(raw, "start_line")
		if err != nil {
			return nil, err
		}
	}
	if raw, ok := params["end_line"]; ok {
		inv.endLine, err = intParam(raw, "end_line")
		if err != nil {
			return nil, err
		}
	}
	if inv.startLine != 0 && inv.startLine < 1 {
		return nil, fmt.Errorf("start_line must be >= 1")
	}
	if inv.endLine != 0 && inv.endLine < 1 {
		return nil, fmt.Errorf("end_line must be >= 1")
	}
	if inv.startLine != 0 && inv.endLine != 0 && inv.startLine > inv.endLine {
		return nil, fmt.Errorf("start_line %d is greater than end_line %d", inv.startLine, inv.endLine)
	}

	for _, t := range targets {
		abs, err := opts.Boundary.Resolve(t.Path)
		if err != nil {
			return nil, err
		}
		inv.resolved[t.Path] = abs
	}

	return inv, nil
}

func intParam(raw interface{}, name string) (int, error) {
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", name)
	}
}

func (r *readInvocation) Description() string {
	if len(r.targets) == 1 {
		return fmt.Sprintf("Read %s", r.targets[0].Path)
	}
	return fmt.Sprintf("Read %d files", len(r.targets))
}

func (r *readInvocation) Locations() []string {
	locs := make([]string, len(r.targets))
	for i, t := range r.targets {
		locs[i] = r.resolved[t.Path]
	}
	return locs
}

// Confirmation returns nil: reading never mutates and never prompts.
func (r *readInvocation) Confirmation(ctx context.Context) (*tool.ConfirmationDetails, error) {
	return nil, nil
}

func (r *readInvocation) Execute(ctx context.Context) tool.Result {
	results := r.opts.Batch.Run(ctx, r.targets, r.readOne)
	for _, res := range results {
		if res.Err != nil {
			r.opts.recordError(readToolName)
		}
	}
	return batch.Aggregate(results, "Read")
}

func (r *readInvocation) readOne(ctx context.Context, target tool.Target) (string, error) {
	start := time.Now()
	abs := r.resolved[target.Path]

	if reason := r.opts.Boundary.ValidateAccess(abs, workspace.AccessRead); reason != "" {
		return "", fmt.Errorf("%w: %s", tool.ErrAccessDenied, reason)
	}

	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %v", tool.ErrCancelled, ctx.Err())
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", tool.ErrNotFound, target.Path)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", target.Path)
	}

	content, err := r.opts.FS.ReadText(abs)
	if err != nil {
		return "", err
	}

	totalLines := fsys.CountLines(content)

	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s (%d lines, %d bytes)\n", target.Path, totalLines, len(content))

	if r.startLine > totalLines {
		fmt.Fprintf(&sb, "[start_line %d is beyond end of file (%d lines)]", r.startLine, totalLines)
	} else {
		sliced, truncated, lastLine := sliceLines(content, r.startLine, r.endLine)
		sb.WriteString(sliced)
		if truncated {
			fmt.Fprintf(&sb, "\n[truncated: showing lines %d-%d of %d; continue with start_line=%d]",
				max(r.startLine, 1), lastLine, totalLines, lastLine+1)
		}
	}

	r.opts.record(telemetry.Event{
		Tool:      readToolName,
		Operation: "read",
		Path:      abs,
		Lines:     totalLines,
		Duration:  time.Since(start),
	})

	return sb.String(), nil
}

// sliceLines returns the 1-based inclusive [start, end] window of content.
// truncated reports whether the window is a strict subset of the file;
// lastLine is the last line number included. The caller guarantees start
// does not exceed the file's line count.
func sliceLines(content string, start, end int) (string, bool, int) {
	if content == "" || (start == 0 && end == 0) {
		return content, false, fsys.CountLines(content)
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	total := len(lines)

	if start == 0 {
		start = 1
	}
	if end == 0 || end > total {
		end = total
	}

	window := strings.Join(lines[start-1:end], "\n")
	truncated := start > 1 || end < total
	return window, truncated, end
}
