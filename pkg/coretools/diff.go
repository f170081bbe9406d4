package coretools

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"toolflow/internal/telemetry"
	"toolflow/pkg/reconcile"
	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

const diffToolName = "diff"

func diffDeclaration() tool.Declaration {
	return tool.Declaration{
		Name:        diffToolName,
		Description: "Compare two files or two directories. Directory comparison is recursive unless shallow is set.",
		Kind:        tool.KindRead,
		Parameters: []tool.Parameter{
			{Name: "path", Type: "string", Description: "Left side of the comparison", Required: true},
			{Name: "other", Type: "string", Description: "Right side of the comparison", Required: true},
			{Name: "shallow", Type: "boolean", Description: "Compare only immediate directory entries", Default: false},
		},
	}
}

type diffInvocation struct {
	opts        Options
	left, right string // raw
	leftAbs     string
	rightAbs    string
	shallow     bool
}

func newDiffInvocation(opts Options, params map[string]interface{}) (tool.Invocation, error) {
	left, _ := params["path"].(string)
	right, _ := params["other"].(string)
	if left == "" || right == "" {
		return nil, fmt.Errorf("both path and other are required")
	}

	leftAbs, err := opts.Boundary.Resolve(left)
	if err != nil {
		return nil, err
	}
	rightAbs, err := opts.Boundary.Resolve(right)
	if err != nil {
		return nil, err
	}

	shallow, _ := params["shallow"].(bool)

	return &diffInvocation{
		opts:     opts,
		left:     left,
		right:    right,
		leftAbs:  leftAbs,
		rightAbs: rightAbs,
		shallow:  shallow,
	}, nil
}

func (d *diffInvocation) Description() string {
	return fmt.Sprintf("Diff %s against %s", d.left, d.right)
}

func (d *diffInvocation) Locations() []string {
	return []string{d.leftAbs, d.rightAbs}
}

// Confirmation returns nil: comparison never mutates and never prompts.
func (d *diffInvocation) Confirmation(ctx context.Context) (*tool.ConfirmationDetails, error) {
	return nil, nil
}

func (d *diffInvocation) Execute(ctx context.Context) tool.Result {
	start := time.Now()

	for _, loc := range d.Locations() {
		if reason := d.opts.Boundary.ValidateAccess(loc, workspace.AccessRead); reason != "" {
			err := fmt.Errorf("%w: %s", tool.ErrAccessDenied, reason)
			d.opts.recordError(diffToolName)
			return tool.ErrorResult("Comparison failed", err)
		}
	}

	leftInfo, err := os.Stat(d.leftAbs)
	if err != nil {
		d.opts.recordError(diffToolName)
		return tool.ErrorResult("Comparison failed", statError(err, d.left))
	}
	rightInfo, err := os.Stat(d.rightAbs)
	if err != nil {
		d.opts.recordError(diffToolName)
		return tool.ErrorResult("Comparison failed", statError(err, d.right))
	}

	if leftInfo.IsDir() != rightInfo.IsDir() {
		err := fmt.Errorf("cannot compare a file to a directory: %s and %s", d.left, d.right)
		d.opts.recordError(diffToolName)
		return tool.ErrorResult("Comparison failed", err)
	}

	var result tool.Result
	if leftInfo.IsDir() {
		result = d.diffDirectories(ctx)
	} else {
		result = d.diffFiles()
	}

	if result.Err == nil {
		d.opts.record(telemetry.Event{
			Tool:      diffToolName,
			Operation: "diff",
			Path:      d.leftAbs,
			Duration:  time.Since(start),
		})
	} else {
		d.opts.recordError(diffToolName)
	}
	return result
}

func statError(err error, path string) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", tool.ErrNotFound, path)
	}
	return err
}

func (d *diffInvocation) diffFiles() tool.Result {
	leftContent, err := d.opts.FS.ReadText(d.leftAbs)
	if err != nil {
		return tool.ErrorResult("Comparison failed", err)
	}
	rightContent, err := d.opts.FS.ReadText(d.rightAbs)
	if err != nil {
		return tool.ErrorResult("Comparison failed", err)
	}

	if leftContent == rightContent {
		return tool.Result{
			ModelContent:   "Files are identical.",
			DisplaySummary: fmt.Sprintf("Compared %s and %s: identical", d.left, d.right),
		}
	}

	diff := difflibDiff(leftContent, rightContent, d.left, d.right)
	return tool.Result{
		ModelContent:   diff,
		DisplaySummary: fmt.Sprintf("Compared %s and %s", d.left, d.right),
	}
}

func difflibDiff(leftContent, rightContent, leftName, rightName string) string {
	diff, err := reconcile.UnifiedDiffNamed(leftContent, rightContent, leftName, rightName)
	if err != nil {
		log.Warn().Err(err).Msg("Unified diff rendering failed")
		return fmt.Sprintf("Files differ but the diff could not be rendered: %v", err)
	}
	return diff
}

func (d *diffInvocation) diffDirectories(ctx context.Context) tool.Result {
	leftEntries, err := d.listEntries(d.leftAbs)
	if err != nil {
		return tool.ErrorResult("Comparison failed", err)
	}
	rightEntries, err := d.listEntries(d.rightAbs)
	if err != nil {
		return tool.ErrorResult("Comparison failed", err)
	}

	var onlyLeft, onlyRight, modified []string
	var notes []string

	for entry := range leftEntries {
		if _, ok := rightEntries[entry]; !ok {
			onlyLeft = append(onlyLeft, entry)
		}
	}
	for entry := range rightEntries {
		if _, ok := leftEntries[entry]; !ok {
			onlyRight = append(onlyRight, entry)
			continue
		}
		if strings.HasSuffix(entry, "/") {
			continue // directories in both sides are compared by name only
		}
		same, err := bytesEqual(filepath.Join(d.leftAbs, entry), filepath.Join(d.rightAbs, entry))
		if err != nil {
			notes = append(notes, fmt.Sprintf("%s: %v", entry, err))
			continue
		}
		if !same {
			modified = append(modified, entry)
		}
	}

	sort.Strings(onlyLeft)
	sort.Strings(onlyRight)
	sort.Strings(modified)

	if len(onlyLeft) == 0 && len(onlyRight) == 0 && len(modified) == 0 && len(notes) == 0 {
		return tool.Result{
			ModelContent:   "Directories are identical.",
			DisplaySummary: fmt.Sprintf("Compared %s and %s: identical", d.left, d.right),
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Only in %s (%d):\n", d.left, len(onlyLeft))
	writeList(&sb, onlyLeft)
	fmt.Fprintf(&sb, "Only in %s (%d):\n", d.right, len(onlyRight))
	writeList(&sb, onlyRight)
	fmt.Fprintf(&sb, "Modified (%d):\n", len(modified))
	writeList(&sb, modified)
	if len(notes) > 0 {
		sb.WriteString("Unreadable entries:\n")
		writeList(&sb, notes)
	}

	return tool.Result{
		ModelContent:   strings.TrimRight(sb.String(), "\n"),
		DisplaySummary: fmt.Sprintf("Compared %s and %s", d.left, d.right),
	}
}

func writeList(sb *strings.Builder, entries []string) {
	if len(entries) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(sb, "  %s\n", e)
	}
}

// listEntries returns the set of relative entry names under root. Directories
// carry a trailing separator so name collisions between a file and a
// directory never alias. Shallow mode lists immediate children only.
func (d *diffInvocation) listEntries(root string) (map[string]struct{}, error) {
	entries := make(map[string]struct{})

	if d.shallow {
		children, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			name := child.Name()
			if child.IsDir() {
				name += "/"
			}
			entries[name] = struct{}{}
		}
		return entries, nil
	}

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if entry.IsDir() {
			entries[rel+"/"] = struct{}{}
			return nil
		}
		entries[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func bytesEqual(left, right string) (bool, error) {
	leftData, err := os.ReadFile(left)
	if err != nil {
		return false, err
	}
	rightData, err := os.ReadFile(right)
	if err != nil {
		return false, err
	}
	return bytes.Equal(leftData, rightData), nil
}
