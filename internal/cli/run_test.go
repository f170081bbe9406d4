package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolflow/internal/telemetry"
	"toolflow/pkg/approval"
	"toolflow/pkg/batch"
	"toolflow/pkg/coretools"
	"toolflow/pkg/factstore"
	"toolflow/pkg/fsys"
	"toolflow/pkg/reconcile"
	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

func newTestRuntime(t *testing.T, mode approval.Mode) (*runtime, string) {
	t.Helper()
	root := t.TempDir()

	boundary, err := workspace.NewBoundary(root)
	require.NoError(t, err)

	fs := fsys.NewService()
	registry := tool.NewRegistry()
	require.NoError(t, coretools.RegisterCoreTools(registry, coretools.Options{
		Boundary:   boundary,
		FS:         fs,
		Reconciler: reconcile.NewReconciler(fs, nil),
		Batch:      batch.NewExecutor(0),
		Telemetry:  telemetry.Default(),
	}))
	store := factstore.NewStore(filepath.Join(root, "memories.md"), fs)
	require.NoError(t, factstore.RegisterTool(registry, store, nil))

	return &runtime{
		registry: registry,
		gate:     approval.NewGate(boundary, nil),
		session:  approval.NewSession(mode),
	}, root
}

func TestExecuteOneReadWithoutPrompt(t *testing.T) {
	rt, root := newTestRuntime(t, approval.ModeDefault)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello\n"), 0o644))

	var out bytes.Buffer
	result, err := executeOne(context.Background(), rt, "read_file",
		map[string]interface{}{"path": "a.txt"}, &out, strings.NewReader(""))
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Contains(t, result.ModelContent, "hello")
	// Reads never prompt.
	assert.Empty(t, out.String())
}

func TestExecuteOneWritePromptsAndProceeds(t *testing.T) {
	rt, root := newTestRuntime(t, approval.ModeDefault)

	var out bytes.Buffer
	result, err := executeOne(context.Background(), rt, "write_file",
		map[string]interface{}{"path": "notes.txt", "content": "a\nb\n"},
		&out, strings.NewReader("y\n"))
	require.NoError(t, err)
	require.NoError(t, result.Err)

	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
	assert.Contains(t, out.String(), "Proceed?")
}

func TestExecuteOneWriteCancelled(t *testing.T) {
	rt, root := newTestRuntime(t, approval.ModeDefault)

	var out bytes.Buffer
	_, err := executeOne(context.Background(), rt, "write_file",
		map[string]interface{}{"path": "notes.txt", "content": "x"},
		&out, strings.NewReader("n\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")

	_, statErr := os.Stat(filepath.Join(root, "notes.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecuteOneProceedAlwaysSkipsNextPrompt(t *testing.T) {
	rt, root := newTestRuntime(t, approval.ModeDefault)

	var out bytes.Buffer
	_, err := executeOne(context.Background(), rt, "write_file",
		map[string]interface{}{"path": "notes.txt", "content": "v1"},
		&out, strings.NewReader("a\n"))
	require.NoError(t, err)

	// Same path again: the session allowlist auto-approves this time.
	out.Reset()
	result, err := executeOne(context.Background(), rt, "write_file",
		map[string]interface{}{"path": "notes.txt", "content": "v2"},
		&out, strings.NewReader(""))
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestExecuteOneDenyMode(t *testing.T) {
	rt, _ := newTestRuntime(t, approval.ModeDeny)

	var out bytes.Buffer
	_, err := executeOne(context.Background(), rt, "write_file",
		map[string]interface{}{"path": "notes.txt", "content": "x"},
		&out, strings.NewReader("y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestExecuteOneUnknownTool(t *testing.T) {
	rt, _ := newTestRuntime(t, approval.ModeDefault)

	_, err := executeOne(context.Background(), rt, "launch_rockets",
		map[string]interface{}{}, &bytes.Buffer{}, strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestExecuteOneRejectsBadParams(t *testing.T) {
	rt, _ := newTestRuntime(t, approval.ModeDefault)

	_, err := executeOne(context.Background(), rt, "write_file",
		map[string]interface{}{"path": 42}, &bytes.Buffer{}, strings.NewReader(""))
	require.Error(t, err)
}

func TestToolsCommandListsDeclarations(t *testing.T) {
	rt, _ := newTestRuntime(t, approval.ModeDefault)

	names := make([]string, 0)
	for _, decl := range rt.registry.Declarations() {
		names = append(names, decl.Name)
	}
	assert.Contains(t, names, "write_file")
	assert.Contains(t, names, "read_file")
	assert.Contains(t, names, "diff")
	assert.Contains(t, names, "fact_store")
}
