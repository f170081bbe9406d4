package coretools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestDiff_IdenticalFiles(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{
		"a.txt": "same\ncontent\n",
		"b.txt": "same\ncontent\n",
	})

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{"path": "a.txt", "other": "b.txt"})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, "Files are identical.", result.ModelContent)
}

func TestDiff_DifferentFiles(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{
		"a.txt": "one\ntwo\n",
		"b.txt": "one\nthree\n",
	})

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{"path": "a.txt", "other": "b.txt"})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	require.NoError(t, result.Err)
	assert.Contains(t, result.ModelContent, "-two")
	assert.Contains(t, result.ModelContent, "+three")
	assert.Contains(t, result.ModelContent, "a.txt")
	assert.Contains(t, result.ModelContent, "b.txt")
}

func TestDiff_FileVersusDirectory(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{"a.txt": "x\n"})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0755))

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{"path": "a.txt", "other": "dir"})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	require.Error(t, result.Err)
	assert.Contains(t, result.ModelContent, "cannot compare a file to a directory")
}

func TestDiff_Directories(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{
		"left/a.txt":  "only left\n",
		"left/c.txt":  "shared\n",
		"right/b.txt": "only right\n",
		"right/c.txt": "shared\n",
	})

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{"path": "left", "other": "right"})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	require.NoError(t, result.Err)
	assert.Contains(t, result.ModelContent, "Only in left (1):\n  a.txt")
	assert.Contains(t, result.ModelContent, "Only in right (1):\n  b.txt")
	assert.Contains(t, result.ModelContent, "Modified (0)")
}

func TestDiff_Directories_Modified(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{
		"left/sub/deep.txt":  "v1\n",
		"right/sub/deep.txt": "v2\n",
	})

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{"path": "left", "other": "right"})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	require.NoError(t, result.Err)
	assert.Contains(t, result.ModelContent, "Modified (1)")
	assert.Contains(t, result.ModelContent, filepath.Join("sub", "deep.txt"))
}

func TestDiff_Directories_Identical(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{
		"left/x.txt":  "same\n",
		"right/x.txt": "same\n",
	})

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{"path": "left", "other": "right"})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, "Directories are identical.", result.ModelContent)
}

func TestDiff_Directories_Shallow(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{
		"left/sub/deep.txt":  "v1\n",
		"right/sub/deep.txt": "v2\n",
	})

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{
		"path":    "left",
		"other":   "right",
		"shallow": true,
	})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	// Shallow comparison sees only the sub/ directory entry on both sides.
	require.NoError(t, result.Err)
	assert.Equal(t, "Directories are identical.", result.ModelContent)
}

func TestDiff_MissingSide(t *testing.T) {
	root := t.TempDir()
	writeFileTree(t, root, map[string]string{"a.txt": "x\n"})

	registry := testRegistry(t, root)
	inv, err := registry.Build("diff", map[string]interface{}{"path": "a.txt", "other": "gone.txt"})
	require.NoError(t, err)

	result := inv.Execute(context.Background())

	require.Error(t, result.Err)
	assert.Contains(t, result.ModelContent, "not found")
}
