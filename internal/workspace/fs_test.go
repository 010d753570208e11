package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestFSProvider_LoadBaseline(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "tasks", "css-cleanup", "baseline")
	writeFile(t, filepath.Join(base, "index.html"), []byte("<html>old</html>"))
	writeFile(t, filepath.Join(base, "assets", "style.css"), []byte(".x {}"))
	writeFile(t, filepath.Join(base, "logo.png"), []byte{0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe})

	p := NewFSProvider(filepath.Join(root, "tasks"), filepath.Join(root, "solutions"))
	files, err := p.LoadBaseline(context.Background(), "css-cleanup")
	require.NoError(t, err)

	assert.Equal(t, "<html>old</html>", files["index.html"])
	assert.Equal(t, ".x {}", files["assets/style.css"], "keys are slash-separated relative paths")
	assert.NotContains(t, files, "logo.png", "binary files are skipped")
	assert.Len(t, files, 2)
}

func TestFSProvider_LoadSolution(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "solutions", "eval-1", "alpha", "index.html"), []byte("<html>new</html>"))

	p := NewFSProvider(filepath.Join(root, "tasks"), filepath.Join(root, "solutions"))
	files, err := p.LoadSolution(context.Background(), "eval-1", "alpha")
	require.NoError(t, err)

	assert.Equal(t, "<html>new</html>", files["index.html"])
}

func TestFSProvider_MissingRootIsEmpty(t *testing.T) {
	p := NewFSProvider(filepath.Join(t.TempDir(), "tasks"), filepath.Join(t.TempDir(), "solutions"))

	files, err := p.LoadBaseline(context.Background(), "never-created")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = p.LoadSolution(context.Background(), "eval-1", "ghost")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFSProvider_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tasks", "broken", "baseline"), []byte("not a directory"))

	p := NewFSProvider(filepath.Join(root, "tasks"), filepath.Join(root, "solutions"))
	_, err := p.LoadBaseline(context.Background(), "broken")
	assert.Error(t, err)
}
