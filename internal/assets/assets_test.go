package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestCopyShared(t *testing.T) {
	build := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(build, "dist", "reveal.js"), "reveal")
	writeFile(t, filepath.Join(build, "dist", "theme", "black.css"), "theme")
	writeFile(t, filepath.Join(build, "plugin", "notes", "notes.js"), "notes")
	writeFile(t, filepath.Join(build, "favicon.ico"), "ico")
	writeFile(t, filepath.Join(build, "index.html"), "<html></html>")

	d := &Deduplicator{SharedDirs: []string{"dist", "plugin", "css", "_assets"}, Favicon: "favicon.ico"}
	copied, err := d.CopyShared(build, out)
	require.NoError(t, err)

	assert.Equal(t, []string{"dist", "plugin", "favicon.ico"}, copied)
	assert.FileExists(t, filepath.Join(out, "dist", "theme", "black.css"))
	assert.FileExists(t, filepath.Join(out, "plugin", "notes", "notes.js"))
	assert.FileExists(t, filepath.Join(out, "favicon.ico"))
	assert.NoFileExists(t, filepath.Join(out, "index.html"), "entry pages are not shared assets")
	assert.NoDirExists(t, filepath.Join(out, "css"))
}

func TestCopySharedReplacesStaleDirectory(t *testing.T) {
	build := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(build, "css", "theme.css"), "new")
	writeFile(t, filepath.Join(out, "css", "stale.css"), "old")

	d := &Deduplicator{SharedDirs: []string{"css"}}
	_, err := d.CopyShared(build, out)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(out, "css", "stale.css"))
	got, err := os.ReadFile(filepath.Join(out, "css", "theme.css"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestCopySharedNothingToCopy(t *testing.T) {
	d := &Deduplicator{SharedDirs: []string{"dist"}, Favicon: "favicon.ico"}
	copied, err := d.CopyShared(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, copied)
}

func TestCopyFilePreservesMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\n"), 0o750))

	dst := filepath.Join(dir, "nested", "run.sh")
	require.NoError(t, CopyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}
