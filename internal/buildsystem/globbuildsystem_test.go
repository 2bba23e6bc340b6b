package buildsystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polylsp/polylsp/internal/document"
	"github.com/polylsp/polylsp/internal/workspace"
)

func TestFileHandlingUnhandledWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	gbs := NewGlobBuildSystem(dir)
	defer gbs.Close()

	require.Equal(t, workspace.Unhandled, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "main.dws"))))
}

func TestFileHandlingFallbackForRecognizedExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compile_commands.json"), []byte("[]"), 0o644))

	gbs := NewGlobBuildSystem(dir)
	defer gbs.Close()

	require.Equal(t, workspace.Fallback, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "main.dws"))))
	require.Equal(t, workspace.Fallback, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "lib.c"))))
	require.Equal(t, workspace.Unhandled, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "notes.txt"))))
}

func TestFileHandlingUnhandledOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Package.swift"), []byte(""), 0o644))
	gbs := NewGlobBuildSystem(dir)
	defer gbs.Close()

	require.Equal(t, workspace.Unhandled, gbs.FileHandling(document.URI("file:///elsewhere/main.dws")))
}

func TestWatchedFileChangedRecognizesManifestOutsideWatchRoot(t *testing.T) {
	dir := t.TempDir()
	gbs := NewGlobBuildSystem(dir)
	defer gbs.Close()
	require.Equal(t, workspace.Unhandled, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "main.dws"))))

	gbs.WatchedFileChanged(document.URI("file://"+filepath.Join(dir, "compile_flags.txt")), 2 /* changed */)

	require.Equal(t, workspace.Fallback, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "main.dws"))))
}

func TestWatchedFileChangedDeletionReEvaluatesManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(manifest, []byte("[]"), 0o644))
	gbs := NewGlobBuildSystem(dir)
	defer gbs.Close()
	require.Equal(t, workspace.Fallback, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "main.dws"))))

	require.NoError(t, os.Remove(manifest))
	gbs.WatchedFileChanged(document.URI("file://"+manifest), 3 /* deleted */)

	require.Equal(t, workspace.Unhandled, gbs.FileHandling(document.URI("file://"+filepath.Join(dir, "main.dws"))))
}
