package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/asmsurface/internal/surfacehash"
)

// TestMain guards the whole package: the worker pool and the watch loop
// are the only goroutine-spawning code paths in this binary, and both
// must drain completely.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func TestExpandWorklist_LiteralPathsPassThrough(t *testing.T) {
	// A literal path is kept even if no file exists there, so the
	// hasher reports the open error instead of the path silently
	// vanishing from the worklist.
	worklist, err := expandWorklist([]string{"bin/App.dll"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bin/App.dll"}, worklist)
}

func TestExpandWorklist_GlobExpansionAndSort(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "Two.dll"), []byte{1})
	writeFile(t, filepath.Join(dir, "a", "One.dll"), []byte{1})
	writeFile(t, filepath.Join(dir, "a", "notes.txt"), []byte{1})

	worklist, err := expandWorklist([]string{filepath.Join(dir, "**", "*.dll")}, nil)
	require.NoError(t, err)
	require.Len(t, worklist, 2)
	assert.Equal(t, filepath.Join(dir, "a", "One.dll"), worklist[0])
	assert.Equal(t, filepath.Join(dir, "b", "Two.dll"), worklist[1])
}

func TestExpandWorklist_ExcludePatternsFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bin", "App.dll"), []byte{1})
	writeFile(t, filepath.Join(dir, "obj", "App.dll"), []byte{1})

	worklist, err := expandWorklist(
		[]string{filepath.Join(dir, "**", "*.dll")},
		[]string{"**/obj/**"},
	)
	require.NoError(t, err)
	require.Len(t, worklist, 1)
	assert.Equal(t, filepath.Join(dir, "bin", "App.dll"), worklist[0])
}

func TestExpandWorklist_DeduplicatesOverlappingArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "App.dll")
	writeFile(t, path, []byte{1})

	worklist, err := expandWorklist([]string{path, filepath.Join(dir, "*.dll")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, worklist)
}

func TestHasGlobMeta(t *testing.T) {
	assert.False(t, hasGlobMeta("bin/App.dll"))
	assert.True(t, hasGlobMeta("bin/*.dll"))
	assert.True(t, hasGlobMeta("bin/**/App.dll"))
	assert.True(t, hasGlobMeta("App-?.dll"))
}

func TestHashAll_RecordsPerFileFailuresWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.dll")
	writeFile(t, garbage, []byte("this is not a PE image"))
	missing := filepath.Join(dir, "missing.dll")

	results := hashAll(context.Background(), []string{garbage, missing}, surfacehash.Options{}, 2)
	require.Len(t, results, 2)

	assert.Equal(t, garbage, results[0].path)
	assert.Error(t, results[0].err)
	assert.Equal(t, missing, results[1].path)
	assert.Error(t, results[1].err)
}

func TestHashAll_ResultsKeepWorklistOrder(t *testing.T) {
	paths := []string{"z.dll", "a.dll", "m.dll"}
	results := hashAll(context.Background(), paths, surfacehash.Options{}, 3)
	require.Len(t, results, 3)
	for i, p := range paths {
		assert.Equal(t, p, results[i].path)
	}
}
