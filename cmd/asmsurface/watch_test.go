package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/asmsurface/internal/resourcedigest"
	"github.com/standardbeagle/asmsurface/internal/surfacehash"
)

func TestNewRehasher_SkipsByteIdenticalRewrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "App.dll")
	data := []byte("not a PE image, but fingerprintable")
	require.NoError(t, os.WriteFile(path, data, 0644))

	var out bytes.Buffer
	seen := map[string]uint64{path: resourcedigest.Fingerprint(data)}
	rehash := newRehasher(&out, surfacehash.Options{}, seen)

	// Unchanged bytes short-circuit before any PE parsing - even this
	// non-assembly produces no output and no error.
	rehash(path)
	assert.Empty(t, out.String())

	// Changed bytes defeat the skip; the invalid image now surfaces as
	// a parse error (on stderr), with no hash line and no cache update.
	require.NoError(t, os.WriteFile(path, []byte("different bytes"), 0644))
	rehash(path)
	assert.Empty(t, out.String())
	assert.Equal(t, resourcedigest.Fingerprint(data), seen[path],
		"a failed rehash must not overwrite the recorded fingerprint")
}

func TestWatchLoop_RehashesOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "App.dll")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rehashed := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, []string{path}, 20*time.Millisecond, func(p string) {
			rehashed <- p
		})
	}()

	// Rewrite until the event is observed - the first write can race
	// with watch registration inside the loop goroutine.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	var got string
waiting:
	for {
		select {
		case got = <-rehashed:
			break waiting
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte{2}, 0644))
		case <-deadline:
			t.Fatal("no rehash within 5s of rewriting the watched file")
		}
	}
	assert.Equal(t, path, got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchLoop did not return after context cancellation")
	}
}

func TestWatchLoop_IgnoresUnwatchedSiblings(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "App.dll")
	sibling := filepath.Join(dir, "Other.dll")
	require.NoError(t, os.WriteFile(watched, []byte{1}, 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rehashed := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, []string{watched}, 20*time.Millisecond, func(p string) {
			rehashed <- p
		})
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(sibling, []byte{2}, 0644))

	select {
	case p := <-rehashed:
		t.Fatalf("unwatched sibling triggered rehash of %s", p)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchLoop did not return after context cancellation")
	}
}

func TestWatchLoop_FailsOnMissingDirectory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := watchLoop(ctx, []string{filepath.Join(t.TempDir(), "gone", "App.dll")}, time.Millisecond, func(string) {})
	assert.Error(t, err)
}
