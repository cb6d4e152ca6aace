package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/asmsurface/internal/debug"
	"github.com/standardbeagle/asmsurface/internal/pereader"
	"github.com/standardbeagle/asmsurface/internal/resourcedigest"
	"github.com/standardbeagle/asmsurface/internal/surfacehash"

	"github.com/fsnotify/fsnotify"
)

// newRehasher returns the watch-mode callback: it re-reads path and
// prints a fresh hash line, unless the file's content fingerprint
// matches the one recorded in seen - a build step frequently rewrites
// an output byte-for-byte identical (same inputs, deterministic
// emit), and skipping on the fingerprint avoids re-parsing the whole
// image just to reprint an unchanged hash. The check runs on the raw
// bytes, before any PE parsing. seen is keyed by the path as given on
// the command line and pre-seeded from the initial hash pass.
func newRehasher(out io.Writer, options surfacehash.Options, seen map[string]uint64) func(path string) {
	return func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "asmsurface: %s: %v\n", path, err)
			return
		}
		fp := resourcedigest.Fingerprint(data)
		if prev, ok := seen[path]; ok && prev == fp {
			debug.Tracef(debug.StageWatch, "%s: content unchanged, skipping rehash\n", path)
			return
		}
		reader, err := pereader.Open(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "asmsurface: %s: %v\n", path, err)
			return
		}
		h, err := surfacehash.New(reader, options).Hash()
		if err != nil {
			fmt.Fprintf(os.Stderr, "asmsurface: %s: %v\n", path, err)
			return
		}
		seen[path] = fp
		fmt.Fprintf(out, "%016x  %s\n", h, path)
	}
}

// watchLoop blocks, re-invoking rehash for any watched assembly whose
// file is rewritten, until ctx is cancelled. Watches are placed on the
// parent directories rather than the files themselves: compilers and
// linkers replace output atomically (write temp, rename over), which
// drops a watch pinned to the old inode but is visible as Create/Rename
// events on the directory.
//
// Events are debounced per path - a linker emitting a large DLL
// produces a burst of Write events, and hashing a half-written image
// would just fail with a malformed-image error anyway.
func watchLoop(ctx context.Context, paths []string, debounce time.Duration, rehash func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := map[string]string{} // absolute path -> path as given
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = p
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return err
		}
	}

	if debounce <= 0 {
		debounce = time.Millisecond
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := targets[abs]; !watched {
				continue
			}
			debug.Tracef(debug.StageWatch, "event %s on %s\n", event.Op, abs)
			pending[abs] = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.Tracef(debug.StageWatch, "watcher error: %v\n", err)

		case <-timer.C:
			for abs := range pending {
				delete(pending, abs)
				rehash(targets[abs])
			}
		}
	}
}
