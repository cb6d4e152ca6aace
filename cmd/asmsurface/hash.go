package main

import (
	"context"
	"os"
	"sort"

	"github.com/standardbeagle/asmsurface/internal/debug"
	"github.com/standardbeagle/asmsurface/internal/pereader"
	"github.com/standardbeagle/asmsurface/internal/resourcedigest"
	"github.com/standardbeagle/asmsurface/internal/surfacehash"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// expandWorklist turns the CLI's path-or-glob arguments into a sorted,
// deduplicated list of assembly file paths. An argument without glob
// metacharacters is taken as a literal path so that a missing file is
// reported by the hasher (with a real error) rather than silently
// matching nothing.
func expandWorklist(args, excludes []string) ([]string, error) {
	seen := map[string]bool{}
	var worklist []string

	add := func(path string) {
		for _, pattern := range excludes {
			if ok, _ := doublestar.PathMatch(pattern, path); ok {
				return
			}
		}
		if !seen[path] {
			seen[path] = true
			worklist = append(worklist, path)
		}
	}

	for _, arg := range args {
		if !hasGlobMeta(arg) {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(worklist)
	return worklist, nil
}

func hasGlobMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// hashAssembly reads one assembly from disk and runs the surface hash
// over it. The file is read once; the same bytes feed both the PE
// parser and the content fingerprint watch mode keys its
// skip-recompute cache on. Each call constructs a fresh Hasher; nothing
// is shared between assemblies.
func hashAssembly(path string, options surfacehash.Options) (hash, fingerprint uint64, err error) {
	debug.Tracef(debug.StageSurface, "hashing %s\n", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	reader, err := pereader.Open(data)
	if err != nil {
		return 0, 0, err
	}
	hash, err = surfacehash.New(reader, options).Hash()
	if err != nil {
		return 0, 0, err
	}
	return hash, resourcedigest.Fingerprint(data), nil
}

type hashResult struct {
	path        string
	hash        uint64
	fingerprint uint64
	err         error
}

// hashAll fans the worklist out across a bounded worker pool. Hashing
// one assembly is single-threaded by design; parallelism across
// assemblies belongs to this caller. Per-assembly failures are recorded
// in the result rather than cancelling the group, so one corrupt DLL
// does not hide the hashes of the rest of a build output.
func hashAll(ctx context.Context, paths []string, options surfacehash.Options, jobs int) []hashResult {
	results := make([]hashResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if jobs < 1 {
		jobs = 1
	}
	g.SetLimit(jobs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = hashResult{path: path, err: err}
				return nil
			}
			h, fp, err := hashAssembly(path, options)
			results[i] = hashResult{path: path, hash: h, fingerprint: fp, err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
