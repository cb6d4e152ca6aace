// Package resourcedigest computes the content digests this module
// derives from raw byte payloads. SurfaceHash folds a manifest
// resource's body into the value the assembly hash consumes, via an MD5
// content digest so the result tracks the resource's actual bytes
// (stable across re-emits) rather than its metadata-table position.
// Fingerprint is a cheap xxhash over a whole file that the CLI's watch
// mode keys its skip-recompute cache on - a build step that rewrites an
// assembly with byte-identical content should not trigger a re-hash.
package resourcedigest

import (
	"crypto/md5"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/asmsurface/internal/fnvhash"
)

// SurfaceHash streams r to completion and returns the value the
// assembly hash folds in for one manifest resource: the MD5 sum's 16
// bytes refolded through fnvhash.FromBlob.
func SurfaceHash(r io.Reader) (uint64, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return fnvhash.FromBlob(h.Sum(nil)), nil
}

// SurfaceHashBytes is SurfaceHash for an already-materialized body, the
// common case since metadatareader.Reader hands back a full []byte per
// resource rather than a stream.
func SurfaceHashBytes(b []byte) uint64 {
	sum := md5.Sum(b)
	return fnvhash.FromBlob(sum[:])
}

// Fingerprint is an xxhash-64 of b. It is never folded into a surface
// hash - an xxhash collision there could silently alias two different
// resources - it only answers "is this byte-for-byte the same content I
// digested last time" cheaply enough to run on every watch event.
func Fingerprint(b []byte) uint64 {
	return xxhash.Sum64(b)
}
