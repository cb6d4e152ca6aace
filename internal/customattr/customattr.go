// Package customattr hashes the raw value blob of a CustomAttribute row
// (ECMA-335 §II.22.10, §II.23.3). The blob is never structurally
// decoded against its constructor's parameter types - only its 2-byte
// prolog is validated, and everything after it is folded opaquely. This
// is sound because the constructor's identity and owner are hashed
// separately, and attribute blobs encode referenced types as strings
// rather than metadata handles, so the bytes alone fingerprint the
// payload. Fully parsing fixed/named arguments would require resolving
// the constructor's parameter types (itself a signature-decode round
// trip) just to throw the structure away again before hashing, and -
// per the known limitation below - it cannot be done completely anyway.
package customattr

import (
	"github.com/standardbeagle/asmsurface/internal/fnvhash"
)

// Prolog is the fixed 2-byte value every custom-attribute blob must
// begin with, ECMA-335 §II.23.3.
const Prolog = 0x0001

// BlobError reports a custom-attribute value blob that does not begin
// with the required prolog, or is shorter than it.
type BlobError struct {
	Len int
}

func (e *BlobError) Error() string {
	return "customattr: value blob missing 0x0001 prolog"
}

// HashValue validates blob's prolog and folds the remainder (fixed
// arguments, named-argument count, and named arguments, all left
// undecoded) into a single hash via fnvhash.FromBlob.
//
// Known limitation: a fixed or named argument of type System.Type
// (a C# `typeof(X)` literal) is encoded as a SerString naming X, which
// can reference an assembly-private type with no surface identity of
// its own. Hashing the raw bytes here still makes the result sensitive
// to that argument changing, just not in terms of X's own surface hash -
// acceptable for a cache key, since any byte-level change to the
// argument still invalidates the cache.
func HashValue(blob []byte) (uint64, error) {
	if len(blob) < 2 || blob[0] != byte(Prolog&0xFF) || blob[1] != byte(Prolog>>8) {
		return 0, &BlobError{Len: len(blob)}
	}
	return fnvhash.FromBlob(blob[2:]), nil
}

// HashEmpty is the value HashValue would produce for a prolog-only blob
// (a constructor with no fixed arguments and zero named arguments),
// exposed so callers that synthesize a default attribute blob in tests
// don't need to duplicate the prolog bytes.
var HashEmpty = fnvhash.FromBlob(nil)
