// Package metadatareader defines the contract this module expects from
// an ECMA-335 metadata reader: typed handles into CLI metadata tables,
// and accessors for the rows and heaps those handles address. Locating
// the PE container and its metadata heaps is out of scope for the
// surface hasher proper - internal/pereader is the concrete,
// file-backed implementation of this contract, and
// internal/metadatareader/syntheticreader is an in-memory implementation
// used by every other package's tests.
package metadatareader

// HandleKind tags a Handle with the metadata table it addresses. Values
// match the ECMA-335 §II.22 table numbers (truncated to a byte) so a
// handle's kind byte is recognizable next to the standard; nothing outside
// this process ever observes these values.
type HandleKind uint8

const (
	KindNone                   HandleKind = 0x00
	KindModuleDefinition       HandleKind = 0x00
	KindTypeReference          HandleKind = 0x01
	KindTypeDefinition         HandleKind = 0x02
	KindField                  HandleKind = 0x04
	KindMethodDefinition       HandleKind = 0x06
	KindParameter              HandleKind = 0x08
	KindInterfaceImplementation HandleKind = 0x09
	KindMemberReference        HandleKind = 0x0A
	KindConstant               HandleKind = 0x0B
	KindCustomAttribute        HandleKind = 0x0C
	KindEvent                  HandleKind = 0x14
	KindProperty               HandleKind = 0x17
	KindModuleReference        HandleKind = 0x1A
	KindTypeSpecification      HandleKind = 0x1B
	KindAssemblyDefinition     HandleKind = 0x20
	KindAssemblyReference      HandleKind = 0x23
	KindManifestResource       HandleKind = 0x28
	KindExportedType           HandleKind = 0x27
	KindGenericParameter       HandleKind = 0x2A
	KindGenericParameterConstraint HandleKind = 0x2C
)

// Handle is an opaque identifier tagged with a HandleKind: the kind
// occupies the high byte, a 1-based row index (RID) the low three
// bytes. Coded-index columns (TypeDefOrRef, ResolutionScope,
// HasCustomAttribute, Implementation, ...) are heterogeneous at
// runtime, so this module follows System.Reflection.Metadata's own
// design and uses one Handle type everywhere rather than a distinct Go
// type per table - the same packed-uint32 idiom this codebase already
// used for (FileID, LocalSymbolID) composite symbol identifiers, here
// repurposed to (HandleKind, RowIndex).
type Handle uint32

// NilHandle denotes "no row" - row index zero is never a valid RID in
// ECMA-335 metadata tables (they are 1-based).
const NilHandle Handle = 0

// NewHandle packs a kind and a 1-based row index into a Handle.
func NewHandle(kind HandleKind, rid uint32) Handle {
	return Handle(uint32(kind)<<24 | (rid & 0x00FFFFFF))
}

// Kind returns the table this handle addresses.
func (h Handle) Kind() HandleKind {
	return HandleKind(h >> 24)
}

// RID returns the 1-based row index within the handle's table.
func (h Handle) RID() uint32 {
	return uint32(h) & 0x00FFFFFF
}

// IsNil reports whether h addresses no row.
func (h Handle) IsNil() bool {
	return h == NilHandle
}

// StringHandle is an offset into the #Strings heap; zero denotes the
// empty/nil string.
type StringHandle uint32

// NilStringHandle is the empty-string sentinel.
const NilStringHandle StringHandle = 0

// BlobHandle is an offset into the #Blob heap; zero denotes an absent
// blob (distinct from a present, zero-length blob, which still has a
// valid nonzero offset pointing at a length prefix of 0).
type BlobHandle uint32

// NilBlobHandle is the absent-blob sentinel.
const NilBlobHandle BlobHandle = 0

// GuidHandle is a 1-based index into the #GUID heap.
type GuidHandle uint32
