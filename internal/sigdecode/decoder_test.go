package sigdecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/asmsurface/internal/fnvhash"
	"github.com/standardbeagle/asmsurface/internal/metadatareader"
)

// stubResolver hands back a fixed hash per handle, so tests can assert
// on the exact combine shape decodeType produces without pulling in the
// full surfacehash resolver.
type stubResolver struct {
	defs map[metadatareader.Handle]uint64
	refs map[metadatareader.Handle]uint64
}

func newStubResolver() *stubResolver {
	return &stubResolver{defs: map[metadatareader.Handle]uint64{}, refs: map[metadatareader.Handle]uint64{}}
}

func (s *stubResolver) HashTypeDefinition(h metadatareader.Handle) uint64 { return s.defs[h] }
func (s *stubResolver) HashTypeReference(h metadatareader.Handle) uint64  { return s.refs[h] }

func compressedUint(v uint32) []byte {
	switch {
	case v <= 0x7F:
		return []byte{byte(v)}
	case v <= 0x3FFF:
		return []byte{byte(v>>8) | 0x80, byte(v)}
	default:
		return []byte{byte(v>>24) | 0xC0, byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

func TestFieldSignature_Primitive(t *testing.T) {
	d := New(newStubResolver())
	blob := append([]byte{byte(metadatareader.SigField)}, byte(metadatareader.ElementI4))
	h, err := d.FieldSignature(blob)
	require.NoError(t, err)
	assert.Equal(t, uint64(metadatareader.ElementI4), h)
}

func TestFieldSignature_MissingTag(t *testing.T) {
	d := New(newStubResolver())
	_, err := d.FieldSignature([]byte{byte(metadatareader.ElementI4)})
	require.Error(t, err)
	var malformedErr *MalformedError
	assert.ErrorAs(t, err, &malformedErr)
}

func TestDecodeType_SZArrayWrapsElement(t *testing.T) {
	d := New(newStubResolver())
	blob := append([]byte{byte(metadatareader.SigField), byte(metadatareader.ElementSZArray)}, byte(metadatareader.ElementString))
	h, err := d.FieldSignature(blob)
	require.NoError(t, err)
	assert.Equal(t, fnvhash.Combine2(uint64(metadatareader.ElementString), 1), h)
}

func TestDecodeType_PtrByRefPinnedDistinctFromEachOther(t *testing.T) {
	d := New(newStubResolver())
	mk := func(tag metadatareader.ElementType) uint64 {
		blob := append([]byte{byte(metadatareader.SigField), byte(tag)}, byte(metadatareader.ElementI4))
		h, err := d.FieldSignature(blob)
		require.NoError(t, err)
		return h
	}
	ptr := mk(metadatareader.ElementPtr)
	byref := mk(metadatareader.ElementByRef)
	pinned := mk(metadatareader.ElementPinned)
	assert.NotEqual(t, ptr, byref)
	assert.NotEqual(t, ptr, pinned)
	assert.NotEqual(t, byref, pinned)
}

func TestDecodeType_ClassDelegatesToResolver(t *testing.T) {
	resolver := newStubResolver()
	defHandle := metadatareader.NewHandle(metadatareader.KindTypeDefinition, 1)
	resolver.defs[defHandle] = 0xABCD

	d := New(resolver)
	blob := []byte{byte(metadatareader.SigField), byte(metadatareader.ElementClass)}
	blob = append(blob, compressedUint(uint32(defHandle.RID())<<2|0)...)
	h, err := d.FieldSignature(blob)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xABCD), h)
}

func TestDecodeType_TypeSpecTargetRejected(t *testing.T) {
	d := New(newStubResolver())
	blob := []byte{byte(metadatareader.SigField), byte(metadatareader.ElementValueType)}
	blob = append(blob, compressedUint(1<<2|2)...) // tag 2 == TypeSpec
	_, err := d.FieldSignature(blob)
	require.Error(t, err)
}

func TestDecodeType_VarAndMVarIndicesDistinguished(t *testing.T) {
	d := New(newStubResolver())
	varBlob := []byte{byte(metadatareader.SigField), byte(metadatareader.ElementVar), 0}
	mvarBlob := []byte{byte(metadatareader.SigField), byte(metadatareader.ElementMVar), 0}
	vh, err := d.FieldSignature(varBlob)
	require.NoError(t, err)
	mh, err := d.FieldSignature(mvarBlob)
	require.NoError(t, err)
	assert.NotEqual(t, vh, mh)
}

func TestDecodeType_GenericInstFoldsArgsInOrder(t *testing.T) {
	resolver := newStubResolver()
	genericDef := metadatareader.NewHandle(metadatareader.KindTypeDefinition, 5)
	resolver.defs[genericDef] = 777

	d := New(resolver)
	build := func(first, second metadatareader.ElementType) []byte {
		blob := []byte{byte(metadatareader.SigField), byte(metadatareader.ElementGenericInst), byte(metadatareader.ElementClass)}
		blob = append(blob, compressedUint(uint32(genericDef.RID())<<2)...)
		blob = append(blob, 2, byte(first), byte(second))
		return blob
	}
	h1, err := d.FieldSignature(build(metadatareader.ElementI4, metadatareader.ElementString))
	require.NoError(t, err)
	h2, err := d.FieldSignature(build(metadatareader.ElementString, metadatareader.ElementI4))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "generic argument order must be order-sensitive, unlike member ordering")
}

func TestDecodeType_CustomModFoldsRequiredFlag(t *testing.T) {
	resolver := newStubResolver()
	modHandle := metadatareader.NewHandle(metadatareader.KindTypeReference, 1)
	resolver.refs[modHandle] = 99

	d := New(resolver)
	build := func(tag metadatareader.ElementType) []byte {
		blob := []byte{byte(metadatareader.SigField), byte(tag)}
		blob = append(blob, compressedUint(uint32(modHandle.RID())<<2|1)...)
		blob = append(blob, byte(metadatareader.ElementI4))
		return blob
	}
	reqd, err := d.FieldSignature(build(metadatareader.ElementCModReqd))
	require.NoError(t, err)
	opt, err := d.FieldSignature(build(metadatareader.ElementCModOpt))
	require.NoError(t, err)
	assert.NotEqual(t, reqd, opt)
}

func TestDecodeType_ArrayFoldsRankBoundsAndSizes(t *testing.T) {
	d := New(newStubResolver())
	blob := []byte{byte(metadatareader.SigField), byte(metadatareader.ElementArray), byte(metadatareader.ElementI4)}
	blob = append(blob, 2)    // rank
	blob = append(blob, 1, 5) // 1 size entry, value 5
	blob = append(blob, 1, 0) // 1 lower bound entry, value 0 (zigzag-encoded)
	h, err := d.FieldSignature(blob)
	require.NoError(t, err)
	assert.NotZero(t, h)
}

func TestMethodSignature_ReturnsSigHashAndGenericCount(t *testing.T) {
	d := New(newStubResolver())
	blob := []byte{
		byte(metadatareader.SigDefault) | byte(metadatareader.SigHasThis),
		1, // param count
		byte(metadatareader.ElementVoid),
		byte(metadatareader.ElementI4),
	}
	sigHash, genCount, err := d.MethodSignature(blob)
	require.NoError(t, err)
	assert.Zero(t, genCount)
	expected := fnvhash.Combine2(fnvhash.CombineSeq([]uint64{uint64(metadatareader.ElementI4)}), uint64(metadatareader.ElementVoid))
	assert.Equal(t, expected, sigHash)
}

func TestMethodSignature_GenericParamCount(t *testing.T) {
	d := New(newStubResolver())
	blob := []byte{
		byte(metadatareader.SigGeneric) | byte(metadatareader.SigHasThis),
		2, // generic param count
		0, // param count
		byte(metadatareader.ElementVoid),
	}
	_, genCount, err := d.MethodSignature(blob)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), genCount)
}

func TestMethodSignature_SentinelMarksVarargBoundaryWithoutCountingAsParam(t *testing.T) {
	d := New(newStubResolver())
	blob := []byte{
		byte(metadatareader.SigVararg) | byte(metadatareader.SigHasThis),
		2, // param count (fixed + vararg)
		byte(metadatareader.ElementVoid),
		byte(metadatareader.ElementI4),
		byte(metadatareader.ElementSentinel),
		byte(metadatareader.ElementString),
	}
	sigHash, _, err := d.MethodSignature(blob)
	require.NoError(t, err)
	expected := fnvhash.Combine2(
		fnvhash.CombineSeq([]uint64{uint64(metadatareader.ElementI4), uint64(metadatareader.ElementString)}),
		uint64(metadatareader.ElementVoid),
	)
	assert.Equal(t, expected, sigHash)
}

func TestPropertySignature_DecodesTypeAndIndexParams(t *testing.T) {
	d := New(newStubResolver())
	blob := []byte{
		byte(metadatareader.SigProperty),
		1, // index param count
		byte(metadatareader.ElementString),
		byte(metadatareader.ElementI4),
	}
	typeHash, params, err := d.PropertySignature(blob)
	require.NoError(t, err)
	assert.Equal(t, uint64(metadatareader.ElementString), typeHash)
	require.Len(t, params, 1)
	assert.Equal(t, uint64(metadatareader.ElementI4), params[0])
}

func TestTypeSpecSignature_BareType(t *testing.T) {
	d := New(newStubResolver())
	h, err := d.TypeSpecSignature([]byte{byte(metadatareader.ElementSZArray), byte(metadatareader.ElementI4)})
	require.NoError(t, err)
	assert.Equal(t, fnvhash.Combine2(uint64(metadatareader.ElementI4), 1), h)
}

func TestDecodeType_TruncatedSignatureIsMalformed(t *testing.T) {
	d := New(newStubResolver())
	_, err := d.FieldSignature([]byte{byte(metadatareader.SigField), byte(metadatareader.ElementSZArray)})
	require.Error(t, err)
}

func TestDecodeType_UnknownElementCodeIsMalformed(t *testing.T) {
	d := New(newStubResolver())
	_, err := d.FieldSignature([]byte{byte(metadatareader.SigField), 0x7F})
	require.Error(t, err)
}
