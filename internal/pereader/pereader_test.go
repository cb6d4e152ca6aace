package pereader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/asmsurface/internal/metadatareader"
)

func TestCursor_FixedWidthReads(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})
	b, err := c.u8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)

	u16, err := c.u16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), u16)

	u32, err := c.u32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x08070605), u32)
}

func TestCursor_U64OutOfRangeErrors(t *testing.T) {
	c := newCursor([]byte{1, 2, 3})
	_, err := c.u64()
	assert.Error(t, err)
}

func TestCursor_At(t *testing.T) {
	c := newCursor([]byte{0, 0, 0, 0xAB})
	v, err := c.at(3).u8()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), v)
}

func TestCursor_FixedString(t *testing.T) {
	c := newCursor([]byte{'h', 'i', 0, 0})
	s, err := c.fixedString(4)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func padName(name string) []byte {
	b := append([]byte(name), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func TestParseMetadataRoot_StreamDirectory(t *testing.T) {
	var data []byte
	appendU32 := func(v uint32) { data = append(data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
	appendU16 := func(v uint16) { data = append(data, byte(v), byte(v>>8)) }

	appendU32(metadataSignature)
	appendU16(1) // MajorVersion
	appendU16(1) // MinorVersion
	appendU32(0) // Reserved
	version := padName("v4.0.30319")
	appendU32(uint32(len(version)))
	data = append(data, version...)
	appendU16(0) // Flags
	appendU16(2) // stream count

	stream1Name := padName("#Strings")
	stream2Name := padName("#Blob")
	headerLen := uint32(len(data) + 8 + len(stream1Name) + 8 + len(stream2Name))
	stream1Offset := headerLen
	stream1Size := uint32(4)
	stream2Offset := stream1Offset + stream1Size
	stream2Size := uint32(2)

	appendU32(stream1Offset)
	appendU32(stream1Size)
	data = append(data, stream1Name...)
	appendU32(stream2Offset)
	appendU32(stream2Size)
	data = append(data, stream2Name...)

	data = append(data, make([]byte, stream1Size+stream2Size)...)

	root, err := parseMetadataRoot(data)
	require.NoError(t, err)

	s, ok := root.stream("#Strings")
	require.True(t, ok)
	assert.Len(t, s, int(stream1Size))

	b, ok := root.stream("#Blob")
	require.True(t, ok)
	assert.Len(t, b, int(stream2Size))

	_, ok = root.stream("#GUID")
	assert.False(t, ok)
}

func TestParseMetadataRoot_RejectsBadSignature(t *testing.T) {
	_, err := parseMetadataRoot([]byte{0, 0, 0, 0})
	assert.Error(t, err)
}

func TestTableLayout_SimpleIndexWidthGrowsPast64K(t *testing.T) {
	l := &tableLayout{}
	l.rowCounts[tTypeDef] = 100
	assert.Equal(t, 2, l.simpleIdxWidth(tTypeDef))

	l.rowCounts[tTypeDef] = 0x10000
	assert.Equal(t, 4, l.simpleIdxWidth(tTypeDef))
}

func TestTableLayout_CodedIndexWidthAccountsForAllTargetTables(t *testing.T) {
	l := &tableLayout{}
	l.rowCounts[tTypeDef] = 10
	l.rowCounts[tTypeRef] = 10
	l.rowCounts[tTypeSpec] = 10
	assert.Equal(t, 2, l.codedIdxWidth(typeDefOrRef)) // tagBits=2, threshold 1<<14

	l.rowCounts[tTypeRef] = 1 << 14
	assert.Equal(t, 4, l.codedIdxWidth(typeDefOrRef))
}

func TestTableLayout_HeapIndexWidthsFollowHeapSizesFlags(t *testing.T) {
	l := &tableLayout{}
	assert.Equal(t, 2, l.strIdxWidth())
	assert.Equal(t, 2, l.guidIdxWidth())
	assert.Equal(t, 2, l.blobIdxWidth())

	l.wideStrings, l.wideGUIDs, l.wideBlobs = true, true, true
	assert.Equal(t, 4, l.strIdxWidth())
	assert.Equal(t, 4, l.guidIdxWidth())
	assert.Equal(t, 4, l.blobIdxWidth())
}

// buildTablesStream hand-assembles a minimal "#~" stream body with a
// single Module row and a single TypeDef row, narrow (2-byte) heap and
// simple indices throughout - the smallest fixture that exercises the
// header, the per-table row-count array, and row decoding together.
func buildTablesStream(t *testing.T) []byte {
	t.Helper()
	var data []byte
	appendU32 := func(v uint32) { data = append(data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
	appendU16 := func(v uint16) { data = append(data, byte(v), byte(v>>8)) }
	appendU8 := func(v byte) { data = append(data, v) }
	appendU64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			data = append(data, byte(v>>(8*i)))
		}
	}

	appendU32(0)    // Reserved
	appendU8(2)     // MajorVersion
	appendU8(0)     // MinorVersion
	appendU8(0)     // HeapSizes: all narrow
	appendU8(1)     // Reserved2
	valid := uint64(1)<<uint(tModule) | uint64(1)<<uint(tTypeDef)
	appendU64(valid)
	appendU64(0) // Sorted

	appendU32(1) // Module row count
	appendU32(1) // TypeDef row count

	// Module row: Generation(u2), Name(strIdx u2), Mvid(guidIdx u2), EncId(u2), EncBaseId(u2)
	appendU16(0)
	appendU16(1) // Name offset into #Strings
	appendU16(1) // Mvid
	appendU16(0)
	appendU16(0)

	// TypeDef row: Flags(u4), Name(strIdx), Namespace(strIdx), Extends(codedIdx u2), FieldList(u2), MethodList(u2)
	appendU32(uint32(metadatareader.TypePublic))
	appendU16(5) // Name
	appendU16(0) // Namespace
	appendU16(0) // Extends: nil
	appendU16(1) // FieldList
	appendU16(1) // MethodList

	return data
}

func TestParseTablesStream_DecodesModuleAndTypeDef(t *testing.T) {
	dt, err := parseTablesStream(buildTablesStream(t))
	require.NoError(t, err)

	require.Len(t, dt.modules, 2)
	assert.Equal(t, metadatareader.StringHandle(1), dt.modules[1].Name)
	assert.Equal(t, metadatareader.GuidHandle(1), dt.modules[1].Mvid)

	require.Len(t, dt.typeDefs, 2)
	assert.Equal(t, metadatareader.TypePublic, dt.typeDefs[1].Flags)
	assert.Equal(t, metadatareader.StringHandle(5), dt.typeDefs[1].Name)
	assert.True(t, dt.typeDefs[1].Extends.IsNil())
}

func TestParseTablesStream_RejectsUnsupportedTableNumber(t *testing.T) {
	var data []byte
	data = append(data, 0, 0, 0, 0) // Reserved
	data = append(data, 2, 0)      // versions
	data = append(data, 0, 1)      // HeapSizes, Reserved2
	valid := uint64(1) << 63
	for i := 0; i < 8; i++ {
		data = append(data, byte(valid>>(8*i)))
	}
	data = append(data, make([]byte, 8)...) // Sorted

	_, err := parseTablesStream(data)
	assert.Error(t, err)
}

func TestReader_StringAndBlobHeapLookups(t *testing.T) {
	strings := append([]byte{0}, []byte("Hello\x00")...)
	blob := []byte{0, 3, 0xAA, 0xBB, 0xCC}

	r := newReader(&decodedTables{
		layout:     &tableLayout{},
		modules:    []metadatareader.ModuleRow{{}},
		typeDefs:   []metadatareader.TypeDefRow{{}},
		assemblies: []metadatareader.AssemblyRow{{}},
	}, strings, blob, nil)

	assert.Equal(t, "", r.String(metadatareader.NilStringHandle))
	assert.Equal(t, "Hello", r.String(metadatareader.StringHandle(1)))

	assert.Nil(t, r.Blob(metadatareader.NilBlobHandle))
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, r.Blob(metadatareader.BlobHandle(1)))
}

func TestReadCompressedUint_AllWidthForms(t *testing.T) {
	c := newCursor([]byte{0x03})
	v, err := readCompressedUint(c)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x03), v)

	c = newCursor([]byte{0x80, 0x80})
	v, err = readCompressedUint(c)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80), v)

	c = newCursor([]byte{0xC0, 0x00, 0x40, 0x00})
	v, err = readCompressedUint(c)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4000), v)
}

func TestHandleRange_EmptyWhenStartIsZero(t *testing.T) {
	assert.Nil(t, handleRange(metadatareader.KindField, 0, 5))
}

func TestHandleRange_ProducesContiguousHandles(t *testing.T) {
	hs := handleRange(metadatareader.KindField, 2, 5)
	require.Len(t, hs, 3)
	assert.Equal(t, uint32(2), hs[0].RID())
	assert.Equal(t, uint32(4), hs[2].RID())
}
