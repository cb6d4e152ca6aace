package pereader

import (
	"fmt"

	"github.com/standardbeagle/asmsurface/internal/metadatareader"
)

// tableID is a CLI metadata table number, ECMA-335 §II.22. It mirrors
// metadatareader.HandleKind's values for the tables that module cares
// about, plus the handful of tables (FieldPtr, MethodImpl, File, ...)
// that only need a correct row *size* so later tables can be located,
// never a decoded row.
type tableID byte

const (
	tModule                 tableID = 0x00
	tTypeRef                tableID = 0x01
	tTypeDef                tableID = 0x02
	tFieldPtr               tableID = 0x03
	tField                  tableID = 0x04
	tMethodPtr              tableID = 0x05
	tMethodDef              tableID = 0x06
	tParamPtr               tableID = 0x07
	tParam                  tableID = 0x08
	tInterfaceImpl          tableID = 0x09
	tMemberRef              tableID = 0x0A
	tConstant               tableID = 0x0B
	tCustomAttribute        tableID = 0x0C
	tFieldMarshal           tableID = 0x0D
	tDeclSecurity           tableID = 0x0E
	tClassLayout            tableID = 0x0F
	tFieldLayout            tableID = 0x10
	tStandAloneSig          tableID = 0x11
	tEventMap               tableID = 0x12
	tEventPtr               tableID = 0x13
	tEvent                  tableID = 0x14
	tPropertyMap            tableID = 0x15
	tPropertyPtr            tableID = 0x16
	tProperty               tableID = 0x17
	tMethodSemantics        tableID = 0x18
	tMethodImpl             tableID = 0x19
	tModuleRef              tableID = 0x1A
	tTypeSpec               tableID = 0x1B
	tImplMap                tableID = 0x1C
	tFieldRVA               tableID = 0x1D
	tENCLog                 tableID = 0x1E
	tENCMap                 tableID = 0x1F
	tAssembly               tableID = 0x20
	tAssemblyProcessor      tableID = 0x21
	tAssemblyOS             tableID = 0x22
	tAssemblyRef            tableID = 0x23
	tAssemblyRefProcessor   tableID = 0x24
	tAssemblyRefOS          tableID = 0x25
	tFile                   tableID = 0x26
	tExportedType           tableID = 0x27
	tManifestResource       tableID = 0x28
	tNestedClass            tableID = 0x29
	tGenericParam           tableID = 0x2A
	tMethodSpec             tableID = 0x2B
	tGenericParamConstraint tableID = 0x2C

	tableCount = 0x2D
	tableUnused tableID = 0xFF
)

// codedIndexKind describes one ECMA-335 §II.24.2.6 coded-index column:
// the number of tag bits and the table each tag value selects, in tag
// order. A tableUnused entry marks a tag value the format reserves but
// never emits.
type codedIndexKind struct {
	tagBits int
	tables  []tableID
}

var (
	typeDefOrRef = codedIndexKind{2, []tableID{tTypeDef, tTypeRef, tTypeSpec}}
	hasConstant  = codedIndexKind{2, []tableID{tField, tParam, tProperty}}
	hasCustomAttribute = codedIndexKind{5, []tableID{
		tMethodDef, tField, tTypeRef, tTypeDef, tParam, tInterfaceImpl, tMemberRef,
		tModule, tDeclSecurity, tProperty, tEvent, tStandAloneSig, tModuleRef,
		tTypeSpec, tAssembly, tAssemblyRef, tFile, tExportedType, tManifestResource,
		tGenericParam, tGenericParamConstraint, tMethodSpec,
	}}
	memberRefParent = codedIndexKind{3, []tableID{tTypeDef, tTypeRef, tModuleRef, tMethodDef, tTypeSpec}}
	hasSemantics    = codedIndexKind{1, []tableID{tEvent, tProperty}}
	customAttributeType = codedIndexKind{3, []tableID{tableUnused, tableUnused, tMethodDef, tMemberRef, tableUnused}}
	resolutionScope = codedIndexKind{2, []tableID{tModule, tModuleRef, tAssemblyRef, tTypeRef}}
	implementation  = codedIndexKind{2, []tableID{tFile, tAssemblyRef, tExportedType}}
	typeOrMethodDef = codedIndexKind{1, []tableID{tTypeDef, tMethodDef}}
)

// tableLayout holds the per-image facts every width computation needs:
// heap-index widths and each table's row count.
type tableLayout struct {
	wideStrings bool
	wideGUIDs   bool
	wideBlobs   bool
	rowCounts   [tableCount]uint32
}

func (l *tableLayout) strIdxWidth() int {
	if l.wideStrings {
		return 4
	}
	return 2
}
func (l *tableLayout) guidIdxWidth() int {
	if l.wideGUIDs {
		return 4
	}
	return 2
}
func (l *tableLayout) blobIdxWidth() int {
	if l.wideBlobs {
		return 4
	}
	return 2
}
func (l *tableLayout) simpleIdxWidth(t tableID) int {
	if l.rowCounts[t] > 0xFFFF {
		return 4
	}
	return 2
}
func (l *tableLayout) codedIdxWidth(k codedIndexKind) int {
	var maxRows uint32
	for _, t := range k.tables {
		if t == tableUnused {
			continue
		}
		if l.rowCounts[t] > maxRows {
			maxRows = l.rowCounts[t]
		}
	}
	if maxRows >= uint32(1)<<(16-uint(k.tagBits)) {
		return 4
	}
	return 2
}

// rowSize returns the byte width of one row of t, used both to decode
// tables this module cares about and to skip over the ones it
// doesn't - every table's rows are laid out back to back with no
// padding, so later tables cannot be located without this for every
// table in between, interesting or not.
func (l *tableLayout) rowSize(t tableID) int {
	switch t {
	case tModule:
		return 2 + l.strIdxWidth() + 3*l.guidIdxWidth()
	case tTypeRef:
		return l.codedIdxWidth(resolutionScope) + 2*l.strIdxWidth()
	case tTypeDef:
		return 4 + 2*l.strIdxWidth() + l.codedIdxWidth(typeDefOrRef) + l.simpleIdxWidth(tField) + l.simpleIdxWidth(tMethodDef)
	case tFieldPtr:
		return l.simpleIdxWidth(tField)
	case tField:
		return 2 + l.strIdxWidth() + l.blobIdxWidth()
	case tMethodPtr:
		return l.simpleIdxWidth(tMethodDef)
	case tMethodDef:
		return 4 + 2 + 2 + l.strIdxWidth() + l.blobIdxWidth() + l.simpleIdxWidth(tParam)
	case tParamPtr:
		return l.simpleIdxWidth(tParam)
	case tParam:
		return 2 + 2 + l.strIdxWidth()
	case tInterfaceImpl:
		return l.simpleIdxWidth(tTypeDef) + l.codedIdxWidth(typeDefOrRef)
	case tMemberRef:
		return l.codedIdxWidth(memberRefParent) + l.strIdxWidth() + l.blobIdxWidth()
	case tConstant:
		return 2 + l.codedIdxWidth(hasConstant) + l.blobIdxWidth()
	case tCustomAttribute:
		return l.codedIdxWidth(hasCustomAttribute) + l.codedIdxWidth(customAttributeType) + l.blobIdxWidth()
	case tFieldMarshal:
		return l.codedIdxWidth(codedIndexKind{1, []tableID{tField, tParam}}) + l.blobIdxWidth()
	case tDeclSecurity:
		return 2 + l.codedIdxWidth(codedIndexKind{2, []tableID{tTypeDef, tMethodDef, tAssembly}}) + l.blobIdxWidth()
	case tClassLayout:
		return 2 + 4 + l.simpleIdxWidth(tTypeDef)
	case tFieldLayout:
		return 4 + l.simpleIdxWidth(tField)
	case tStandAloneSig:
		return l.blobIdxWidth()
	case tEventMap:
		return l.simpleIdxWidth(tTypeDef) + l.simpleIdxWidth(tEvent)
	case tEventPtr:
		return l.simpleIdxWidth(tEvent)
	case tEvent:
		return 2 + l.strIdxWidth() + l.codedIdxWidth(typeDefOrRef)
	case tPropertyMap:
		return l.simpleIdxWidth(tTypeDef) + l.simpleIdxWidth(tProperty)
	case tPropertyPtr:
		return l.simpleIdxWidth(tProperty)
	case tProperty:
		return 2 + l.strIdxWidth() + l.blobIdxWidth()
	case tMethodSemantics:
		return 2 + l.simpleIdxWidth(tMethodDef) + l.codedIdxWidth(hasSemantics)
	case tMethodImpl:
		return l.simpleIdxWidth(tTypeDef) + 2*l.codedIdxWidth(codedIndexKind{1, []tableID{tMethodDef, tMemberRef}})
	case tModuleRef:
		return l.strIdxWidth()
	case tTypeSpec:
		return l.blobIdxWidth()
	case tImplMap:
		return 2 + l.codedIdxWidth(codedIndexKind{1, []tableID{tField, tMethodDef}}) + l.strIdxWidth() + l.simpleIdxWidth(tModuleRef)
	case tFieldRVA:
		return 4 + l.simpleIdxWidth(tField)
	case tENCLog:
		return 4 + 4
	case tENCMap:
		return 4
	case tAssembly:
		return 4 + 2*4 + 4 + l.blobIdxWidth() + 2*l.strIdxWidth()
	case tAssemblyProcessor:
		return 4
	case tAssemblyOS:
		return 4 + 4 + 4
	case tAssemblyRef:
		return 2*4 + 4 + l.blobIdxWidth() + 2*l.strIdxWidth() + l.blobIdxWidth()
	case tAssemblyRefProcessor:
		return 4 + l.simpleIdxWidth(tAssemblyRef)
	case tAssemblyRefOS:
		return 4 + 4 + 4 + l.simpleIdxWidth(tAssemblyRef)
	case tFile:
		return 4 + l.strIdxWidth() + l.blobIdxWidth()
	case tExportedType:
		return 4 + 4 + 2*l.strIdxWidth() + l.codedIdxWidth(implementation)
	case tManifestResource:
		return 4 + 4 + l.strIdxWidth() + l.codedIdxWidth(implementation)
	case tNestedClass:
		return l.simpleIdxWidth(tTypeDef) + l.simpleIdxWidth(tTypeDef)
	case tGenericParam:
		return 2 + 2 + l.codedIdxWidth(typeOrMethodDef) + l.strIdxWidth()
	case tMethodSpec:
		return l.codedIdxWidth(codedIndexKind{1, []tableID{tMethodDef, tMemberRef}}) + l.blobIdxWidth()
	case tGenericParamConstraint:
		return l.simpleIdxWidth(tGenericParam) + l.codedIdxWidth(typeDefOrRef)
	default:
		return 0
	}
}

// rowReader walks one table's row data with layout-aware column widths.
type rowReader struct {
	c      *cursor
	layout *tableLayout
}

func (r *rowReader) u2() uint16             { v, _ := r.c.u16(); return v }
func (r *rowReader) u4() uint32             { v, _ := r.c.u32(); return v }
func (r *rowReader) strIdx() metadatareader.StringHandle {
	if r.layout.wideStrings {
		return metadatareader.StringHandle(r.u4())
	}
	return metadatareader.StringHandle(r.u2())
}
func (r *rowReader) guidIdx() metadatareader.GuidHandle {
	if r.layout.wideGUIDs {
		return metadatareader.GuidHandle(r.u4())
	}
	return metadatareader.GuidHandle(r.u2())
}
func (r *rowReader) blobIdx() metadatareader.BlobHandle {
	if r.layout.wideBlobs {
		return metadatareader.BlobHandle(r.u4())
	}
	return metadatareader.BlobHandle(r.u2())
}
func (r *rowReader) simpleIdx(t tableID) uint32 {
	if r.layout.simpleIdxWidth(t) == 4 {
		return r.u4()
	}
	return uint32(r.u2())
}
func (r *rowReader) codedIdx(k codedIndexKind) metadatareader.Handle {
	var raw uint32
	if r.layout.codedIdxWidth(k) == 4 {
		raw = r.u4()
	} else {
		raw = uint32(r.u2())
	}
	tagMask := uint32(1)<<uint(k.tagBits) - 1
	tag := raw & tagMask
	rid := raw >> uint(k.tagBits)
	if rid == 0 || int(tag) >= len(k.tables) || k.tables[tag] == tableUnused {
		return metadatareader.NilHandle
	}
	return metadatareader.NewHandle(metadatareader.HandleKind(k.tables[tag]), rid)
}

func simpleHandle(t tableID, rid uint32) metadatareader.Handle {
	if rid == 0 {
		return metadatareader.NilHandle
	}
	return metadatareader.NewHandle(metadatareader.HandleKind(t), rid)
}

// eventMapRow, propertyMapRow, methodSemanticsRow, nestedClassRow have
// no counterpart in metadatareader/rows.go - they exist only to let
// this package derive the per-type Events/Properties/accessor/nesting
// indices the Reader interface exposes, and never leave this package.
type eventMapRow struct {
	parent    metadatareader.Handle
	eventList uint32
}
type propertyMapRow struct {
	parent       metadatareader.Handle
	propertyList uint32
}
type methodSemanticsRow struct {
	semantics   uint16
	method      metadatareader.Handle
	association metadatareader.Handle
}
type nestedClassRow struct {
	nested, enclosing metadatareader.Handle
}

const (
	semanticsSetter   = 0x0001
	semanticsGetter   = 0x0002
	semanticsAddOn    = 0x0008
	semanticsRemoveOn = 0x0010
)

// decodedTables is every row this module decodes, 1-indexed (index 0
// unused, matching RID numbering) so a Handle's RID can index directly.
type decodedTables struct {
	layout *tableLayout

	modules           []metadatareader.ModuleRow
	typeRefs          []metadatareader.TypeRefRow
	typeDefs          []metadatareader.TypeDefRow
	typeDefFieldStart []uint32
	typeDefMethodStart []uint32
	typeSpecs         []metadatareader.TypeSpecRow
	fields            []metadatareader.FieldRow
	methodDefs        []metadatareader.MethodDefRow
	methodParamStart  []uint32
	params            []metadatareader.ParamRow
	interfaceImpls    []metadatareader.InterfaceImplRow
	memberRefs        []metadatareader.MemberRefRow
	constants         []metadatareader.ConstantRow
	customAttributes  []metadatareader.CustomAttributeRow
	eventMaps         []eventMapRow
	events            []metadatareader.EventRow
	propertyMaps      []propertyMapRow
	properties        []metadatareader.PropertyRow
	methodSemantics   []methodSemanticsRow
	assemblies        []metadatareader.AssemblyRow
	assemblyRefs      []metadatareader.AssemblyRefRow
	exportedTypes     []metadatareader.ExportedTypeRow
	manifestResources []metadatareader.ManifestResourceRow
	nestedClasses     []nestedClassRow
	genericParams     []metadatareader.GenericParamRow
	genericParamConstraints []metadatareader.GenericParamConstraintRow
}

// parseTablesStream decodes the "#~" (or "#-") logical-metadata
// stream: ECMA-335 §II.24.2.6.
func parseTablesStream(data []byte) (*decodedTables, error) {
	c := newCursor(data)
	if err := c.skip(4); err != nil { // Reserved
		return nil, fmt.Errorf("pereader: truncated tables stream: %w", err)
	}
	if err := c.skip(2); err != nil { // MajorVersion, MinorVersion
		return nil, err
	}
	heapSizes, err := c.u8()
	if err != nil {
		return nil, err
	}
	if err := c.skip(1); err != nil { // Reserved2
		return nil, err
	}
	valid, err := c.u64()
	if err != nil {
		return nil, err
	}
	if _, err := c.u64(); err != nil { // Sorted - order doesn't affect any hash this module computes
		return nil, err
	}

	layout := &tableLayout{
		wideStrings: heapSizes&0x01 != 0,
		wideGUIDs:   heapSizes&0x02 != 0,
		wideBlobs:   heapSizes&0x04 != 0,
	}

	present := make([]tableID, 0, 32)
	for i := 0; i < 64; i++ {
		if valid&(uint64(1)<<uint(i)) == 0 {
			continue
		}
		if i >= tableCount {
			return nil, fmt.Errorf("pereader: unsupported metadata table number 0x%X", i)
		}
		present = append(present, tableID(i))
	}
	for _, t := range present {
		n, err := c.u32()
		if err != nil {
			return nil, fmt.Errorf("pereader: truncated table row count: %w", err)
		}
		layout.rowCounts[t] = n
	}

	dt := &decodedTables{layout: layout}
	for _, t := range present {
		n := int(layout.rowCounts[t])
		size := layout.rowSize(t)
		rows, err := c.bytes(n * size)
		if err != nil {
			return nil, fmt.Errorf("pereader: truncated table 0x%02X rows: %w", t, err)
		}
		if err := dt.decodeTable(t, rows, n, size, layout); err != nil {
			return nil, err
		}
	}
	return dt, nil
}

func (dt *decodedTables) decodeTable(t tableID, rows []byte, n, size int, layout *tableLayout) error {
	rr := func(i int) *rowReader { return &rowReader{c: newCursor(rows).at(i * size), layout: layout} }

	switch t {
	case tModule:
		dt.modules = make([]metadatareader.ModuleRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			_ = r.u2() // Generation
			dt.modules[i] = metadatareader.ModuleRow{Name: r.strIdx(), Mvid: r.guidIdx()}
			r.guidIdx() // EncId
			r.guidIdx() // EncBaseId
		}
	case tTypeRef:
		dt.typeRefs = make([]metadatareader.TypeRefRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			scope := r.codedIdx(resolutionScope)
			dt.typeRefs[i] = metadatareader.TypeRefRow{ResolutionScope: scope, Name: r.strIdx(), Namespace: r.strIdx()}
		}
	case tTypeDef:
		dt.typeDefs = make([]metadatareader.TypeDefRow, n+1)
		dt.typeDefFieldStart = make([]uint32, n+1)
		dt.typeDefMethodStart = make([]uint32, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			flags := r.u4()
			name := r.strIdx()
			ns := r.strIdx()
			extends := r.codedIdx(typeDefOrRef)
			fieldStart := r.simpleIdx(tField)
			methodStart := r.simpleIdx(tMethodDef)
			dt.typeDefs[i] = metadatareader.TypeDefRow{
				Flags: metadatareader.TypeAttributes(flags), Name: name, Namespace: ns, Extends: extends,
			}
			dt.typeDefFieldStart[i] = fieldStart
			dt.typeDefMethodStart[i] = methodStart
		}
	case tField:
		dt.fields = make([]metadatareader.FieldRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			flags := r.u2()
			dt.fields[i] = metadatareader.FieldRow{
				Flags:     metadatareader.FieldAttributes(flags) &^ metadatareader.FieldAttributes(metadatareader.AccessMask),
				Access:    metadatareader.MemberAccessMask(flags) & metadatareader.AccessMask,
				Name:      r.strIdx(),
				Signature: r.blobIdx(),
			}
		}
	case tMethodDef:
		dt.methodDefs = make([]metadatareader.MethodDefRow, n+1)
		dt.methodParamStart = make([]uint32, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			r.u4() // RVA
			implFlags := r.u2()
			flags := r.u2()
			name := r.strIdx()
			sig := r.blobIdx()
			paramStart := r.simpleIdx(tParam)
			dt.methodDefs[i] = metadatareader.MethodDefRow{
				Flags:     metadatareader.MethodAttributes(flags) &^ metadatareader.MethodAttributes(metadatareader.AccessMask),
				Access:    metadatareader.MemberAccessMask(flags) & metadatareader.AccessMask,
				ImplFlags: implFlags,
				Name:      name,
				Signature: sig,
			}
			dt.methodParamStart[i] = paramStart
		}
	case tParam:
		dt.params = make([]metadatareader.ParamRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			flags := r.u2()
			seq := r.u2()
			dt.params[i] = metadatareader.ParamRow{Flags: metadatareader.ParamAttributes(flags), Sequence: seq, Name: r.strIdx()}
		}
	case tInterfaceImpl:
		dt.interfaceImpls = make([]metadatareader.InterfaceImplRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			class := simpleHandle(tTypeDef, r.simpleIdx(tTypeDef))
			iface := r.codedIdx(typeDefOrRef)
			dt.interfaceImpls[i] = metadatareader.InterfaceImplRow{Class: class, Interface: iface}
		}
	case tMemberRef:
		dt.memberRefs = make([]metadatareader.MemberRefRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			parent := r.codedIdx(memberRefParent)
			dt.memberRefs[i] = metadatareader.MemberRefRow{Parent: parent, Name: r.strIdx(), Signature: r.blobIdx()}
		}
	case tConstant:
		dt.constants = make([]metadatareader.ConstantRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			typ := r.u2() & 0x00FF
			parent := r.codedIdx(hasConstant)
			dt.constants[i] = metadatareader.ConstantRow{Type: metadatareader.ElementType(typ), Parent: parent, Value: r.blobIdx()}
		}
	case tCustomAttribute:
		dt.customAttributes = make([]metadatareader.CustomAttributeRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			parent := r.codedIdx(hasCustomAttribute)
			ctor := r.codedIdx(customAttributeType)
			dt.customAttributes[i] = metadatareader.CustomAttributeRow{Parent: parent, Constructor: ctor, Value: r.blobIdx()}
		}
	case tEventMap:
		dt.eventMaps = make([]eventMapRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			parent := simpleHandle(tTypeDef, r.simpleIdx(tTypeDef))
			dt.eventMaps[i] = eventMapRow{parent: parent, eventList: r.simpleIdx(tEvent)}
		}
	case tEvent:
		dt.events = make([]metadatareader.EventRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			flags := r.u2()
			dt.events[i] = metadatareader.EventRow{Flags: flags, Name: r.strIdx(), EventType: r.codedIdx(typeDefOrRef)}
		}
	case tPropertyMap:
		dt.propertyMaps = make([]propertyMapRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			parent := simpleHandle(tTypeDef, r.simpleIdx(tTypeDef))
			dt.propertyMaps[i] = propertyMapRow{parent: parent, propertyList: r.simpleIdx(tProperty)}
		}
	case tProperty:
		dt.properties = make([]metadatareader.PropertyRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			flags := r.u2()
			dt.properties[i] = metadatareader.PropertyRow{Flags: flags, Name: r.strIdx(), Signature: r.blobIdx()}
		}
	case tMethodSemantics:
		dt.methodSemantics = make([]methodSemanticsRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			semantics := r.u2()
			method := simpleHandle(tMethodDef, r.simpleIdx(tMethodDef))
			assoc := r.codedIdx(hasSemantics)
			dt.methodSemantics[i] = methodSemanticsRow{semantics: semantics, method: method, association: assoc}
		}
	case tTypeSpec:
		dt.typeSpecs = make([]metadatareader.TypeSpecRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			dt.typeSpecs[i] = metadatareader.TypeSpecRow{Signature: r.blobIdx()}
		}
	case tAssembly:
		dt.assemblies = make([]metadatareader.AssemblyRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			r.u4() // HashAlgId
			major, minor, build, rev := r.u2(), r.u2(), r.u2(), r.u2()
			flags := r.u4()
			dt.assemblies[i] = metadatareader.AssemblyRow{
				MajorVersion: major, MinorVersion: minor, BuildNumber: build, RevisionNumber: rev,
				Flags: flags, PublicKey: r.blobIdx(), Name: r.strIdx(), Culture: r.strIdx(),
			}
		}
	case tAssemblyRef:
		dt.assemblyRefs = make([]metadatareader.AssemblyRefRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			major, minor, build, rev := r.u2(), r.u2(), r.u2(), r.u2()
			flags := r.u4()
			key := r.blobIdx()
			name := r.strIdx()
			culture := r.strIdx()
			r.blobIdx() // HashValue, unused by this module
			dt.assemblyRefs[i] = metadatareader.AssemblyRefRow{
				MajorVersion: major, MinorVersion: minor, BuildNumber: build, RevisionNumber: rev,
				Flags: flags, PublicKeyOrToken: key, Name: name, Culture: culture,
			}
		}
	case tExportedType:
		dt.exportedTypes = make([]metadatareader.ExportedTypeRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			flags := r.u4()
			typeDefID := r.u4()
			name := r.strIdx()
			ns := r.strIdx()
			impl := r.codedIdx(implementation)
			dt.exportedTypes[i] = metadatareader.ExportedTypeRow{
				Flags: metadatareader.TypeAttributes(flags), TypeDefID: typeDefID, Name: name, Namespace: ns, Implementation: impl,
			}
		}
	case tManifestResource:
		dt.manifestResources = make([]metadatareader.ManifestResourceRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			offset := r.u4()
			flags := r.u4()
			name := r.strIdx()
			impl := r.codedIdx(implementation)
			dt.manifestResources[i] = metadatareader.ManifestResourceRow{
				Offset: offset, Flags: metadatareader.ManifestResourceAttributes(flags), Name: name, Implementation: impl,
			}
		}
	case tNestedClass:
		dt.nestedClasses = make([]nestedClassRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			nested := simpleHandle(tTypeDef, r.simpleIdx(tTypeDef))
			enclosing := simpleHandle(tTypeDef, r.simpleIdx(tTypeDef))
			dt.nestedClasses[i] = nestedClassRow{nested: nested, enclosing: enclosing}
		}
	case tGenericParam:
		dt.genericParams = make([]metadatareader.GenericParamRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			number := r.u2()
			flags := r.u2()
			owner := r.codedIdx(typeOrMethodDef)
			dt.genericParams[i] = metadatareader.GenericParamRow{
				Number: number, Flags: metadatareader.GenericParamAttributes(flags), Owner: owner, Name: r.strIdx(),
			}
		}
	case tGenericParamConstraint:
		dt.genericParamConstraints = make([]metadatareader.GenericParamConstraintRow, n+1)
		for i := 1; i <= n; i++ {
			r := rr(i - 1)
			owner := simpleHandle(tGenericParam, r.simpleIdx(tGenericParam))
			constraint := r.codedIdx(typeDefOrRef)
			dt.genericParamConstraints[i] = metadatareader.GenericParamConstraintRow{Owner: owner, Constraint: constraint}
		}
	default:
		// A table this module has no use for: row bytes were already
		// sliced out of the stream by the caller to keep later tables
		// aligned, and can simply be discarded.
	}
	return nil
}
