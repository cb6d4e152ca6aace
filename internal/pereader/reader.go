package pereader

import (
	"fmt"

	"github.com/standardbeagle/asmsurface/internal/metadatareader"
)

// Reader implements metadatareader.Reader over a parsed PE/CLI image:
// the concrete, file-backed collaborator reader.go's and handle.go's
// doc comments promise, derived entirely from decodedTables plus the
// #Strings/#Blob heaps.
type Reader struct {
	tables *decodedTables
	blobs  *metadataRoot

	strings []byte
	blob    []byte

	resources []byte // raw managed-resources data section, sliced by ManifestResource.Offset

	assemblyName string

	fieldsOfType      map[uint32][]metadatareader.Handle
	methodsOfType     map[uint32][]metadatareader.Handle
	paramsOfMethod    map[uint32][]metadatareader.Handle
	eventsOfType      map[uint32][]metadatareader.Handle
	propertiesOfType  map[uint32][]metadatareader.Handle
	interfaceImplsOf  map[uint32][]metadatareader.Handle
	genericParamsOf   map[metadatareader.Handle][]metadatareader.Handle
	genericConstrOf   map[uint32][]metadatareader.Handle
	customAttrsOf     map[metadatareader.Handle][]metadatareader.Handle
	enclosingOf       map[uint32]metadatareader.Handle
	constantOf        map[metadatareader.Handle]uint32
	getterSetterOf    map[uint32][2]metadatareader.Handle // propertyRID -> [getter, setter]
	adderRemoverOf    map[uint32][2]metadatareader.Handle // eventRID -> [adder, remover]
}

func newReader(tables *decodedTables, strings, blob, resources []byte) *Reader {
	r := &Reader{
		tables:           tables,
		strings:          strings,
		blob:             blob,
		resources:        resources,
		fieldsOfType:     map[uint32][]metadatareader.Handle{},
		methodsOfType:    map[uint32][]metadatareader.Handle{},
		paramsOfMethod:   map[uint32][]metadatareader.Handle{},
		eventsOfType:     map[uint32][]metadatareader.Handle{},
		propertiesOfType: map[uint32][]metadatareader.Handle{},
		interfaceImplsOf: map[uint32][]metadatareader.Handle{},
		genericParamsOf:  map[metadatareader.Handle][]metadatareader.Handle{},
		genericConstrOf:  map[uint32][]metadatareader.Handle{},
		customAttrsOf:    map[metadatareader.Handle][]metadatareader.Handle{},
		enclosingOf:      map[uint32]metadatareader.Handle{},
		constantOf:       map[metadatareader.Handle]uint32{},
		getterSetterOf:   map[uint32][2]metadatareader.Handle{},
		adderRemoverOf:   map[uint32][2]metadatareader.Handle{},
	}
	r.build()
	if len(tables.assemblies) > 1 {
		r.assemblyName = r.String(tables.assemblies[1].Name)
	}
	return r
}

// build derives every range/association index the Reader interface
// needs from the flat decoded tables: TypeDef.FieldList/MethodList
// ranges, MethodDef.ParamList ranges, EventMap/PropertyMap ranges,
// MethodSemantics associations, NestedClass, GenericParam ownership,
// CustomAttribute ownership, and Constant ownership.
func (r *Reader) build() {
	t := r.tables

	numFields := len(t.fields) - 1
	numMethods := len(t.methodDefs) - 1
	for i := 1; i < len(t.typeDefs); i++ {
		fieldEnd := uint32(numFields) + 1
		methodEnd := uint32(numMethods) + 1
		if i+1 < len(t.typeDefs) {
			fieldEnd = t.typeDefFieldStart[i+1]
			methodEnd = t.typeDefMethodStart[i+1]
		}
		r.fieldsOfType[uint32(i)] = handleRange(metadatareader.KindField, t.typeDefFieldStart[i], fieldEnd)
		r.methodsOfType[uint32(i)] = handleRange(metadatareader.KindMethodDefinition, t.typeDefMethodStart[i], methodEnd)
	}

	numParams := len(t.params) - 1
	for i := 1; i < len(t.methodDefs); i++ {
		end := uint32(numParams) + 1
		if i+1 < len(t.methodDefs) {
			end = t.methodParamStart[i+1]
		}
		r.paramsOfMethod[uint32(i)] = handleRange(metadatareader.KindParameter, t.methodParamStart[i], end)
	}

	numEvents := len(t.events) - 1
	for i := 1; i < len(t.eventMaps); i++ {
		end := uint32(numEvents) + 1
		if i+1 < len(t.eventMaps) {
			end = t.eventMaps[i+1].eventList
		}
		r.eventsOfType[t.eventMaps[i].parent.RID()] = handleRange(metadatareader.KindEvent, t.eventMaps[i].eventList, end)
	}

	numProperties := len(t.properties) - 1
	for i := 1; i < len(t.propertyMaps); i++ {
		end := uint32(numProperties) + 1
		if i+1 < len(t.propertyMaps) {
			end = t.propertyMaps[i+1].propertyList
		}
		r.propertiesOfType[t.propertyMaps[i].parent.RID()] = handleRange(metadatareader.KindProperty, t.propertyMaps[i].propertyList, end)
	}

	for i := 1; i < len(t.interfaceImpls); i++ {
		class := t.interfaceImpls[i].Class.RID()
		r.interfaceImplsOf[class] = append(r.interfaceImplsOf[class], metadatareader.NewHandle(metadatareader.KindInterfaceImplementation, uint32(i)))
	}

	for i := 1; i < len(t.genericParams); i++ {
		owner := t.genericParams[i].Owner
		h := metadatareader.NewHandle(metadatareader.KindGenericParameter, uint32(i))
		r.genericParamsOf[owner] = append(r.genericParamsOf[owner], h)
	}
	for i := 1; i < len(t.genericParamConstraints); i++ {
		owner := t.genericParamConstraints[i].Owner.RID()
		h := metadatareader.NewHandle(metadatareader.KindGenericParameterConstraint, uint32(i))
		r.genericConstrOf[owner] = append(r.genericConstrOf[owner], h)
	}

	for i := 1; i < len(t.customAttributes); i++ {
		parent := t.customAttributes[i].Parent
		h := metadatareader.NewHandle(metadatareader.KindCustomAttribute, uint32(i))
		r.customAttrsOf[parent] = append(r.customAttrsOf[parent], h)
	}

	for i := 1; i < len(t.nestedClasses); i++ {
		r.enclosingOf[t.nestedClasses[i].nested.RID()] = t.nestedClasses[i].enclosing
	}

	for i := 1; i < len(t.constants); i++ {
		r.constantOf[t.constants[i].Parent] = uint32(i)
	}

	for i := 1; i < len(t.methodSemantics); i++ {
		sem := t.methodSemantics[i]
		switch sem.association.Kind() {
		case metadatareader.KindProperty:
			rid := sem.association.RID()
			pair := r.getterSetterOf[rid]
			if sem.semantics&semanticsGetter != 0 {
				pair[0] = sem.method
			}
			if sem.semantics&semanticsSetter != 0 {
				pair[1] = sem.method
			}
			r.getterSetterOf[rid] = pair
		case metadatareader.KindEvent:
			rid := sem.association.RID()
			pair := r.adderRemoverOf[rid]
			if sem.semantics&semanticsAddOn != 0 {
				pair[0] = sem.method
			}
			if sem.semantics&semanticsRemoveOn != 0 {
				pair[1] = sem.method
			}
			r.adderRemoverOf[rid] = pair
		}
	}
}

func handleRange(kind metadatareader.HandleKind, start, end uint32) []metadatareader.Handle {
	if start == 0 || end <= start {
		return nil
	}
	out := make([]metadatareader.Handle, 0, end-start)
	for rid := start; rid < end; rid++ {
		out = append(out, metadatareader.NewHandle(kind, rid))
	}
	return out
}

func allHandles(kind metadatareader.HandleKind, n int) []metadatareader.Handle {
	if n <= 0 {
		return nil
	}
	out := make([]metadatareader.Handle, n)
	for i := 1; i <= n; i++ {
		out[i-1] = metadatareader.NewHandle(kind, uint32(i))
	}
	return out
}

func (r *Reader) Assembly() (metadatareader.AssemblyRow, bool) {
	if len(r.tables.assemblies) <= 1 {
		return metadatareader.AssemblyRow{}, false
	}
	return r.tables.assemblies[1], true
}

func (r *Reader) AssemblyName() string { return r.assemblyName }

func (r *Reader) Module() metadatareader.ModuleRow {
	if len(r.tables.modules) <= 1 {
		return metadatareader.ModuleRow{}
	}
	return r.tables.modules[1]
}

func (r *Reader) AssemblyRefs() []metadatareader.Handle {
	return allHandles(metadatareader.KindAssemblyReference, len(r.tables.assemblyRefs)-1)
}
func (r *Reader) AssemblyRef(h metadatareader.Handle) metadatareader.AssemblyRefRow {
	return r.tables.assemblyRefs[h.RID()]
}

func (r *Reader) TypeDefinitions() []metadatareader.Handle {
	return allHandles(metadatareader.KindTypeDefinition, len(r.tables.typeDefs)-1)
}
func (r *Reader) TypeDefinition(h metadatareader.Handle) metadatareader.TypeDefRow {
	return r.tables.typeDefs[h.RID()]
}
func (r *Reader) EnclosingType(typeDef metadatareader.Handle) (metadatareader.Handle, bool) {
	enc, ok := r.enclosingOf[typeDef.RID()]
	return enc, ok
}

func (r *Reader) TypeReference(h metadatareader.Handle) metadatareader.TypeRefRow {
	return r.tables.typeRefs[h.RID()]
}
func (r *Reader) TypeSpecification(h metadatareader.Handle) metadatareader.TypeSpecRow {
	return r.tables.typeSpecs[h.RID()]
}

func (r *Reader) ExportedTypes() []metadatareader.Handle {
	return allHandles(metadatareader.KindExportedType, len(r.tables.exportedTypes)-1)
}
func (r *Reader) ExportedType(h metadatareader.Handle) metadatareader.ExportedTypeRow {
	return r.tables.exportedTypes[h.RID()]
}

func (r *Reader) ManifestResources() []metadatareader.Handle {
	return allHandles(metadatareader.KindManifestResource, len(r.tables.manifestResources)-1)
}
func (r *Reader) ManifestResource(h metadatareader.Handle) metadatareader.ManifestResourceRow {
	return r.tables.manifestResources[h.RID()]
}
func (r *Reader) ResourceBytes(h metadatareader.Handle) ([]byte, error) {
	row := r.ManifestResource(h)
	if !row.Implementation.IsNil() {
		return nil, fmt.Errorf("pereader: resource %q is stored in another file, not supported", r.String(row.Name))
	}
	if int(row.Offset)+4 > len(r.resources) {
		return nil, fmt.Errorf("pereader: resource %q offset out of range", r.String(row.Name))
	}
	c := newCursor(r.resources).at(int(row.Offset))
	size, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("pereader: resource %q: %w", r.String(row.Name), err)
	}
	data, err := c.bytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("pereader: resource %q: %w", r.String(row.Name), err)
	}
	return data, nil
}

func (r *Reader) FieldsOf(typeDef metadatareader.Handle) []metadatareader.Handle {
	return r.fieldsOfType[typeDef.RID()]
}
func (r *Reader) Field(h metadatareader.Handle) metadatareader.FieldRow { return r.tables.fields[h.RID()] }

func (r *Reader) MethodsOf(typeDef metadatareader.Handle) []metadatareader.Handle {
	return r.methodsOfType[typeDef.RID()]
}
func (r *Reader) MethodDefinition(h metadatareader.Handle) metadatareader.MethodDefRow {
	return r.tables.methodDefs[h.RID()]
}
func (r *Reader) ParamsOf(method metadatareader.Handle) []metadatareader.Handle {
	return r.paramsOfMethod[method.RID()]
}
func (r *Reader) Param(h metadatareader.Handle) metadatareader.ParamRow { return r.tables.params[h.RID()] }

func (r *Reader) PropertiesOf(typeDef metadatareader.Handle) []metadatareader.Handle {
	return r.propertiesOfType[typeDef.RID()]
}
func (r *Reader) Property(h metadatareader.Handle) metadatareader.PropertyRow {
	return r.tables.properties[h.RID()]
}
func (r *Reader) PropertyAccessors(prop metadatareader.Handle) (getter, setter metadatareader.Handle) {
	pair := r.getterSetterOf[prop.RID()]
	return pair[0], pair[1]
}

func (r *Reader) EventsOf(typeDef metadatareader.Handle) []metadatareader.Handle {
	return r.eventsOfType[typeDef.RID()]
}
func (r *Reader) Event(h metadatareader.Handle) metadatareader.EventRow { return r.tables.events[h.RID()] }
func (r *Reader) EventAccessors(evt metadatareader.Handle) (adder, remover metadatareader.Handle) {
	pair := r.adderRemoverOf[evt.RID()]
	return pair[0], pair[1]
}

func (r *Reader) InterfaceImplsOf(typeDef metadatareader.Handle) []metadatareader.Handle {
	return r.interfaceImplsOf[typeDef.RID()]
}
func (r *Reader) InterfaceImpl(h metadatareader.Handle) metadatareader.InterfaceImplRow {
	return r.tables.interfaceImpls[h.RID()]
}

func (r *Reader) GenericParamsOf(owner metadatareader.Handle) []metadatareader.Handle {
	return r.genericParamsOf[owner]
}
func (r *Reader) GenericParam(h metadatareader.Handle) metadatareader.GenericParamRow {
	return r.tables.genericParams[h.RID()]
}
func (r *Reader) GenericParamConstraintsOf(genericParam metadatareader.Handle) []metadatareader.Handle {
	return r.genericConstrOf[genericParam.RID()]
}
func (r *Reader) GenericParamConstraint(h metadatareader.Handle) metadatareader.GenericParamConstraintRow {
	return r.tables.genericParamConstraints[h.RID()]
}

func (r *Reader) CustomAttributesOf(owner metadatareader.Handle) []metadatareader.Handle {
	return r.customAttrsOf[owner]
}
func (r *Reader) CustomAttribute(h metadatareader.Handle) metadatareader.CustomAttributeRow {
	return r.tables.customAttributes[h.RID()]
}

func (r *Reader) MemberRef(h metadatareader.Handle) metadatareader.MemberRefRow {
	return r.tables.memberRefs[h.RID()]
}

func (r *Reader) ConstantOf(owner metadatareader.Handle) (metadatareader.ConstantRow, bool) {
	rid, ok := r.constantOf[owner]
	if !ok {
		return metadatareader.ConstantRow{}, false
	}
	return r.tables.constants[rid], true
}

func (r *Reader) String(h metadatareader.StringHandle) string {
	if h == metadatareader.NilStringHandle {
		return ""
	}
	c := newCursor(r.strings).at(int(h))
	s, err := readNulTerminatedUTF8(c)
	if err != nil {
		return ""
	}
	return s
}

func (r *Reader) Blob(h metadatareader.BlobHandle) []byte {
	if h == metadatareader.NilBlobHandle {
		return nil
	}
	c := newCursor(r.blob).at(int(h))
	length, err := readCompressedUint(c)
	if err != nil {
		return nil
	}
	b, err := c.bytes(int(length))
	if err != nil {
		return nil
	}
	return b
}

// readNulTerminatedUTF8 reads a #Strings heap entry: UTF-8 bytes up to
// the next NUL.
func readNulTerminatedUTF8(c *cursor) (string, error) {
	start := c.pos
	for {
		b, err := c.u8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(c.data[start : c.pos-1]), nil
		}
	}
}

// readCompressedUint decodes an ECMA-335 §II.23.2 compressed unsigned
// integer, the length prefix every #Blob heap entry begins with.
func readCompressedUint(c *cursor) (uint32, error) {
	b0, err := c.u8()
	if err != nil {
		return 0, err
	}
	switch {
	case b0&0x80 == 0:
		return uint32(b0), nil
	case b0&0xC0 == 0x80:
		b1, err := c.u8()
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x3F)<<8 | uint32(b1), nil
	default:
		b1, err := c.u8()
		if err != nil {
			return 0, err
		}
		b2, err := c.u8()
		if err != nil {
			return 0, err
		}
		b3, err := c.u8()
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x1F)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3), nil
	}
}
