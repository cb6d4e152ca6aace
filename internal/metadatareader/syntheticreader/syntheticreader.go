// Package syntheticreader is an in-memory metadatareader.Reader fixture
// builder. The surface hasher's unit tests run against it rather than
// against real compiler output, so a test can state exactly which rows
// exist without invoking a C# compiler; the compiler-backed suite in
// internal/testing/fixtures covers the real-output path.
package syntheticreader

import (
	"fmt"

	"github.com/standardbeagle/asmsurface/internal/metadatareader"
)

type mr = metadatareader.Handle

// Builder accumulates rows for one synthetic assembly image.
type Builder struct {
	strings []string // index 0 is the empty string, handle == index
	blobs   [][]byte // index 0 is nil/absent, handle == index

	assembly    *metadatareader.AssemblyRow
	assemblyName string
	module      metadatareader.ModuleRow

	assemblyRefs []metadatareader.AssemblyRefRow

	typeDefs        []metadatareader.TypeDefRow
	enclosingType   map[uint32]mr // typeDef RID -> enclosing TypeDef handle
	fieldsOfType    map[uint32][]mr
	methodsOfType   map[uint32][]mr
	propsOfType     map[uint32][]mr
	eventsOfType    map[uint32][]mr
	ifaceImplsOfType map[uint32][]mr

	typeRefs  []metadatareader.TypeRefRow
	typeSpecs []metadatareader.TypeSpecRow

	fields  []metadatareader.FieldRow
	methods []metadatareader.MethodDefRow
	params  map[uint32][]metadatareader.ParamRow // method RID -> params (Sequence-ordered as appended)

	props        []metadatareader.PropertyRow
	propAccessor map[uint32][2]mr // property RID -> [getter, setter]
	events       []metadatareader.EventRow
	eventAccessor map[uint32][2]mr // event RID -> [adder, remover]

	ifaceImpls []metadatareader.InterfaceImplRow

	genericParams       []metadatareader.GenericParamRow
	genericParamsOfOwner map[uint32][]mr // owner packed key -> ordered generic param handles
	gpConstraints        []metadatareader.GenericParamConstraintRow
	gpConstraintsOf       map[uint32][]mr

	customAttrs     []metadatareader.CustomAttributeRow
	customAttrsOf   map[uint32][]mr // owner packed key -> attribute handles

	memberRefs []metadatareader.MemberRefRow

	constants   []metadatareader.ConstantRow
	constantOf  map[uint32]int // owner packed key -> index into constants (1-based stored as idx+1, 0 = absent)

	exportedTypes []metadatareader.ExportedTypeRow

	resources     []metadatareader.ManifestResourceRow
	resourceBytes map[uint32][]byte
}

// New creates an empty builder. The assembly name is recorded up front
// since several rows (the F# resource-name suffix check) need it.
func New(assemblyName string) *Builder {
	b := &Builder{
		strings:      []string{""},
		blobs:        [][]byte{nil},
		assemblyName: assemblyName,
		enclosingType:   map[uint32]mr{},
		fieldsOfType:    map[uint32][]mr{},
		methodsOfType:   map[uint32][]mr{},
		propsOfType:     map[uint32][]mr{},
		eventsOfType:    map[uint32][]mr{},
		ifaceImplsOfType: map[uint32][]mr{},
		params:          map[uint32][]metadatareader.ParamRow{},
		propAccessor:    map[uint32][2]mr{},
		eventAccessor:   map[uint32][2]mr{},
		genericParamsOfOwner: map[uint32][]mr{},
		gpConstraintsOf: map[uint32][]mr{},
		customAttrsOf:   map[uint32][]mr{},
		constantOf:      map[uint32]int{},
		resourceBytes:   map[uint32][]byte{},
	}
	b.assembly = &metadatareader.AssemblyRow{Name: b.Str(assemblyName)}
	b.module = metadatareader.ModuleRow{Name: b.Str(assemblyName)}
	return b
}

func ownerKey(h mr) uint32 { return uint32(h) }

// Str interns s into the #Strings heap and returns its handle.
func (b *Builder) Str(s string) metadatareader.StringHandle {
	if s == "" {
		return metadatareader.NilStringHandle
	}
	for i, existing := range b.strings {
		if existing == s {
			return metadatareader.StringHandle(i)
		}
	}
	b.strings = append(b.strings, s)
	return metadatareader.StringHandle(len(b.strings) - 1)
}

// Blob interns raw bytes into the #Blob heap and returns its handle.
// Unlike Str, identical byte slices are NOT deduplicated - signature
// blobs with the same bytes but different provenance are common and
// deduplication would hide handle-identity bugs in tests.
func (b *Builder) Blob(raw []byte) metadatareader.BlobHandle {
	if raw == nil {
		return metadatareader.NilBlobHandle
	}
	b.blobs = append(b.blobs, raw)
	return metadatareader.BlobHandle(len(b.blobs) - 1)
}

// SetAssembly overwrites the synthesized AssemblyDefinition row's
// culture and public key (name is fixed at New time; version stays 0).
func (b *Builder) SetAssembly(culture string, publicKey []byte) {
	b.assembly.Culture = b.Str(culture)
	b.assembly.PublicKey = b.Blob(publicKey)
}

func (b *Builder) AddAssemblyRef(name, culture string, major, minor, build, revision uint16, publicKeyOrToken []byte) mr {
	b.assemblyRefs = append(b.assemblyRefs, metadatareader.AssemblyRefRow{
		MajorVersion: major, MinorVersion: minor, BuildNumber: build, RevisionNumber: revision,
		Name: b.Str(name), Culture: b.Str(culture), PublicKeyOrToken: b.Blob(publicKeyOrToken),
	})
	return metadatareader.NewHandle(metadatareader.KindAssemblyReference, uint32(len(b.assemblyRefs)))
}

// AddTypeDef adds a TypeDef row and returns its handle. extends is the
// base-type TypeDefOrRef handle (NilHandle for System.Object/interfaces).
func (b *Builder) AddTypeDef(namespace, name string, flags metadatareader.TypeAttributes, extends mr) mr {
	b.typeDefs = append(b.typeDefs, metadatareader.TypeDefRow{
		Flags: flags, Name: b.Str(name), Namespace: b.Str(namespace), Extends: extends,
	})
	return metadatareader.NewHandle(metadatareader.KindTypeDefinition, uint32(len(b.typeDefs)))
}

func (b *Builder) SetNested(nested, enclosing mr) {
	b.enclosingType[nested.RID()] = enclosing
}

func (b *Builder) AddTypeRef(scope mr, namespace, name string) mr {
	b.typeRefs = append(b.typeRefs, metadatareader.TypeRefRow{ResolutionScope: scope, Name: b.Str(name), Namespace: b.Str(namespace)})
	return metadatareader.NewHandle(metadatareader.KindTypeReference, uint32(len(b.typeRefs)))
}

func (b *Builder) AddTypeSpec(signature []byte) mr {
	b.typeSpecs = append(b.typeSpecs, metadatareader.TypeSpecRow{Signature: b.Blob(signature)})
	return metadatareader.NewHandle(metadatareader.KindTypeSpecification, uint32(len(b.typeSpecs)))
}

func (b *Builder) AddField(typeDef mr, name string, flags metadatareader.FieldAttributes, access metadatareader.MemberAccessMask, signature []byte) mr {
	b.fields = append(b.fields, metadatareader.FieldRow{Flags: flags, Access: access, Name: b.Str(name), Signature: b.Blob(signature)})
	h := metadatareader.NewHandle(metadatareader.KindField, uint32(len(b.fields)))
	b.fieldsOfType[typeDef.RID()] = append(b.fieldsOfType[typeDef.RID()], h)
	return h
}

func (b *Builder) AddMethod(typeDef mr, name string, flags metadatareader.MethodAttributes, access metadatareader.MemberAccessMask, signature []byte) mr {
	b.methods = append(b.methods, metadatareader.MethodDefRow{Flags: flags, Access: access, Name: b.Str(name), Signature: b.Blob(signature)})
	h := metadatareader.NewHandle(metadatareader.KindMethodDefinition, uint32(len(b.methods)))
	b.methodsOfType[typeDef.RID()] = append(b.methodsOfType[typeDef.RID()], h)
	return h
}

func (b *Builder) AddParam(method mr, name string, sequence uint16, flags metadatareader.ParamAttributes) {
	b.params[method.RID()] = append(b.params[method.RID()], metadatareader.ParamRow{Name: b.Str(name), Sequence: sequence, Flags: flags})
}

func (b *Builder) AddProperty(typeDef mr, name string, signature []byte, getter, setter mr) mr {
	b.props = append(b.props, metadatareader.PropertyRow{Name: b.Str(name), Signature: b.Blob(signature)})
	h := metadatareader.NewHandle(metadatareader.KindProperty, uint32(len(b.props)))
	b.propsOfType[typeDef.RID()] = append(b.propsOfType[typeDef.RID()], h)
	b.propAccessor[h.RID()] = [2]mr{getter, setter}
	return h
}

func (b *Builder) AddEvent(typeDef mr, name string, eventType mr, adder, remover mr) mr {
	b.events = append(b.events, metadatareader.EventRow{Name: b.Str(name), EventType: eventType})
	h := metadatareader.NewHandle(metadatareader.KindEvent, uint32(len(b.events)))
	b.eventsOfType[typeDef.RID()] = append(b.eventsOfType[typeDef.RID()], h)
	b.eventAccessor[h.RID()] = [2]mr{adder, remover}
	return h
}

func (b *Builder) AddInterfaceImpl(typeDef, iface mr) mr {
	b.ifaceImpls = append(b.ifaceImpls, metadatareader.InterfaceImplRow{Class: typeDef, Interface: iface})
	h := metadatareader.NewHandle(metadatareader.KindInterfaceImplementation, uint32(len(b.ifaceImpls)))
	b.ifaceImplsOfType[typeDef.RID()] = append(b.ifaceImplsOfType[typeDef.RID()], h)
	return h
}

func (b *Builder) AddGenericParam(owner mr, number uint16, flags metadatareader.GenericParamAttributes, name string) mr {
	b.genericParams = append(b.genericParams, metadatareader.GenericParamRow{Number: number, Flags: flags, Owner: owner, Name: b.Str(name)})
	h := metadatareader.NewHandle(metadatareader.KindGenericParameter, uint32(len(b.genericParams)))
	b.genericParamsOfOwner[ownerKey(owner)] = append(b.genericParamsOfOwner[ownerKey(owner)], h)
	return h
}

func (b *Builder) AddGenericParamConstraint(genParam, constraint mr) mr {
	b.gpConstraints = append(b.gpConstraints, metadatareader.GenericParamConstraintRow{Owner: genParam, Constraint: constraint})
	h := metadatareader.NewHandle(metadatareader.KindGenericParameterConstraint, uint32(len(b.gpConstraints)))
	b.gpConstraintsOf[ownerKey(genParam)] = append(b.gpConstraintsOf[ownerKey(genParam)], h)
	return h
}

func (b *Builder) AddCustomAttribute(owner, ctor mr, value []byte) mr {
	b.customAttrs = append(b.customAttrs, metadatareader.CustomAttributeRow{Parent: owner, Constructor: ctor, Value: b.Blob(value)})
	h := metadatareader.NewHandle(metadatareader.KindCustomAttribute, uint32(len(b.customAttrs)))
	b.customAttrsOf[ownerKey(owner)] = append(b.customAttrsOf[ownerKey(owner)], h)
	return h
}

func (b *Builder) AddMemberRef(parent mr, name string, signature []byte) mr {
	b.memberRefs = append(b.memberRefs, metadatareader.MemberRefRow{Parent: parent, Name: b.Str(name), Signature: b.Blob(signature)})
	return metadatareader.NewHandle(metadatareader.KindMemberReference, uint32(len(b.memberRefs)))
}

func (b *Builder) AddConstant(owner mr, elemType metadatareader.ElementType, value []byte) {
	b.constants = append(b.constants, metadatareader.ConstantRow{Type: elemType, Parent: owner, Value: b.Blob(value)})
	b.constantOf[ownerKey(owner)] = len(b.constants)
}

func (b *Builder) AddExportedType(namespace, name string, flags metadatareader.TypeAttributes, implementation mr) mr {
	b.exportedTypes = append(b.exportedTypes, metadatareader.ExportedTypeRow{Flags: flags, Name: b.Str(name), Namespace: b.Str(namespace), Implementation: implementation})
	return metadatareader.NewHandle(metadatareader.KindExportedType, uint32(len(b.exportedTypes)))
}

func (b *Builder) AddManifestResource(name string, flags metadatareader.ManifestResourceAttributes, data []byte) mr {
	b.resources = append(b.resources, metadatareader.ManifestResourceRow{Name: b.Str(name), Flags: flags})
	h := metadatareader.NewHandle(metadatareader.KindManifestResource, uint32(len(b.resources)))
	b.resourceBytes[h.RID()] = data
	return h
}

// Build finalizes the builder into an immutable Reader.
func (b *Builder) Build() metadatareader.Reader {
	return &reader{b: b}
}

// reader adapts Builder's accumulated slices/maps to metadatareader.Reader.
type reader struct{ b *Builder }

func (r *reader) Assembly() (metadatareader.AssemblyRow, bool) {
	if r.b.assembly == nil {
		return metadatareader.AssemblyRow{}, false
	}
	return *r.b.assembly, true
}

func (r *reader) AssemblyName() string { return r.b.assemblyName }
func (r *reader) Module() metadatareader.ModuleRow { return r.b.module }

func (r *reader) AssemblyRefs() []mr {
	out := make([]mr, len(r.b.assemblyRefs))
	for i := range r.b.assemblyRefs {
		out[i] = metadatareader.NewHandle(metadatareader.KindAssemblyReference, uint32(i+1))
	}
	return out
}

func (r *reader) AssemblyRef(h mr) metadatareader.AssemblyRefRow {
	return r.b.assemblyRefs[h.RID()-1]
}

func (r *reader) TypeDefinitions() []mr {
	out := make([]mr, len(r.b.typeDefs))
	for i := range r.b.typeDefs {
		out[i] = metadatareader.NewHandle(metadatareader.KindTypeDefinition, uint32(i+1))
	}
	return out
}

func (r *reader) TypeDefinition(h mr) metadatareader.TypeDefRow { return r.b.typeDefs[h.RID()-1] }

func (r *reader) EnclosingType(typeDef mr) (mr, bool) {
	enc, ok := r.b.enclosingType[typeDef.RID()]
	return enc, ok
}

func (r *reader) TypeReference(h mr) metadatareader.TypeRefRow { return r.b.typeRefs[h.RID()-1] }
func (r *reader) TypeSpecification(h mr) metadatareader.TypeSpecRow { return r.b.typeSpecs[h.RID()-1] }

func (r *reader) ExportedTypes() []mr {
	out := make([]mr, len(r.b.exportedTypes))
	for i := range r.b.exportedTypes {
		out[i] = metadatareader.NewHandle(metadatareader.KindExportedType, uint32(i+1))
	}
	return out
}
func (r *reader) ExportedType(h mr) metadatareader.ExportedTypeRow { return r.b.exportedTypes[h.RID()-1] }

func (r *reader) ManifestResources() []mr {
	out := make([]mr, len(r.b.resources))
	for i := range r.b.resources {
		out[i] = metadatareader.NewHandle(metadatareader.KindManifestResource, uint32(i+1))
	}
	return out
}
func (r *reader) ManifestResource(h mr) metadatareader.ManifestResourceRow { return r.b.resources[h.RID()-1] }
func (r *reader) ResourceBytes(h mr) ([]byte, error) {
	data, ok := r.b.resourceBytes[h.RID()]
	if !ok {
		return nil, fmt.Errorf("syntheticreader: no bytes registered for resource %v", h)
	}
	return data, nil
}

func (r *reader) FieldsOf(typeDef mr) []mr  { return r.b.fieldsOfType[typeDef.RID()] }
func (r *reader) Field(h mr) metadatareader.FieldRow { return r.b.fields[h.RID()-1] }

func (r *reader) MethodsOf(typeDef mr) []mr { return r.b.methodsOfType[typeDef.RID()] }
func (r *reader) MethodDefinition(h mr) metadatareader.MethodDefRow { return r.b.methods[h.RID()-1] }
func (r *reader) ParamsOf(method mr) []mr {
	rows := r.b.params[method.RID()]
	out := make([]mr, len(rows))
	for i := range rows {
		// Params are identified by (method, sequence) in real metadata;
		// the synthetic reader instead packs the method RID (shifted left
		// 12 bits) and the param's 1-based position into the handle's
		// RID, and Param() unpacks the two again.
		out[i] = metadatareader.NewHandle(metadatareader.KindParameter, uint32(method.RID())<<12|uint32(i+1))
	}
	return out
}
func (r *reader) Param(h mr) metadatareader.ParamRow {
	rid := h.RID()
	methodRID := rid >> 12
	idx := (rid & 0xFFF) - 1
	return r.b.params[methodRID][idx]
}

func (r *reader) PropertiesOf(typeDef mr) []mr { return r.b.propsOfType[typeDef.RID()] }
func (r *reader) Property(h mr) metadatareader.PropertyRow { return r.b.props[h.RID()-1] }
func (r *reader) PropertyAccessors(prop mr) (mr, mr) {
	acc := r.b.propAccessor[prop.RID()]
	return acc[0], acc[1]
}

func (r *reader) EventsOf(typeDef mr) []mr { return r.b.eventsOfType[typeDef.RID()] }
func (r *reader) Event(h mr) metadatareader.EventRow { return r.b.events[h.RID()-1] }
func (r *reader) EventAccessors(evt mr) (mr, mr) {
	acc := r.b.eventAccessor[evt.RID()]
	return acc[0], acc[1]
}

func (r *reader) InterfaceImplsOf(typeDef mr) []mr { return r.b.ifaceImplsOfType[typeDef.RID()] }
func (r *reader) InterfaceImpl(h mr) metadatareader.InterfaceImplRow { return r.b.ifaceImpls[h.RID()-1] }

func (r *reader) GenericParamsOf(owner mr) []mr { return r.b.genericParamsOfOwner[ownerKey(owner)] }
func (r *reader) GenericParam(h mr) metadatareader.GenericParamRow { return r.b.genericParams[h.RID()-1] }
func (r *reader) GenericParamConstraintsOf(genParam mr) []mr { return r.b.gpConstraintsOf[ownerKey(genParam)] }
func (r *reader) GenericParamConstraint(h mr) metadatareader.GenericParamConstraintRow {
	return r.b.gpConstraints[h.RID()-1]
}

func (r *reader) CustomAttributesOf(owner mr) []mr { return r.b.customAttrsOf[ownerKey(owner)] }
func (r *reader) CustomAttribute(h mr) metadatareader.CustomAttributeRow { return r.b.customAttrs[h.RID()-1] }

func (r *reader) MemberRef(h mr) metadatareader.MemberRefRow { return r.b.memberRefs[h.RID()-1] }

func (r *reader) ConstantOf(owner mr) (metadatareader.ConstantRow, bool) {
	idx, ok := r.b.constantOf[ownerKey(owner)]
	if !ok {
		return metadatareader.ConstantRow{}, false
	}
	return r.b.constants[idx-1], true
}

func (r *reader) String(h metadatareader.StringHandle) string {
	if int(h) >= len(r.b.strings) {
		return ""
	}
	return r.b.strings[h]
}

func (r *reader) Blob(h metadatareader.BlobHandle) []byte {
	if int(h) >= len(r.b.blobs) {
		return nil
	}
	return r.b.blobs[h]
}
