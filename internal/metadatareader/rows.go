package metadatareader

// TypeAttributes holds the ECMA-335 §II.23.1.15 TypeDef flag bits this
// module cares about: visibility, class semantics, and the handful of
// structural bits folded into the type-definition surface hash.
type TypeAttributes uint32

const (
	VisibilityMask      TypeAttributes = 0x00000007
	TypeNotPublic       TypeAttributes = 0x00000000
	TypePublic          TypeAttributes = 0x00000001
	TypeNestedPublic    TypeAttributes = 0x00000002
	TypeNestedPrivate   TypeAttributes = 0x00000003
	TypeNestedFamily    TypeAttributes = 0x00000004
	TypeNestedAssembly  TypeAttributes = 0x00000005
	TypeNestedFamANDAssem TypeAttributes = 0x00000006
	TypeNestedFamORAssem  TypeAttributes = 0x00000007

	ClassSemanticsMask TypeAttributes = 0x00000020
	TypeInterface      TypeAttributes = 0x00000020

	TypeAbstract    TypeAttributes = 0x00000080
	TypeSealed      TypeAttributes = 0x00000100
	TypeSpecialName TypeAttributes = 0x00000400
	TypeRTSpecialName TypeAttributes = 0x00000800
)

// SurfaceAttributeMask is the set of TypeAttributes bits the hasher
// folds into the type-definition surface hash.
const SurfaceAttributeMask = TypeAbstract | TypeSealed | TypeSpecialName | TypeRTSpecialName | ClassSemanticsMask | VisibilityMask

// MemberAccessMask values, ECMA-335 §II.23.1.10, shared by MethodAttributes
// and FieldAttributes.
type MemberAccessMask uint32

const (
	AccessMask        MemberAccessMask = 0x0007
	AccessPrivateScope MemberAccessMask = 0x0000
	AccessPrivate     MemberAccessMask = 0x0001
	AccessFamANDAssem MemberAccessMask = 0x0002
	AccessAssembly    MemberAccessMask = 0x0003
	AccessFamily      MemberAccessMask = 0x0004
	AccessFamORAssem  MemberAccessMask = 0x0005
	AccessPublic      MemberAccessMask = 0x0006
)

// MethodAttributes bits this module folds into the method surface hash,
// ECMA-335 §II.23.1.10.
type MethodAttributes uint32

const (
	MethodStatic     MethodAttributes = 0x0010
	MethodFinal      MethodAttributes = 0x0020
	MethodVirtual    MethodAttributes = 0x0040
	MethodAbstract   MethodAttributes = 0x0400
	MethodSpecialName MethodAttributes = 0x0800
)

// SurfaceMethodAttributeMask is the set of MethodAttributes bits the
// hasher folds into a method's surface hash (access bits via AccessMask,
// folded separately since they share a type with FieldAttributes).
const SurfaceMethodAttributeMask = MethodStatic | MethodAbstract | MethodVirtual | MethodFinal | MethodSpecialName

// FieldAttributes bits this module folds into a field's surface hash,
// ECMA-335 §II.23.1.5.
type FieldAttributes uint32

const (
	FieldStatic     FieldAttributes = 0x0010
	FieldInitOnly   FieldAttributes = 0x0020
	FieldLiteral    FieldAttributes = 0x0040
	FieldSpecialName FieldAttributes = 0x0200
)

const SurfaceFieldAttributeMask = FieldStatic | FieldInitOnly | FieldLiteral | FieldSpecialName

// ParamAttributes bits, ECMA-335 §II.23.1.13.
type ParamAttributes uint16

const (
	ParamIn         ParamAttributes = 0x0001
	ParamOut        ParamAttributes = 0x0002
	ParamRetval     ParamAttributes = 0x0008
	ParamOptional   ParamAttributes = 0x0010
	ParamHasDefault ParamAttributes = 0x1000
)

// GenericParamAttributes bits, ECMA-335 §II.23.1.7.
type GenericParamAttributes uint16

const (
	GenericVarianceMask   GenericParamAttributes = 0x0003
	GenericNonVariant     GenericParamAttributes = 0x0000
	GenericCovariant      GenericParamAttributes = 0x0001
	GenericContravariant  GenericParamAttributes = 0x0002
	GenericSpecialConstraintMask GenericParamAttributes = 0x001C
	GenericReferenceTypeConstraint GenericParamAttributes = 0x0004
	GenericNotNullableValueTypeConstraint GenericParamAttributes = 0x0008
	GenericDefaultConstructorConstraint GenericParamAttributes = 0x0010
)

// ManifestResourceAttributes bits, ECMA-335 §II.23.1.9.
type ManifestResourceAttributes uint32

const (
	ManifestResourcePublic  ManifestResourceAttributes = 0x0001
	ManifestResourcePrivate ManifestResourceAttributes = 0x0002
)

// ElementType is an ECMA-335 §II.23.1.16 signature element-type code.
type ElementType byte

const (
	ElementEnd      ElementType = 0x00
	ElementVoid     ElementType = 0x01
	ElementBoolean  ElementType = 0x02
	ElementChar     ElementType = 0x03
	ElementI1       ElementType = 0x04
	ElementU1       ElementType = 0x05
	ElementI2       ElementType = 0x06
	ElementU2       ElementType = 0x07
	ElementI4       ElementType = 0x08
	ElementU4       ElementType = 0x09
	ElementI8       ElementType = 0x0A
	ElementU8       ElementType = 0x0B
	ElementR4       ElementType = 0x0C
	ElementR8       ElementType = 0x0D
	ElementString   ElementType = 0x0E
	ElementPtr      ElementType = 0x0F
	ElementByRef    ElementType = 0x10
	ElementValueType ElementType = 0x11
	ElementClass    ElementType = 0x12
	ElementVar      ElementType = 0x13 // generic type parameter
	ElementArray    ElementType = 0x14
	ElementGenericInst ElementType = 0x15
	ElementTypedByRef ElementType = 0x16
	ElementI        ElementType = 0x18
	ElementU        ElementType = 0x19
	ElementFnPtr    ElementType = 0x1B
	ElementObject   ElementType = 0x1C
	ElementSZArray  ElementType = 0x1D
	ElementMVar     ElementType = 0x1E // generic method parameter
	ElementCModReqd ElementType = 0x1F
	ElementCModOpt  ElementType = 0x20
	ElementPinned   ElementType = 0x45
	ElementSentinel ElementType = 0x41
)

// SignatureHeader tags the kind of a top-level signature blob, ECMA-335
// §II.23.2.1.
type SignatureHeader byte

const (
	SigDefault        SignatureHeader = 0x00
	SigHasThis        SignatureHeader = 0x20
	SigExplicitThis   SignatureHeader = 0x40
	SigCallConvMask   SignatureHeader = 0x0F
	SigVararg         SignatureHeader = 0x05
	SigGeneric        SignatureHeader = 0x10
	SigField          SignatureHeader = 0x06
	SigProperty       SignatureHeader = 0x08
	SigLocalVar       SignatureHeader = 0x07
)

// TypeDefRow is ECMA-335 §II.22.37.
type TypeDefRow struct {
	Flags     TypeAttributes
	Name      StringHandle
	Namespace StringHandle
	Extends   Handle // TypeDefOrRef coded index, or NilHandle
}

// TypeRefRow is ECMA-335 §II.22.38.
type TypeRefRow struct {
	ResolutionScope Handle // Module/ModuleRef/AssemblyRef/TypeRef coded index
	Name            StringHandle
	Namespace       StringHandle
}

// TypeSpecRow is ECMA-335 §II.22.39.
type TypeSpecRow struct {
	Signature BlobHandle
}

// MethodDefRow is ECMA-335 §II.22.26.
type MethodDefRow struct {
	Flags     MethodAttributes
	Access    MemberAccessMask
	ImplFlags uint16
	Name      StringHandle
	Signature BlobHandle
}

// MemberRefRow is ECMA-335 §II.22.25.
type MemberRefRow struct {
	Parent    Handle // TypeDef/TypeRef/TypeSpec/ModuleRef/MethodDef coded index
	Name      StringHandle
	Signature BlobHandle
}

// FieldRow is ECMA-335 §II.22.15.
type FieldRow struct {
	Flags     FieldAttributes
	Access    MemberAccessMask
	Name      StringHandle
	Signature BlobHandle
}

// ParamRow is ECMA-335 §II.22.33.
type ParamRow struct {
	Flags    ParamAttributes
	Sequence uint16
	Name     StringHandle
}

// PropertyRow is ECMA-335 §II.22.34.
type PropertyRow struct {
	Flags     uint16
	Name      StringHandle
	Signature BlobHandle
}

// EventRow is ECMA-335 §II.22.13.
type EventRow struct {
	Flags     uint16
	Name      StringHandle
	EventType Handle // TypeDefOrRef coded index
}

// GenericParamRow is ECMA-335 §II.22.20.
type GenericParamRow struct {
	Number uint16
	Flags  GenericParamAttributes
	Owner  Handle // TypeDef or MethodDef coded index
	Name   StringHandle
}

// GenericParamConstraintRow is ECMA-335 §II.22.21.
type GenericParamConstraintRow struct {
	Owner      Handle // GenericParam
	Constraint Handle // TypeDefOrRef coded index
}

// InterfaceImplRow is ECMA-335 §II.22.23.
type InterfaceImplRow struct {
	Class     Handle // TypeDef
	Interface Handle // TypeDefOrRef coded index
}

// CustomAttributeRow is ECMA-335 §II.22.10.
type CustomAttributeRow struct {
	Parent      Handle // HasCustomAttribute coded index
	Constructor Handle // MethodDef or MemberRef coded index
	Value       BlobHandle
}

// ConstantRow is ECMA-335 §II.22.9.
type ConstantRow struct {
	Type   ElementType
	Parent Handle // HasConstant coded index: Field, Param, or Property
	Value  BlobHandle
}

// ManifestResourceRow is ECMA-335 §II.22.24.
type ManifestResourceRow struct {
	Offset         uint32
	Flags          ManifestResourceAttributes
	Name           StringHandle
	Implementation Handle // File/AssemblyRef coded index, or NilHandle for a resource embedded in this module
}

// ExportedTypeRow is ECMA-335 §II.22.14.
type ExportedTypeRow struct {
	Flags          TypeAttributes
	TypeDefID      uint32
	Name           StringHandle
	Namespace      StringHandle
	Implementation Handle // File/AssemblyRef/ExportedType coded index
}

// AssemblyRow is ECMA-335 §II.22.2.
type AssemblyRow struct {
	MajorVersion, MinorVersion, BuildNumber, RevisionNumber uint16
	Flags     uint32
	PublicKey BlobHandle
	Name      StringHandle
	Culture   StringHandle
}

// AssemblyRefRow is ECMA-335 §II.22.5.
type AssemblyRefRow struct {
	MajorVersion, MinorVersion, BuildNumber, RevisionNumber uint16
	Flags             uint32
	PublicKeyOrToken  BlobHandle
	Name              StringHandle
	Culture           StringHandle
}

// ModuleRow is ECMA-335 §II.22.30.
type ModuleRow struct {
	Name StringHandle
	Mvid GuidHandle
}
