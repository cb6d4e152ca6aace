package metadatareader

// Reader is the contract the surface hasher needs from a metadata
// source: typed handles into CLI tables, row accessors for those
// handles, and the two heaps (#Strings, #Blob) whose content the hash
// actually folds in. internal/pereader implements it over a real PE
// image; internal/metadatareader/syntheticreader implements it over an
// in-memory fixture for every other package's tests.
//
// Every accessor below is a pure, side-effect-free lookup: a Reader
// does not mutate in response to being read, and the surface hasher
// never writes through it. Table row order (the iteration order of
// TypeDefinitions, FieldsOf, etc.) is whatever the implementation's
// backing store happens to produce and carries no meaning - it is the
// surface hasher's job to fold these collections through
// fnvhash.CombineSorted wherever row order is a layout artifact.
type Reader interface {
	// Assembly returns the single AssemblyDefinition row, if the image
	// declares one (a netmodule would not; unsupported by this module,
	// but Reader still reports false rather than panicking).
	Assembly() (AssemblyRow, bool)

	// AssemblyName is the simple name of the assembly being hashed,
	// used to match F# signature-resource name suffixes.
	AssemblyName() string

	// Module returns the single ModuleDefinition row (every CLI image
	// has exactly one).
	Module() ModuleRow

	AssemblyRefs() []Handle
	AssemblyRef(h Handle) AssemblyRefRow

	TypeDefinitions() []Handle
	TypeDefinition(h Handle) TypeDefRow
	// EnclosingType returns the containing type of a nested TypeDef,
	// and false if the type is not nested.
	EnclosingType(typeDef Handle) (Handle, bool)

	TypeReference(h Handle) TypeRefRow
	TypeSpecification(h Handle) TypeSpecRow

	ExportedTypes() []Handle
	ExportedType(h Handle) ExportedTypeRow

	ManifestResources() []Handle
	ManifestResource(h Handle) ManifestResourceRow
	// ResourceBytes streams the body of an embedded manifest resource.
	ResourceBytes(h Handle) ([]byte, error)

	FieldsOf(typeDef Handle) []Handle
	Field(h Handle) FieldRow

	MethodsOf(typeDef Handle) []Handle
	MethodDefinition(h Handle) MethodDefRow
	ParamsOf(method Handle) []Handle
	Param(h Handle) ParamRow

	PropertiesOf(typeDef Handle) []Handle
	Property(h Handle) PropertyRow
	// PropertyAccessors returns the getter/setter MethodDefinition
	// handles associated via the MethodSemantics table, NilHandle if
	// absent.
	PropertyAccessors(prop Handle) (getter, setter Handle)

	EventsOf(typeDef Handle) []Handle
	Event(h Handle) EventRow
	// EventAccessors returns the adder/remover MethodDefinition
	// handles, NilHandle if absent.
	EventAccessors(evt Handle) (adder, remover Handle)

	InterfaceImplsOf(typeDef Handle) []Handle
	InterfaceImpl(h Handle) InterfaceImplRow

	// GenericParamsOf returns the generic parameters owned by a TypeDef
	// or MethodDef, in positional order (ECMA-335 requires GenericParam
	// rows for one owner to be contiguous and Number-ascending).
	GenericParamsOf(owner Handle) []Handle
	GenericParam(h Handle) GenericParamRow
	GenericParamConstraintsOf(genericParam Handle) []Handle
	GenericParamConstraint(h Handle) GenericParamConstraintRow

	CustomAttributesOf(owner Handle) []Handle
	CustomAttribute(h Handle) CustomAttributeRow

	MemberRef(h Handle) MemberRefRow

	// ConstantOf returns the Constant row attached to a Field, Param, or
	// Property owner, if any.
	ConstantOf(owner Handle) (ConstantRow, bool)

	String(h StringHandle) string
	Blob(h BlobHandle) []byte
}
