package surfacehash

// The per-type-definition surface hash, its generic parameter and
// member contributions, and the struct-layout hash that tracks a value
// type's field content independent of (and alongside) the ordinary
// surface.

import (
	"github.com/standardbeagle/asmsurface/internal/fnvhash"
	"github.com/standardbeagle/asmsurface/internal/metadatareader"
	"github.com/standardbeagle/asmsurface/internal/surface"
)

// typeDefinitionSurfaceHash computes the full surface hash for a type
// definition the classifier has already placed in the surface. Each
// typedef is visited exactly once, from the top-level loop in Hash, so
// unlike the identity hashes this needs no memoization of its own.
func (h *Hasher) typeDefinitionSurfaceHash(t handle) uint64 {
	row := h.reader.TypeDefinition(t)

	attrBits := uint64(row.Flags & metadatareader.SurfaceAttributeMask)
	nsHash := h.stringHash(row.Namespace)
	nameHash := h.stringHash(row.Name)
	identityHash := fnvhash.Combine3(attrBits, nsHash, nameHash)

	genParamsHash := h.genericParametersHash(t)

	baseHash := h.entityUsageHash(row.Extends)
	ifaceHash := fnvhash.CombineSorted(h.interfaceImplHashes(t))
	superHash := fnvhash.Combine2(baseHash, ifaceHash)

	var containingHash uint64
	if enclosing, ok := h.reader.EnclosingType(t); ok {
		containingHash = h.typeDefUsageHash(enclosing)
	} else {
		containingHash = fnvhash.Offset
	}

	memberSetHash := fnvhash.CombineSorted(h.memberHashes(t))

	var structHash uint64
	if h.isValueTypeBase(row.Extends) {
		structHash = h.structFieldHash(t)
	} else {
		structHash = fnvhash.Offset
	}

	attrsHash := h.customAttributesHash(t)

	return fnvhash.Combine5(
		identityHash,
		genParamsHash,
		fnvhash.Combine2(superHash, containingHash),
		fnvhash.Combine2(memberSetHash, structHash),
		attrsHash,
	)
}

// interfaceImplHashes computes one hash per
// InterfaceImplementation row: combine(interface_usage_hash,
// interface_impl_custom_attributes_hash). An entry whose Interface
// column addresses a TypeDefinition that the classifier excludes from
// the surface (an internal interface, with internals not visible to
// any consumer) is skipped entirely rather than contributing a hash -
// a consumer compiler would never see that interface listed either.
func (h *Hasher) interfaceImplHashes(t handle) []uint64 {
	impls := h.reader.InterfaceImplsOf(t)
	if len(impls) == 0 {
		return nil
	}
	hashes := make([]uint64, 0, len(impls))
	for _, impl := range impls {
		row := h.reader.InterfaceImpl(impl)
		if row.Interface.Kind() == metadatareader.KindTypeDefinition &&
			!surface.TypeDefinitionInSurface(h.reader, row.Interface, h.internalsVisible) {
			continue
		}
		ifaceHash := h.entityUsageHash(row.Interface)
		attrsHash := h.customAttributesHash(impl)
		hashes = append(hashes, fnvhash.Combine2(ifaceHash, attrsHash))
	}
	return hashes
}

// genericParametersHash folds a TypeDef or MethodDef owner's generic
// parameters: one hash per parameter (index, attribute bits, sorted
// constraint set, own custom attributes), with the resulting per-
// parameter hashes themselves sorted before the outer fold. The sort is
// deliberate: it makes C<T,U> and C<U,T> hash identically, since
// external usage always rebinds type-parameter names anyway.
func (h *Hasher) genericParametersHash(owner handle) uint64 {
	params := h.reader.GenericParamsOf(owner)
	if len(params) == 0 {
		return fnvhash.Offset
	}
	perParam := make([]uint64, len(params))
	for i, gp := range params {
		row := h.reader.GenericParam(gp)
		idx := uint64(row.Number)
		flags := uint64(row.Flags)
		constraints := fnvhash.CombineSorted(h.genericParamConstraintHashes(gp))
		attrs := h.customAttributesHash(gp)
		perParam[i] = fnvhash.Combine4(idx, flags, constraints, attrs)
	}
	return fnvhash.CombineSorted(perParam)
}

func (h *Hasher) genericParamConstraintHashes(gp handle) []uint64 {
	constraints := h.reader.GenericParamConstraintsOf(gp)
	if len(constraints) == 0 {
		return nil
	}
	hashes := make([]uint64, len(constraints))
	for i, c := range constraints {
		row := h.reader.GenericParamConstraint(c)
		typeHash := h.entityUsageHash(row.Constraint)
		attrsHash := h.customAttributesHash(c)
		hashes[i] = fnvhash.Combine2(typeHash, attrsHash)
	}
	return hashes
}

// memberHashes computes one hash per in-surface field
// and method, plus one per property/event whose getter/setter (adder/
// remover) is among this type's own in-surface, SpecialName,
// non-constructor methods - the "api-surface accessor" set built while
// processing methods, scoped to one type definition since
// a property can only be linked to accessors declared on the same type.
// The returned slice is folded via fnvhash.CombineSorted by the caller.
func (h *Hasher) memberHashes(t handle) []uint64 {
	var hashes []uint64
	accessors := map[handle]bool{}

	for _, f := range h.reader.FieldsOf(t) {
		row := h.reader.Field(f)
		if !surface.MemberVisible(row.Access, h.internalsVisible) {
			continue
		}
		hashes = append(hashes, h.fieldMemberHash(f, row))
	}

	for _, m := range h.reader.MethodsOf(t) {
		row := h.reader.MethodDefinition(m)
		if !surface.MemberVisible(row.Access, h.internalsVisible) {
			continue
		}
		name := h.reader.String(row.Name)
		isCtor := name == ".ctor" || name == ".cctor"
		if row.Flags&metadatareader.MethodSpecialName != 0 && !isCtor {
			accessors[m] = true
		}
		hashes = append(hashes, h.methodMemberHash(m, row))
	}

	for _, p := range h.reader.PropertiesOf(t) {
		getter, setter := h.reader.PropertyAccessors(p)
		if !accessors[getter] && !accessors[setter] {
			continue
		}
		row := h.reader.Property(p)
		hashes = append(hashes, fnvhash.Combine2(h.stringHash(row.Name), h.customAttributesHash(p)))
	}

	for _, e := range h.reader.EventsOf(t) {
		adder, remover := h.reader.EventAccessors(e)
		if !accessors[adder] && !accessors[remover] {
			continue
		}
		row := h.reader.Event(e)
		hashes = append(hashes, fnvhash.Combine2(h.stringHash(row.Name), h.customAttributesHash(e)))
	}

	return hashes
}

func (h *Hasher) fieldMemberHash(f handle, row metadatareader.FieldRow) uint64 {
	nameHash := h.stringHash(row.Name)
	attrBits := uint64(row.Access) | uint64(row.Flags&metadatareader.SurfaceFieldAttributeMask)

	typeHash, err := h.usageSigDecoder.FieldSignature(h.reader.Blob(row.Signature))
	if err != nil {
		h.fail("sigdecode", err)
		typeHash = fnvhash.Offset
	}

	var constHash uint64
	if row.Flags&metadatareader.FieldLiteral != 0 {
		if c, ok := h.reader.ConstantOf(f); ok {
			constHash = fnvhash.Combine2(uint64(c.Type), fnvhash.FromBlob(h.reader.Blob(c.Value)))
		}
	}

	attrsHash := h.customAttributesHash(f)
	return fnvhash.Combine5(nameHash, attrBits, typeHash, constHash, attrsHash)
}

func (h *Hasher) methodMemberHash(m handle, row metadatareader.MethodDefRow) uint64 {
	nameHash := h.stringHash(row.Name)
	attrBits := uint64(row.Access) | uint64(row.Flags&metadatareader.SurfaceMethodAttributeMask)

	genParamsHash := h.genericParametersHash(m)
	paramsHash := fnvhash.CombineSeq(h.paramHashes(m))

	sigHash, _, err := h.usageSigDecoder.MethodSignature(h.reader.Blob(row.Signature))
	if err != nil {
		h.fail("sigdecode", err)
		sigHash = fnvhash.Offset
	}

	attrsHash := h.customAttributesHash(m)

	return fnvhash.Combine5(
		fnvhash.Combine2(nameHash, attrBits),
		genParamsHash,
		paramsHash,
		sigHash,
		attrsHash,
	)
}

// paramHashes returns one hash per Param row in positional order - NOT
// sorted, since parameter position is semantic: combine(sequence, name,
// attribute bits, default-value hash, custom attributes). The Sequence
// column is folded in because a method with a [return: ...] attribute
// carries a sequence-0 pseudo-row for the return value (usually with
// the Retval flag set, though ECMA-335 does not require the bit);
// tagging by sequence keeps that row distinguishable from a formal
// parameter even when the flag is absent.
func (h *Hasher) paramHashes(m handle) []uint64 {
	params := h.reader.ParamsOf(m)
	if len(params) == 0 {
		return nil
	}
	hashes := make([]uint64, len(params))
	for i, p := range params {
		row := h.reader.Param(p)
		nameHash := h.stringHash(row.Name)
		attrBits := uint64(row.Flags)

		var defaultHash uint64
		if row.Flags&metadatareader.ParamHasDefault != 0 {
			if c, ok := h.reader.ConstantOf(p); ok {
				defaultHash = fnvhash.Combine2(uint64(c.Type), fnvhash.FromBlob(h.reader.Blob(c.Value)))
			}
		}

		attrsHash := h.customAttributesHash(p)
		hashes[i] = fnvhash.Combine5(uint64(row.Sequence), nameHash, attrBits, defaultHash, attrsHash)
	}
	return hashes
}

// structFieldHash computes the separate struct-layout projection
// of a type definition: for a value type, the sorted combine of each
// instance (non-static, non-literal) field's type hash, resolved
// through structFieldResolver so a field naming another struct in the
// same assembly recurses into *its* struct-layout hash rather than its
// usage hash. Non-value types delegate to the ordinary usage hash.
//
// A cycle-breaking placeholder is stored before any field is visited
// so a self-referential layout - System.Int32 has an
// Int32-typed instance field in mscorlib - resolves to a stable
// fixpoint on the recursive reference instead of looping forever.
func (h *Hasher) structFieldHash(t handle) uint64 {
	if v, ok := h.structFields.Get(t); ok {
		return v
	}

	row := h.reader.TypeDefinition(t)
	if !h.isValueTypeBase(row.Extends) {
		v := h.typeDefUsageHash(t)
		h.structFields.Store(t, v)
		return v
	}

	h.structFields.BreakCycle(t)

	var fieldHashes []uint64
	for _, f := range h.reader.FieldsOf(t) {
		frow := h.reader.Field(f)
		if frow.Flags&(metadatareader.FieldStatic|metadatareader.FieldLiteral) != 0 {
			continue
		}
		typeHash, err := h.structFieldSigDecoder.FieldSignature(h.reader.Blob(frow.Signature))
		if err != nil {
			h.fail("sigdecode", err)
			continue
		}
		fieldHashes = append(fieldHashes, typeHash)
	}

	result := fnvhash.CombineSorted(fieldHashes)
	h.structFields.Store(t, result)
	return result
}
