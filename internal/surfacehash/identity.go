package surfacehash

// Identity ("usage") hashes: the projections of a handle that capture
// what it refers to - FQN plus resolution scope for types, name plus
// signature for members - independent of the declaring type's own
// surface (visibility, members). These are what a signature blob folds
// in wherever it names another type, and what a custom attribute's
// constructor reference folds in for attribute identity.

import (
	"github.com/standardbeagle/asmsurface/internal/fnvhash"
	"github.com/standardbeagle/asmsurface/internal/metadatareader"
	"github.com/standardbeagle/asmsurface/internal/sigdecode"
)

// usageResolver is the sigdecode.TypeResolver used for ordinary
// signature decoding (field/method/property/type-spec signatures that
// feed surface and entity-identity hashes). It resolves a referenced
// type to its identity hash.
type usageResolver struct{ h *Hasher }

func (r usageResolver) HashTypeDefinition(t metadatareader.Handle) uint64 { return r.h.typeDefUsageHash(t) }
func (r usageResolver) HashTypeReference(t metadatareader.Handle) uint64  { return r.h.typeRefUsageHash(t) }

var _ sigdecode.TypeResolver = usageResolver{}

// structFieldResolver is the sigdecode.TypeResolver used only while
// computing a value type's struct-layout hash: a TypeDef
// target recurses into its own struct-field hash rather than its usage
// hash, so that e.g. changing a private field's *type* inside a struct
// chain is visible even though the inner type's usage hash alone would
// not capture its layout. A TypeRef target (an external assembly's
// type) still resolves to its ordinary usage hash, since this module
// has no way to inspect an external type's field layout.
type structFieldResolver struct{ h *Hasher }

func (r structFieldResolver) HashTypeDefinition(t metadatareader.Handle) uint64 { return r.h.structFieldHash(t) }
func (r structFieldResolver) HashTypeReference(t metadatareader.Handle) uint64  { return r.h.typeRefUsageHash(t) }

var _ sigdecode.TypeResolver = structFieldResolver{}

// entityUsageHash dispatches to the right identity hash for any handle
// kind that can appear as a TypeDefOrRef, MemberRefParent, or
// CustomAttributeType target. NilHandle (e.g. the Extends column of an
// interface or of System.Object) folds to the FNV offset basis, the same neutral value
// every other "absent" projection in this module uses.
func (h *Hasher) entityUsageHash(e handle) uint64 {
	if e.IsNil() {
		return fnvhash.Offset
	}
	switch e.Kind() {
	case metadatareader.KindAssemblyReference:
		return h.assemblyRefUsageHash(e)
	case metadatareader.KindTypeReference:
		return h.typeRefUsageHash(e)
	case metadatareader.KindTypeDefinition:
		return h.typeDefUsageHash(e)
	case metadatareader.KindTypeSpecification:
		return h.typeSpecUsageHash(e)
	case metadatareader.KindMemberReference:
		return h.memberRefUsageHash(e)
	case metadatareader.KindMethodDefinition:
		return h.methodDefUsageHash(e)
	default:
		return fnvhash.Offset
	}
}

// assemblyRefUsageHash is combine(name, version, culture, public-key-or-
// token), version itself folded as combine(major, minor, revision,
// build).
func (h *Hasher) assemblyRefUsageHash(a handle) uint64 {
	return h.entities.GetOrCompute(a, func() uint64 {
		row := h.reader.AssemblyRef(a)
		nameHash := h.stringHash(row.Name)
		versionHash := fnvhash.Combine4(uint64(row.MajorVersion), uint64(row.MinorVersion), uint64(row.RevisionNumber), uint64(row.BuildNumber))
		cultureHash := h.stringHash(row.Culture)
		keyHash := fnvhash.FromBlob(h.reader.Blob(row.PublicKeyOrToken))
		return fnvhash.Combine4(nameHash, versionHash, cultureHash, keyHash)
	})
}

// typeRefUsageHash is combine(resolution_scope_hash, namespace_hash,
// name_hash) when the resolution scope is an AssemblyRef or a nested
// TypeRef, and plain combine(namespace_hash, name_hash) for a Module,
// ModuleRef, or absent scope. As a side effect of reading this type's
// namespace/name, it is classified
// against the well-known registry: the first sighting of
// System.Runtime.CompilerServices.CompilerGeneratedAttribute or
// System.ValueType, wherever it occurs, is what populates the registry.
func (h *Hasher) typeRefUsageHash(t handle) uint64 {
	return h.entities.GetOrCompute(t, func() uint64 {
		row := h.reader.TypeReference(t)
		namespace := h.reader.String(row.Namespace)
		name := h.reader.String(row.Name)
		nsHash := h.stringHash(row.Namespace)
		nameHash := h.stringHash(row.Name)
		h.wk.Classify(t, nsHash, nameHash, namespace, name)

		switch row.ResolutionScope.Kind() {
		case metadatareader.KindAssemblyReference:
			scopeHash := h.assemblyRefUsageHash(row.ResolutionScope)
			return fnvhash.Combine3(scopeHash, nsHash, nameHash)
		case metadatareader.KindTypeReference:
			scopeHash := h.typeRefUsageHash(row.ResolutionScope)
			return fnvhash.Combine3(scopeHash, nsHash, nameHash)
		default:
			return fnvhash.Combine2(nsHash, nameHash)
		}
	})
}

// typeDefUsageHash is combine(namespace_hash, name_hash) - identity
// only, deliberately omitting visibility and members: usage captures
// what a reference points at, not what the target looks like inside.
// Also classifies against the
// well-known registry, the same as typeRefUsageHash, since a type's own
// assembly can define System.Runtime.CompilerServices attributes or
// System.ValueType itself (as mscorlib/System.Private.CoreLib does).
func (h *Hasher) typeDefUsageHash(t handle) uint64 {
	return h.entities.GetOrCompute(t, func() uint64 {
		row := h.reader.TypeDefinition(t)
		namespace := h.reader.String(row.Namespace)
		name := h.reader.String(row.Name)
		nsHash := h.stringHash(row.Namespace)
		nameHash := h.stringHash(row.Name)
		h.wk.Classify(t, nsHash, nameHash, namespace, name)
		return fnvhash.Combine2(nsHash, nameHash)
	})
}

// typeSpecUsageHash is combine(signature_hash, custom_attributes_hash).
func (h *Hasher) typeSpecUsageHash(t handle) uint64 {
	return h.entities.GetOrCompute(t, func() uint64 {
		row := h.reader.TypeSpecification(t)
		sigHash, err := h.usageSigDecoder.TypeSpecSignature(h.reader.Blob(row.Signature))
		if err != nil {
			h.fail("sigdecode", err)
			return fnvhash.Offset
		}
		return fnvhash.Combine2(sigHash, h.customAttributesHash(t))
	})
}

// isFieldSignatureBlob reports whether blob's calling-convention nibble
// is the FIELD tag (ECMA-335 §II.23.2.4), distinguishing a MemberRef
// that names a field from one that names a method - MemberRef rows
// don't otherwise say which table kind their Parent belongs to.
func isFieldSignatureBlob(blob []byte) bool {
	return len(blob) > 0 && metadatareader.SignatureHeader(blob[0])&metadatareader.SigCallConvMask == metadatareader.SigField
}

// memberRefUsageHash is combine(name, signature, generic_parameter_count,
// custom_attributes) for a method MemberRef, and the field-shaped analog
// (no generic-parameter-count term - fields can't be generic) for a
// field MemberRef.
func (h *Hasher) memberRefUsageHash(m handle) uint64 {
	return h.entities.GetOrCompute(m, func() uint64 {
		row := h.reader.MemberRef(m)
		nameHash := h.stringHash(row.Name)
		blob := h.reader.Blob(row.Signature)
		attrsHash := h.customAttributesHash(m)

		if isFieldSignatureBlob(blob) {
			sigHash, err := h.usageSigDecoder.FieldSignature(blob)
			if err != nil {
				h.fail("sigdecode", err)
				return fnvhash.Offset
			}
			return fnvhash.Combine3(nameHash, sigHash, attrsHash)
		}

		sigHash, genParamCount, err := h.usageSigDecoder.MethodSignature(blob)
		if err != nil {
			h.fail("sigdecode", err)
			return fnvhash.Offset
		}
		return fnvhash.Combine4(nameHash, sigHash, uint64(genParamCount), attrsHash)
	})
}

// methodDefUsageHash is the same shape as a method MemberRef's identity
// hash, used when a CustomAttribute's Constructor column (or any other
// MethodDefOrRef-shaped reference) addresses a MethodDefinition directly
// rather than through a MemberRef - the common case for an attribute
// applied within its own declaring assembly.
func (h *Hasher) methodDefUsageHash(m handle) uint64 {
	return h.entities.GetOrCompute(m, func() uint64 {
		row := h.reader.MethodDefinition(m)
		nameHash := h.stringHash(row.Name)
		sigHash, genParamCount, err := h.usageSigDecoder.MethodSignature(h.reader.Blob(row.Signature))
		if err != nil {
			h.fail("sigdecode", err)
			return fnvhash.Offset
		}
		attrsHash := h.customAttributesHash(m)
		return fnvhash.Combine4(nameHash, sigHash, uint64(genParamCount), attrsHash)
	})
}

// isValueTypeBase reports whether extends names System.ValueType
// directly. Enum types extend System.Enum (which itself extends
// ValueType), so this check naturally excludes them without needing a
// separate enum heuristic - only true struct definitions have
// System.ValueType as their direct base.
func (h *Hasher) isValueTypeBase(extends handle) bool {
	if extends.IsNil() {
		return false
	}
	namespace, name, ok := h.typeNamespaceAndName(extends)
	return ok && namespace == "System" && name == "ValueType"
}
