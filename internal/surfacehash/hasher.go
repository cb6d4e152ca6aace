// Package surfacehash is the top-level orchestrator that walks one
// assembly's metadata and folds its public API surface into a single
// 64-bit hash. It is the component every other package in this module
// ultimately serves: the handle cache memoizes its recursive lookups,
// the signature decoder turns its blobs into hashes, the well-known
// registry and surface classifier gate what it includes, and the
// resource digest folds in non-code content.
package surfacehash

import (
	"errors"

	"github.com/standardbeagle/asmsurface/internal/fnvhash"
	"github.com/standardbeagle/asmsurface/internal/handlecache"
	"github.com/standardbeagle/asmsurface/internal/metadatareader"
	"github.com/standardbeagle/asmsurface/internal/resourcedigest"
	"github.com/standardbeagle/asmsurface/internal/sigdecode"
	"github.com/standardbeagle/asmsurface/internal/surface"
	"github.com/standardbeagle/asmsurface/internal/surfaceerr"
	"github.com/standardbeagle/asmsurface/internal/wellknown"
)

type handle = metadatareader.Handle

// Options controls the hasher's externally visible behavior switches.
type Options struct {
	// IncludeAllAttributes disables the well-known attribute whitelist
	// and folds every custom attribute into the surface hash, including
	// ones the registry would otherwise classify as ignored.
	IncludeAllAttributes bool
}

// Hasher computes the surface hash of one assembly image. It holds all
// per-invocation memoization state and is not safe for concurrent
// use or reuse across images - construct a fresh Hasher per image, the
// same way a single-use io.Reader is not meant to outlive one read
// pass.
type Hasher struct {
	reader  metadatareader.Reader
	options Options

	strings      *handlecache.Cache[metadatareader.StringHandle]
	entities     *handlecache.Cache[handle]
	structFields *handlecache.Cache[handle]
	wk           *wellknown.Registry[handle]

	usageSigDecoder       *sigdecode.Decoder
	structFieldSigDecoder *sigdecode.Decoder

	internalsVisible bool
	methodOwner      map[handle]handle // MethodDefinition -> declaring TypeDefinition

	err error
}

// New creates a Hasher over reader. Construction is cheap; all actual
// work happens in Hash.
func New(reader metadatareader.Reader, options Options) *Hasher {
	h := &Hasher{
		reader:       reader,
		options:      options,
		strings:      handlecache.New[metadatareader.StringHandle](),
		entities:     handlecache.New[handle](),
		structFields: handlecache.New[handle](),
		wk:           wellknown.New[handle](),
		methodOwner:  map[handle]handle{},
	}
	h.usageSigDecoder = sigdecode.New(usageResolver{h})
	h.structFieldSigDecoder = sigdecode.New(structFieldResolver{h})
	return h
}

// assemblyHandle and moduleHandle are the fixed handles addressing the
// single AssemblyDefinition and ModuleDefinition rows every CLI image
// has - RID 1 in each table, per ECMA-335's "exactly one row" rule for
// both.
var (
	assemblyHandle = metadatareader.NewHandle(metadatareader.KindAssemblyDefinition, 1)
	moduleHandle   = metadatareader.NewHandle(metadatareader.KindModuleDefinition, 1)
)

// Hash walks the assembly and returns its surface hash. A malformed
// image produces a *surfaceerr.BadImage error.
func (h *Hasher) Hash() (uint64, error) {
	asmRow, ok := h.reader.Assembly()
	if !ok {
		return 0, surfaceerr.Wrap("surfacehash", errors.New("assembly definition row missing"))
	}

	h.buildMethodOwnerIndex()

	// Step 1: assembly definition hash. Version is deliberately excluded
	// (own-version bumps must not invalidate downstream caches).
	assemblyDefHash := fnvhash.Combine3(
		h.stringHash(asmRow.Name),
		h.stringHash(asmRow.Culture),
		fnvhash.FromBlob(h.reader.Blob(asmRow.PublicKey)),
	)

	// Step 2: internals-visible detection.
	h.internalsVisible = h.detectInternalsVisible()

	// Step 3: assembly and module custom-attribute hashes.
	assemblyAttrsHash := h.customAttributesHash(assemblyHandle)
	moduleAttrsHash := h.customAttributesHash(moduleHandle)

	// Step 4: type definitions.
	var typeHashes []uint64
	for _, td := range h.reader.TypeDefinitions() {
		if !surface.TypeDefinitionInSurface(h.reader, td, h.internalsVisible) {
			continue
		}
		typeHashes = append(typeHashes, h.typeDefinitionSurfaceHash(td))
	}

	// Step 5: exported types.
	var exportedHashes []uint64
	for _, et := range h.reader.ExportedTypes() {
		if !surface.ExportedTypeInSurface(h.reader, et, h.internalsVisible) {
			continue
		}
		exportedHashes = append(exportedHashes, h.exportedTypeHash(et))
	}

	// Step 6: manifest resources.
	var resourceHashes []uint64
	for _, mrHandle := range h.reader.ManifestResources() {
		row := h.reader.ManifestResource(mrHandle)
		name := h.reader.String(row.Name)
		if !surface.ManifestResourceInSurface(row, name, h.reader.AssemblyName()) {
			continue
		}
		data, err := h.reader.ResourceBytes(mrHandle)
		if err != nil {
			h.fail("surfacehash", err)
			continue
		}
		bodyHash := resourcedigest.SurfaceHashBytes(data)
		resourceHashes = append(resourceHashes, fnvhash.Combine2(fnvhash.FromUTF8(name), bodyHash))
	}

	if h.err != nil {
		return 0, h.err
	}

	// Step 7: final combine. The exported-type and resource sets nest
	// one level deeper alongside the type-definition set so the top
	// combine stays within Combine5's fixed arity.
	final := fnvhash.Combine5(
		assemblyDefHash,
		assemblyAttrsHash,
		moduleAttrsHash,
		fnvhash.CombineSorted(typeHashes),
		fnvhash.Combine2(fnvhash.CombineSorted(exportedHashes), fnvhash.CombineSorted(resourceHashes)),
	)
	return final, nil
}

func (h *Hasher) fail(stage string, err error) {
	if h.err == nil && err != nil {
		h.err = surfaceerr.Wrap(stage, err)
	}
}

func (h *Hasher) stringHash(sh metadatareader.StringHandle) uint64 {
	return h.strings.GetOrCompute(sh, func() uint64 {
		return fnvhash.FromUTF8(h.reader.String(sh))
	})
}

// buildMethodOwnerIndex populates methodOwner up front so ctor-parent-type
// lookups (needed as early as internals-visible detection, which runs
// before any type's members are otherwise visited) work regardless of
// which type is processed first.
func (h *Hasher) buildMethodOwnerIndex() {
	for _, td := range h.reader.TypeDefinitions() {
		for _, m := range h.reader.MethodsOf(td) {
			h.methodOwner[m] = td
		}
	}
}

// ctorParentType resolves a CustomAttribute row's Constructor handle
// (MethodDefinition or MemberReference) to the handle of its declaring
// type.
func (h *Hasher) ctorParentType(ctor handle) (handle, bool) {
	switch ctor.Kind() {
	case metadatareader.KindMemberReference:
		return h.reader.MemberRef(ctor).Parent, true
	case metadatareader.KindMethodDefinition:
		owner, ok := h.methodOwner[ctor]
		return owner, ok
	default:
		return metadatareader.NilHandle, false
	}
}

// typeNamespaceAndName reads the namespace/name strings directly off a
// TypeDefinition or TypeReference row, bypassing the memoized usage
// hash and the well-known registry entirely. detectInternalsVisible and
// isValueTypeBase both need a definitive same-or-different-string
// answer before the rest of the traversal has necessarily visited the
// type in question, so they read the raw strings rather than relying on
// registry state that may not be populated yet.
func (h *Hasher) typeNamespaceAndName(t handle) (namespace, name string, ok bool) {
	switch t.Kind() {
	case metadatareader.KindTypeDefinition:
		row := h.reader.TypeDefinition(t)
		return h.reader.String(row.Namespace), h.reader.String(row.Name), true
	case metadatareader.KindTypeReference:
		row := h.reader.TypeReference(t)
		return h.reader.String(row.Namespace), h.reader.String(row.Name), true
	default:
		return "", "", false
	}
}

func (h *Hasher) isInternalsVisibleToCtor(ctor handle) bool {
	parent, ok := h.ctorParentType(ctor)
	if !ok {
		return false
	}
	namespace, name, ok := h.typeNamespaceAndName(parent)
	return ok && namespace == "System.Runtime.CompilerServices" && name == "InternalsVisibleToAttribute"
}

func (h *Hasher) detectInternalsVisible() bool {
	for _, attr := range h.reader.CustomAttributesOf(assemblyHandle) {
		row := h.reader.CustomAttribute(attr)
		if h.isInternalsVisibleToCtor(row.Constructor) {
			return true
		}
	}
	return false
}

// exportedTypeHash folds an ExportedType's own namespace/name with its
// Implementation chain: the assembly ref the type was forwarded to, or
// the containing exported type for a nested one.
func (h *Hasher) exportedTypeHash(et handle) uint64 {
	return h.entities.GetOrCompute(et, func() uint64 {
		row := h.reader.ExportedType(et)
		var implHash uint64
		switch row.Implementation.Kind() {
		case metadatareader.KindAssemblyReference:
			implHash = h.assemblyRefUsageHash(row.Implementation)
		case metadatareader.KindExportedType:
			implHash = h.exportedTypeHash(row.Implementation)
		}
		return fnvhash.Combine3(h.stringHash(row.Namespace), h.stringHash(row.Name), implHash)
	})
}
