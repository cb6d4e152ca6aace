// Package wellknown is the registry of CLR namespaces/names the surface
// hasher treats specially: the ignored/included attribute-type sets that
// drive the attribute whitelist, and the handle first seen for
// System.ValueType (the surface hasher's struct check compares the base
// type's namespace and name directly and does not consult it). It is
// populated lazily, as a side effect of
// ordinary type-reference/definition traversal, rather than pre-seeded:
// the assembly being hashed tells us where these types live.
package wellknown

import "github.com/standardbeagle/asmsurface/internal/fnvhash"

const (
	namespaceCompilerServices = "System.Runtime.CompilerServices"
	namespaceSystem           = "System"
	namespaceCodeAnalysis     = "System.Diagnostics.CodeAnalysis"

	nameCompilerGeneratedAttribute = "CompilerGeneratedAttribute"
	nameValueType                  = "ValueType"
)

var systemIncludedNames = map[string]bool{
	"ObsoleteAttribute":      true,
	"AttributeUsageAttribute": true,
	"FlagsAttribute":         true,
	"ParamArrayAttribute":    true,
}

// The quick-filter hashes are precomputed once at package init so
// Classify's first check is a plain uint64 comparison.
var (
	hashCompilerServices = fnvhash.FromUTF8(namespaceCompilerServices)
	hashSystem           = fnvhash.FromUTF8(namespaceSystem)
	hashCodeAnalysis     = fnvhash.FromUTF8(namespaceCodeAnalysis)
)

// Disposition is the classification Classify assigns a
// namespace/name pair the first time it is observed.
type Disposition int

const (
	// DispositionUnrecognized means the pair is not a well-known type;
	// the caller applies its normal attribute-inclusion rule.
	DispositionUnrecognized Disposition = iota
	// DispositionIgnoredAttribute means attributes of this type are
	// stripped from the surface hash entirely.
	DispositionIgnoredAttribute
	// DispositionIncludedAttribute means the type is a recognized
	// CLR-behavior attribute that IS surface-relevant.
	DispositionIncludedAttribute
	// DispositionValueTypeRoot means this is System.ValueType itself.
	DispositionValueTypeRoot
)

// Registry tracks the handle sets populated by repeated Classify calls
// during one hasher invocation: the ignored and included attribute-type
// sets plus the handle recorded for System.ValueType.
// Registry is not safe for concurrent use - it is scoped to a single,
// single-threaded hasher the same as every other per-invocation cache
// in this module.
type Registry[H comparable] struct {
	ignored       map[H]bool
	included      map[H]bool
	valueTypeRoot *H
}

// New creates an empty registry.
func New[H comparable]() *Registry[H] {
	return &Registry[H]{ignored: map[H]bool{}, included: map[H]bool{}}
}

// Classify compares namespaceHash/nameHash (already-computed FNV folds
// of the candidate strings) against the well-known quick-filter hashes
// and, on a hit, re-verifies with the literal namespace/name strings
// before recording handle in the corresponding set. The hash comparison
// is only a quick filter; the string comparison is what prevents a hash
// collision from silently misclassifying an unrelated type.
func (r *Registry[H]) Classify(handle H, namespaceHash, nameHash uint64, namespace, name string) Disposition {
	switch namespaceHash {
	case hashCompilerServices:
		if namespace != namespaceCompilerServices {
			return DispositionUnrecognized
		}
		if name == nameCompilerGeneratedAttribute {
			r.ignored[handle] = true
			return DispositionIgnoredAttribute
		}
		r.included[handle] = true
		return DispositionIncludedAttribute

	case hashSystem:
		if namespace != namespaceSystem {
			return DispositionUnrecognized
		}
		if name == nameValueType {
			if r.valueTypeRoot == nil {
				h := handle
				r.valueTypeRoot = &h
			}
			return DispositionValueTypeRoot
		}
		if systemIncludedNames[name] {
			r.included[handle] = true
			return DispositionIncludedAttribute
		}
		return DispositionUnrecognized

	case hashCodeAnalysis:
		if namespace != namespaceCodeAnalysis {
			return DispositionUnrecognized
		}
		r.included[handle] = true
		return DispositionIncludedAttribute

	default:
		return DispositionUnrecognized
	}
}

// IsIgnoredAttribute reports whether handle was previously classified
// DispositionIgnoredAttribute.
func (r *Registry[H]) IsIgnoredAttribute(handle H) bool { return r.ignored[handle] }

// IsIncludedAttribute reports whether handle was previously classified
// DispositionIncludedAttribute.
func (r *Registry[H]) IsIncludedAttribute(handle H) bool { return r.included[handle] }

// ValueTypeRoot returns the handle recorded for System.ValueType, if
// one has been observed yet during this invocation.
func (r *Registry[H]) ValueTypeRoot() (H, bool) {
	if r.valueTypeRoot == nil {
		var zero H
		return zero, false
	}
	return *r.valueTypeRoot, true
}
