// Package surface decides which metadata entities are visible to a
// referencing compiler: small, independent membership predicates over
// visibility flags, the assembly's InternalsVisibleTo state, and
// compiler-generated-name heuristics.
package surface

import "github.com/standardbeagle/asmsurface/internal/metadatareader"

// IsCompilerGeneratedName reports whether name has the ASCII '<' prefix
// C# uses for <Module>, <PrivateImplementationDetails>, and file-local
// types like <Program>F9627…__A. Such names are excluded from
// the surface even when internals are visible, since they never name a
// source-level declaration a referencing compiler could see.
func IsCompilerGeneratedName(name string) bool {
	return len(name) > 0 && name[0] == '<'
}

// TypeVisible evaluates the type-definition-in-surface predicate
// against one type's own flags and name, ignoring its enclosing-type
// chain (see TypeDefinitionInSurface for the full nested-type rule).
func TypeVisible(flags metadatareader.TypeAttributes, internalsVisible bool, name string) bool {
	switch flags & metadatareader.VisibilityMask {
	case metadatareader.TypePublic, metadatareader.TypeNestedPublic,
		metadatareader.TypeNestedFamily, metadatareader.TypeNestedFamORAssem:
		return true
	case metadatareader.TypeNotPublic, metadatareader.TypeNestedAssembly, metadatareader.TypeNestedFamANDAssem:
		return internalsVisible && !IsCompilerGeneratedName(name)
	default:
		return false
	}
}

// TypeDefinitionInSurface applies TypeVisible to handle and, for a
// nested type, to every enclosing type in turn - a nested
// type is in surface only if every enclosing type is too.
func TypeDefinitionInSurface(reader metadatareader.Reader, handle metadatareader.Handle, internalsVisible bool) bool {
	for {
		row := reader.TypeDefinition(handle)
		if !TypeVisible(row.Flags, internalsVisible, reader.String(row.Name)) {
			return false
		}
		enclosing, ok := reader.EnclosingType(handle)
		if !ok {
			return true
		}
		handle = enclosing
	}
}

// MemberVisible evaluates the method/field-in-surface predicate
// against a MemberAccessMask value.
func MemberVisible(access metadatareader.MemberAccessMask, internalsVisible bool) bool {
	switch access & metadatareader.AccessMask {
	case metadatareader.AccessPublic, metadatareader.AccessFamily, metadatareader.AccessFamORAssem:
		return true
	case metadatareader.AccessAssembly, metadatareader.AccessFamANDAssem:
		return internalsVisible
	default:
		return false
	}
}

// ExportedTypeVisible mirrors TypeVisible for an ExportedType row.
func ExportedTypeVisible(flags metadatareader.TypeAttributes, internalsVisible bool, name string) bool {
	return TypeVisible(flags, internalsVisible, name)
}

// ExportedTypeInSurface walks an ExportedType's Implementation chain:
// when Implementation itself addresses another ExportedType (a nested
// exported type), every link in the chain must be visible too.
func ExportedTypeInSurface(reader metadatareader.Reader, handle metadatareader.Handle, internalsVisible bool) bool {
	for {
		row := reader.ExportedType(handle)
		if !ExportedTypeVisible(row.Flags, internalsVisible, reader.String(row.Name)) {
			return false
		}
		if row.Implementation.Kind() != metadatareader.KindExportedType {
			return true
		}
		handle = row.Implementation
	}
}

const (
	fsharpSignatureInfoPrefix             = "FSharpSignatureInfo."
	fsharpSignatureDataPrefix             = "FSharpSignatureData."
	fsharpSignatureCompressedDataPrefix   = "FSharpSignatureCompressedData."
)

// ManifestResourceInSurface evaluates the resource rule: the Public
// flag, and - specifically for F# signature resources, which embed a
// compiled module's public interface as an opaque blob named after the
// assembly - a name matching one of three well-known prefixes and
// ending with this assembly's own name.
func ManifestResourceInSurface(row metadatareader.ManifestResourceRow, name, assemblyName string) bool {
	if row.Flags&metadatareader.ManifestResourcePublic == 0 {
		return false
	}
	for _, prefix := range []string{fsharpSignatureInfoPrefix, fsharpSignatureDataPrefix, fsharpSignatureCompressedDataPrefix} {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			return len(name) >= len(assemblyName) && name[len(name)-len(assemblyName):] == assemblyName
		}
	}
	return true
}
