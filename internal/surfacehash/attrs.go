package surfacehash

// customAttributesHash folds every custom attribute attached to owner
// into a sorted-combine set: each attribute contributes
// combine(constructor_usage_hash, opaque_value_blob_hash), filtered
// through the well-known whitelist unless Options.IncludeAllAttributes
// is set.

import (
	"github.com/standardbeagle/asmsurface/internal/customattr"
	"github.com/standardbeagle/asmsurface/internal/fnvhash"
	"github.com/standardbeagle/asmsurface/internal/metadatareader"
)

func (h *Hasher) customAttributesHash(owner handle) uint64 {
	attrs := h.reader.CustomAttributesOf(owner)
	if len(attrs) == 0 {
		return fnvhash.Offset
	}

	hashes := make([]uint64, 0, len(attrs))
	for _, a := range attrs {
		row := h.reader.CustomAttribute(a)

		if !h.options.IncludeAllAttributes {
			if parent, ok := h.ctorParentType(row.Constructor); ok {
				// Classifying the parent type is itself what populates
				// the well-known registry; it may be the first time
				// this attribute type is ever observed.
				switch parent.Kind() {
				case metadatareader.KindTypeDefinition:
					h.typeDefUsageHash(parent)
				case metadatareader.KindTypeReference:
					h.typeRefUsageHash(parent)
				}
				if h.wk.IsIgnoredAttribute(parent) {
					continue
				}
			}
		}

		ctorHash := h.entityUsageHash(row.Constructor)
		blobHash, err := customattr.HashValue(h.reader.Blob(row.Value))
		if err != nil {
			h.fail("customattr", err)
			continue
		}
		hashes = append(hashes, fnvhash.Combine2(ctorHash, blobHash))
	}
	return fnvhash.CombineSorted(hashes)
}
