// Package sigdecode decodes ECMA-335 §II.23.2 signature blobs straight
// into a single fnvhash value, without ever materializing an
// intermediate AST. Resolving a Class/ValueType element to the hash of
// the type it names is delegated to an injected two-hook TypeResolver;
// every other signature element has closed semantics and is hashed
// inline.
package sigdecode

import (
	"github.com/standardbeagle/asmsurface/internal/fnvhash"
	"github.com/standardbeagle/asmsurface/internal/metadatareader"
)

// TypeResolver resolves a Class/ValueType (or GenericInst target, or
// CustomMod modifier type) reference to its usage hash. Both hooks are
// expected to be backed by a handlecache.Cache so repeated references
// to the same type are O(1) after the first. It is the only external
// dependency this package has - decoding a signature blob never needs a
// metadatareader.Reader directly.
type TypeResolver interface {
	HashTypeDefinition(h metadatareader.Handle) uint64
	HashTypeReference(h metadatareader.Handle) uint64
}

// Decoder decodes signature blobs, resolving type references via an
// injected TypeResolver. A Decoder is cheap to construct and carries no
// state of its own between calls.
type Decoder struct {
	resolver TypeResolver
}

// New creates a Decoder resolving type references via resolver.
func New(resolver TypeResolver) *Decoder {
	return &Decoder{resolver: resolver}
}

// decodeTypeDefOrRef decodes a compressed TypeDefOrRefEncoded token
// (ECMA-335 §II.23.2.8: 2-bit tag + row index) and resolves it via the
// injected TypeResolver. A TypeSpec target (tag value 2) is rejected:
// a type spec may follow a Class/ValueType tag (or a
// CustomMod/GenericInst target, which use the same encoding) only in
// the LocalConstantSig contexts of the portable PDB format, which this
// package does not implement, so every call site here must reject it.
func (d *Decoder) decodeTypeDefOrRef(data []byte, pos *int) (uint64, error) {
	start := *pos
	coded, err := readCompressedUint(data, pos)
	if err != nil {
		return 0, err
	}
	tag := coded & 0x3
	rid := coded >> 2
	switch tag {
	case 0:
		h := metadatareader.NewHandle(metadatareader.KindTypeDefinition, rid)
		return d.resolver.HashTypeDefinition(h), nil
	case 1:
		h := metadatareader.NewHandle(metadatareader.KindTypeReference, rid)
		return d.resolver.HashTypeReference(h), nil
	default:
		return 0, malformed(start, "TypeSpec target not permitted in this signature context")
	}
}

// decodeType decodes one Type production (ECMA-335 §II.23.2.12),
// including any leading CustomMod prefix, and returns its hash. The
// per-element mixing constants (1 for SZArray, 2 for byref, 3 for
// pointer, 4 for pinned, 42 for a required modifier, 1000/1000000 for
// type/method generic parameter indices) carry no metadata meaning
// beyond being distinct from each other and from the primitive element
// codes.
func (d *Decoder) decodeType(data []byte, pos *int) (uint64, error) {
	if *pos >= len(data) {
		return 0, malformed(*pos, "type sequence truncated")
	}

	b := metadatareader.ElementType(data[*pos])
	if b == metadatareader.ElementCModReqd || b == metadatareader.ElementCModOpt {
		*pos++
		isRequired := b == metadatareader.ElementCModReqd
		modifierHash, err := d.decodeTypeDefOrRef(data, pos)
		if err != nil {
			return 0, err
		}
		rest, err := d.decodeType(data, pos)
		if err != nil {
			return 0, err
		}
		flag := uint64(0)
		if isRequired {
			flag = 42
		}
		return fnvhash.Combine3(rest, modifierHash, flag), nil
	}

	*pos++
	switch b {
	case metadatareader.ElementVoid, metadatareader.ElementBoolean, metadatareader.ElementChar,
		metadatareader.ElementI1, metadatareader.ElementU1, metadatareader.ElementI2, metadatareader.ElementU2,
		metadatareader.ElementI4, metadatareader.ElementU4, metadatareader.ElementI8, metadatareader.ElementU8,
		metadatareader.ElementR4, metadatareader.ElementR8, metadatareader.ElementString,
		metadatareader.ElementI, metadatareader.ElementU, metadatareader.ElementObject,
		metadatareader.ElementTypedByRef:
		return uint64(b), nil

	case metadatareader.ElementPtr:
		inner, err := d.decodeType(data, pos)
		if err != nil {
			return 0, err
		}
		return fnvhash.Combine2(inner, 3), nil

	case metadatareader.ElementByRef:
		inner, err := d.decodeType(data, pos)
		if err != nil {
			return 0, err
		}
		return fnvhash.Combine2(inner, 2), nil

	case metadatareader.ElementPinned:
		inner, err := d.decodeType(data, pos)
		if err != nil {
			return 0, err
		}
		return fnvhash.Combine2(inner, 4), nil

	case metadatareader.ElementSZArray:
		inner, err := d.decodeType(data, pos)
		if err != nil {
			return 0, err
		}
		return fnvhash.Combine2(inner, 1), nil

	case metadatareader.ElementArray:
		return d.decodeArray(data, pos)

	case metadatareader.ElementGenericInst:
		return d.decodeGenericInst(data, pos)

	case metadatareader.ElementVar:
		idx, err := readCompressedUint(data, pos)
		if err != nil {
			return 0, err
		}
		return fnvhash.Combine2(uint64(idx), 1000), nil

	case metadatareader.ElementMVar:
		idx, err := readCompressedUint(data, pos)
		if err != nil {
			return 0, err
		}
		return fnvhash.Combine2(uint64(idx), 1000000), nil

	case metadatareader.ElementFnPtr:
		return d.decodeFunctionPointer(data, pos)

	case metadatareader.ElementClass, metadatareader.ElementValueType:
		return d.decodeTypeDefOrRef(data, pos)

	default:
		return 0, malformed(*pos-1, "signature type code 0x%02x out of range", byte(b))
	}
}

func (d *Decoder) decodeArray(data []byte, pos *int) (uint64, error) {
	elemHash, err := d.decodeType(data, pos)
	if err != nil {
		return 0, err
	}
	rank, err := readCompressedUint(data, pos)
	if err != nil {
		return 0, err
	}
	numSizes, err := readCompressedUint(data, pos)
	if err != nil {
		return 0, err
	}
	sizes := make([]uint64, numSizes)
	for i := range sizes {
		v, err := readCompressedUint(data, pos)
		if err != nil {
			return 0, err
		}
		sizes[i] = uint64(v)
	}
	numLoBounds, err := readCompressedUint(data, pos)
	if err != nil {
		return 0, err
	}
	loBounds := make([]uint64, numLoBounds)
	for i := range loBounds {
		v, err := readCompressedSigned(data, pos)
		if err != nil {
			return 0, err
		}
		loBounds[i] = uint64(v)
	}
	return fnvhash.Combine4(elemHash, uint64(rank), fnvhash.CombineSeq(loBounds), fnvhash.CombineSeq(sizes)), nil
}

func (d *Decoder) decodeGenericInst(data []byte, pos *int) (uint64, error) {
	if *pos >= len(data) {
		return 0, malformed(*pos, "generic instantiation truncated")
	}
	tag := metadatareader.ElementType(data[*pos])
	if tag != metadatareader.ElementClass && tag != metadatareader.ElementValueType {
		return 0, malformed(*pos, "generic instantiation missing CLASS/VALUETYPE tag")
	}
	*pos++
	genericTypeHash, err := d.decodeTypeDefOrRef(data, pos)
	if err != nil {
		return 0, err
	}
	argCount, err := readCompressedUint(data, pos)
	if err != nil {
		return 0, err
	}
	if argCount == 0 {
		return 0, malformed(*pos, "generic instantiation requires at least one type argument")
	}
	argHashes := make([]uint64, argCount)
	for i := range argHashes {
		h, err := d.decodeType(data, pos)
		if err != nil {
			return 0, err
		}
		argHashes[i] = h
	}
	return fnvhash.Combine2(genericTypeHash, fnvhash.CombineSeq(argHashes)), nil
}

// methodSignatureCore decodes the shared shape of MethodDefSig,
// MethodRefSig, and the FNPTR signature embedded in a Type: a calling
// convention/flags header, an optional generic parameter count, a
// parameter count, a return type, and that many parameter types -
// honoring a Sentinel element wherever it falls as the fixed/vararg
// boundary (it consumes a byte but not a parameter slot).
func (d *Decoder) methodSignatureCore(data []byte, pos *int) (header byte, genParamCount uint32, returnHash uint64, paramHashes []uint64, err error) {
	if *pos >= len(data) {
		err = malformed(*pos, "method signature truncated before header")
		return
	}
	header = data[*pos]
	*pos++

	if header&byte(metadatareader.SigGeneric) != 0 {
		genParamCount, err = readCompressedUint(data, pos)
		if err != nil {
			return
		}
	}

	paramCount, err := readCompressedUint(data, pos)
	if err != nil {
		return
	}

	returnHash, err = d.decodeType(data, pos)
	if err != nil {
		return
	}

	paramHashes = make([]uint64, 0, paramCount)
	for uint32(len(paramHashes)) < paramCount {
		if *pos >= len(data) {
			err = malformed(*pos, "parameter list truncated")
			return
		}
		if metadatareader.ElementType(data[*pos]) == metadatareader.ElementSentinel {
			*pos++
			continue
		}
		var h uint64
		h, err = d.decodeType(data, pos)
		if err != nil {
			return
		}
		paramHashes = append(paramHashes, h)
	}
	return
}

func (d *Decoder) decodeFunctionPointer(data []byte, pos *int) (uint64, error) {
	header, genParamCount, returnHash, paramHashes, err := d.methodSignatureCore(data, pos)
	if err != nil {
		return 0, err
	}
	callingConvention := uint64(header & byte(metadatareader.SigCallConvMask))
	return fnvhash.Combine4(returnHash, fnvhash.CombineSeq(paramHashes), uint64(genParamCount), callingConvention), nil
}

// MethodSignature decodes a MethodDefSig/MethodRefSig blob (ECMA-335
// §II.23.2.1/.2), returning the signature hash
// combine(combine_seq(param_hashes), return_hash) and the declared
// generic parameter count. Callers that need member identity (rather
// than just the raw signature hash) must fold genParamCount in
// themselves, alongside the member's name and custom attributes - the
// signature hash alone does not distinguish M<T>() from M().
func (d *Decoder) MethodSignature(blob []byte) (sigHash uint64, genParamCount uint32, err error) {
	pos := 0
	_, genParamCount, returnHash, paramHashes, err := d.methodSignatureCore(blob, &pos)
	if err != nil {
		return 0, 0, err
	}
	sigHash = fnvhash.Combine2(fnvhash.CombineSeq(paramHashes), returnHash)
	return sigHash, genParamCount, nil
}

// FieldSignature decodes a FieldSig blob (ECMA-335 §II.23.2.4: the
// FIELD tag, optional CustomMods, then a Type) and returns the field's
// type hash.
func (d *Decoder) FieldSignature(blob []byte) (uint64, error) {
	pos := 0
	if len(blob) == 0 {
		return 0, malformed(0, "field signature is empty")
	}
	if blob[pos] != byte(metadatareader.SigField) {
		return 0, malformed(pos, "field signature missing FIELD tag")
	}
	pos++
	return d.decodeType(blob, &pos)
}

// PropertySignature decodes a PropertySig blob (ECMA-335 §II.23.2.5)
// and returns the property type's hash and its index-parameter hashes.
// The top-level surface hasher does not call this directly - a
// property's type is already captured by its getter/setter accessor
// signatures - but it is provided for completeness and is exercised by
// this package's own tests.
func (d *Decoder) PropertySignature(blob []byte) (typeHash uint64, paramHashes []uint64, err error) {
	pos := 0
	if len(blob) == 0 {
		err = malformed(0, "property signature is empty")
		return
	}
	header := blob[pos]
	if header&byte(metadatareader.SigProperty) == 0 {
		err = malformed(pos, "property signature missing PROPERTY tag")
		return
	}
	pos++
	paramCount, err := readCompressedUint(blob, &pos)
	if err != nil {
		return
	}
	typeHash, err = d.decodeType(blob, &pos)
	if err != nil {
		return
	}
	paramHashes = make([]uint64, paramCount)
	for i := range paramHashes {
		paramHashes[i], err = d.decodeType(blob, &pos)
		if err != nil {
			return
		}
	}
	return
}

// TypeSpecSignature decodes a TypeSpec row's signature blob, which is a
// bare Type (ECMA-335 §II.23.2.14) with no header byte.
func (d *Decoder) TypeSpecSignature(blob []byte) (uint64, error) {
	pos := 0
	if len(blob) == 0 {
		return 0, malformed(0, "type spec signature is empty")
	}
	return d.decodeType(blob, &pos)
}
