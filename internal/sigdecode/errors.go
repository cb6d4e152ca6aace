package sigdecode

import "fmt"

// MalformedError reports a signature blob that violates ECMA-335
// §II.23.2 grammar: a type code out of range, a truncated compressed
// integer, a TypeSpec target where only TypeDef/TypeRef is permitted,
// or an empty type sequence where the grammar requires at least one
// element. It is the only error this package produces - there is no
// recoverable variant.
type MalformedError struct {
	Reason string
	Offset int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("sigdecode: malformed signature at offset %d: %s", e.Offset, e.Reason)
}

func malformed(offset int, format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...), Offset: offset}
}
