// Package surfaceerr defines the single externally-visible fault class
// this module produces: a malformed CLI image. Every malformed-input
// condition across the hasher - out-of-range signature codes,
// disallowed TypeSpec targets, missing well-known rows, absent CorHeader
// data - collapses to one BadImage value rather than a taxonomy of
// recoverable variants: this module has no partial-success or
// continue-on-error mode to report alongside the failure.
package surfaceerr

import "fmt"

// BadImage reports that the input does not conform to ECMA-335: a
// structurally invalid signature, a missing required metadata row, or a
// context where the grammar disallows what was found.
type BadImage struct {
	// Stage names the component that detected the fault (e.g.
	// "sigdecode", "surfacehash", "pereader"), for diagnostics only.
	Stage string
	Err   error
}

func (e *BadImage) Error() string {
	return fmt.Sprintf("asmsurface: malformed image (%s): %v", e.Stage, e.Err)
}

func (e *BadImage) Unwrap() error { return e.Err }

// Wrap tags err, produced while processing stage, as a BadImage fault.
// A nil err returns nil.
func Wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &BadImage{Stage: stage, Err: err}
}
