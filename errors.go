package readstata13

import "fmt"

// UnsupportedReleaseError indicates a dta format version outside the
// supported set (releases 109 and 116 were never issued).
type UnsupportedReleaseError struct {
	Release int
}

func (e *UnsupportedReleaseError) Error() string {
	return fmt.Sprintf("unsupported dta format release %d", e.Release)
}

// UnsupportedByteOrderError indicates a byteorder field that is neither
// LSF/MSF (releases 117+) nor 1/2 (older releases).
type UnsupportedByteOrderError struct {
	Found string
}

func (e *UnsupportedByteOrderError) Error() string {
	return fmt.Sprintf("unsupported byte order %q", e.Found)
}

// MalformedTagError indicates that a literal ASCII framing token was
// missing or mismatched in a release 117+ file.
type MalformedTagError struct {
	Expected string
	Found    string
	Position int64
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("malformed tag at offset %d: expected %q, found %q", e.Position, e.Expected, e.Found)
}

// TruncatedInputError indicates that the file ended before a section
// was complete.
type TruncatedInputError struct {
	Section  string
	Position int64
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input in %s section at offset %d", e.Section, e.Position)
}

// InconsistentCountsError indicates a structural count that violates
// the format, such as label offsets outside the text buffer.
type InconsistentCountsError struct {
	Which string
}

func (e *InconsistentCountsError) Error() string {
	return "inconsistent counts: " + e.Which
}

// UnrepresentableTypeError indicates a column type that cannot be
// encoded in the target release, such as a strL below release 117.
type UnrepresentableTypeError struct {
	Type    VarType
	Release int
}

func (e *UnrepresentableTypeError) Error() string {
	return fmt.Sprintf("type %s is not representable in dta release %d", e.Type, e.Release)
}

// SchemaViolationError indicates a Dataset that violates the model
// invariants, such as duplicate variable names or an unresolvable strL
// reference.
type SchemaViolationError struct {
	Detail string
}

func (e *SchemaViolationError) Error() string {
	return "schema violation: " + e.Detail
}

// IOError wraps an error from the underlying reader or writer.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return "dta i/o error: " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}
