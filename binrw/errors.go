package binrw

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when a read needs more bytes than remain.
	ErrOutOfBounds = errors.New("binrw: out of bounds")

	// ErrInvalidString is returned for text that cannot be decoded or encoded.
	ErrInvalidString = errors.New("binrw: invalid string")

	// ErrStringTooLong is returned when a string does not fit its field.
	ErrStringTooLong = errors.New("binrw: string too long")

	// ErrInvalidDiscriminant is returned when an enumerated value is out of range.
	ErrInvalidDiscriminant = errors.New("binrw: invalid discriminant")
)

// InvalidDiscriminantError reports an enumerated field holding a value with
// no defined meaning. Value is the raw decoded number.
type InvalidDiscriminantError struct {
	Type  string
	Value uint64
}

// Error implements the error interface.
func (e *InvalidDiscriminantError) Error() string {
	return fmt.Sprintf("binrw: invalid %s value %d", e.Type, e.Value)
}

// Is reports whether target is ErrInvalidDiscriminant.
func (e *InvalidDiscriminantError) Is(target error) bool {
	return target == ErrInvalidDiscriminant
}

// StringTooLongError reports a string longer than its field allows.
type StringTooLongError struct {
	Value string
	Len   int
	Max   int
}

// Error implements the error interface.
func (e *StringTooLongError) Error() string {
	return fmt.Sprintf("binrw: string %q is %d long, field holds %d", e.Value, e.Len, e.Max)
}

// Is reports whether target is ErrStringTooLong.
func (e *StringTooLongError) Is(target error) bool {
	return target == ErrStringTooLong
}
