package helper

import (
	"fmt"
)

// ErrUnexpectedType is returned when a value does not hold the expected type.
var ErrUnexpectedType = fmt.Errorf("unexpected type")

// TypedValueOf asserts v to T.
func TypedValueOf[T any](v any) (res T, ok bool) {
	res, ok = v.(T)
	return
}

// GetTypedValueOf asserts v to T and reports the actual type on failure.
func GetTypedValueOf[T any](v any) (T, error) {
	res, ok := TypedValueOf[T](v)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: want %T, got %T", ErrUnexpectedType, zero, v)
	}
	return res, nil
}

// MustGetTypedValue is the panic-on-failure variant of GetTypedValueOf.
// Use when a mismatch can only be a programming error.
func MustGetTypedValue[T any](v any) T {
	res, err := GetTypedValueOf[T](v)
	if err != nil {
		panic(err)
	}
	return res
}
