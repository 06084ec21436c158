package schema

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error.
type ErrorKind string

const (
	ErrInvalidBSONType                    ErrorKind = "invalid_bson_type"
	ErrInvalidCombinationOfFields         ErrorKind = "invalid_combination_of_fields"
	ErrCannotEnumerateAllFieldPaths       ErrorKind = "cannot_enumerate_all_field_paths"
	ErrCannotConvertBsonTypeToAtomic      ErrorKind = "cannot_convert_bson_type_to_atomic"
	ErrUnsupportedBsonType                ErrorKind = "unsupported_bson_type"
	ErrInvalidNamespace                   ErrorKind = "invalid_namespace"
	ErrInvalidBottomField                 ErrorKind = "invalid_bottom_field"
	ErrFieldConflictInNonNamespacedResult ErrorKind = "field_conflict_in_non_namespaced_result"
	ErrBSONDecode                         ErrorKind = "bson_decode"
	ErrMissingNotSerializable             ErrorKind = "missing_not_serializable"
	ErrMaxDepthExceeded                   ErrorKind = "max_depth_exceeded"
)

// Error is the single error type returned by conversions, enumeration and
// validation in this module. Schema is set when the failure is about a
// specific sub-schema.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Schema  *Schema
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Schema != nil {
		base = fmt.Sprintf("%s (schema=%s)", base, Summary(*e.Schema, 2))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k})
// works as a kind test.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New returns an Error of the given kind.
func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an Error of the given kind caused by cause.
func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// InvalidBSONTypeError reports an unknown bsonType alias.
func InvalidBSONTypeError(name string) *Error {
	return &Error{Kind: ErrInvalidBSONType, Message: fmt.Sprintf("unknown bsonType %q", name)}
}

// InvalidCombinationError reports $jsonSchema keywords that cannot appear together.
func InvalidCombinationError(msg string) *Error {
	return &Error{Kind: ErrInvalidCombinationOfFields, Message: msg}
}

// CannotEnumerateError reports a schema whose field paths are unknowable.
func CannotEnumerateError(s Schema) *Error {
	return &Error{
		Kind:    ErrCannotEnumerateAllFieldPaths,
		Message: "schema allows unknown fields",
		Schema:  &s,
	}
}

// CannotConvertToAtomicError reports a container type where an atomic was expected.
func CannotConvertToAtomicError(name string) *Error {
	return &Error{Kind: ErrCannotConvertBsonTypeToAtomic, Message: fmt.Sprintf("%s is not an atomic type", name)}
}

// UnsupportedBsonTypeError reports a BSON element type with no schema counterpart.
func UnsupportedBsonTypeError(msg string) *Error {
	return &Error{Kind: ErrUnsupportedBsonType, Message: msg}
}

// InvalidNamespaceError reports an empty or mismatched namespace.
func InvalidNamespaceError(msg string) *Error {
	return &Error{Kind: ErrInvalidNamespace, Message: msg}
}

// InvalidBottomFieldError reports a field that no value can satisfy.
func InvalidBottomFieldError(field string) *Error {
	return &Error{Kind: ErrInvalidBottomField, Message: "field can never hold a value", Field: field}
}

// FieldConflictError reports a field contributed by more than one source.
func FieldConflictError(field, msg string) *Error {
	return &Error{Kind: ErrFieldConflictInNonNamespacedResult, Message: msg, Field: field}
}

// MaxDepthError reports nesting beyond limit.
func MaxDepthError(limit int) *Error {
	return &Error{Kind: ErrMaxDepthExceeded, Message: fmt.Sprintf("schema nesting exceeds %d levels", limit)}
}

// IsKind reports whether err wraps an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
