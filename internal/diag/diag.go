// Package diag defines the recoverable error kinds of the variant pipeline.
//
// None of these errors is fatal. Each one carries the property path or origin
// identifier it concerns so that a user can act on it.
package diag

import (
	"errors"
	"fmt"
)

// Code categorizes a variant pipeline error.
type Code string

const (
	// CodeUnsupportedFieldKind: the codec cannot encode or decode a field.
	CodeUnsupportedFieldKind Code = "UNSUPPORTED_FIELD_KIND"

	// CodeStaleOverridePath: an override targets a path the schema no longer has.
	CodeStaleOverridePath Code = "STALE_OVERRIDE_PATH"

	// CodeMalformedPatch: a persisted patch blob failed to parse.
	CodeMalformedPatch Code = "MALFORMED_PATCH"

	// CodeUnresolvedOrigin: the origin identifier is missing or cannot be resolved.
	CodeUnresolvedOrigin Code = "UNRESOLVED_ORIGIN"
)

// Error is a path- or origin-qualified pipeline error.
type Error struct {
	Code    Code
	Message string

	// Path is the property path concerned, if any.
	Path string

	// Origin is the origin identifier concerned, if any.
	Origin string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Path != "" && e.Origin != "":
		return fmt.Sprintf("%s: %s (path=%s, origin=%s)", e.Code, msg, e.Path, e.Origin)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, msg, e.Path)
	case e.Origin != "":
		return fmt.Sprintf("%s: %s (origin=%s)", e.Code, msg, e.Origin)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unsupported creates an UNSUPPORTED_FIELD_KIND error for path.
func Unsupported(path string, kind fmt.Stringer, reason string) *Error {
	msg := fmt.Sprintf("%s is not handled", kind)
	if reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	return &Error{Code: CodeUnsupportedFieldKind, Message: msg, Path: path}
}

// Stale creates a STALE_OVERRIDE_PATH error for path on the named object.
func Stale(path, object string, cause error) *Error {
	return &Error{
		Code:    CodeStaleOverridePath,
		Message: fmt.Sprintf("%s no longer exists in %s", path, object),
		Path:    path,
		Err:     cause,
	}
}

// Malformed creates a MALFORMED_PATCH error.
func Malformed(cause error) *Error {
	return &Error{Code: CodeMalformedPatch, Message: "patch could not be parsed, treating as empty", Err: cause}
}

// Unresolved creates an UNRESOLVED_ORIGIN error for origin.
func Unresolved(origin, message string, cause error) *Error {
	return &Error{Code: CodeUnresolvedOrigin, Message: message, Origin: origin, Err: cause}
}

// At qualifies err with path when err is an *Error that has no path yet.
// Other errors are returned unchanged.
func At(err error, path string) error {
	var de *Error
	if !errors.As(err, &de) || de.Path != "" {
		return err
	}
	cp := *de
	cp.Path = path
	return &cp
}

// CodeOf returns the code of err if it is (or wraps) an *Error.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

func is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsUnsupported reports whether err is an UNSUPPORTED_FIELD_KIND error.
func IsUnsupported(err error) bool { return is(err, CodeUnsupportedFieldKind) }

// IsStale reports whether err is a STALE_OVERRIDE_PATH error.
func IsStale(err error) bool { return is(err, CodeStaleOverridePath) }

// IsMalformed reports whether err is a MALFORMED_PATCH error.
func IsMalformed(err error) bool { return is(err, CodeMalformedPatch) }

// IsUnresolved reports whether err is an UNRESOLVED_ORIGIN error.
func IsUnresolved(err error) bool { return is(err, CodeUnresolvedOrigin) }
