// Package apperr defines the structured errors surfaced to the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Kind is the semantic category of an error.
type Kind int

const (
	KindInternal     Kind = iota // 500
	KindValidation               // 400
	KindNotFound                 // 404
	KindUnauthorized             // 401
	KindForbidden                // 403
	KindConflict                 // 422, domain rule violations
	KindUnavailable              // 503
)

// Machine-readable error codes.
const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeUnsupportedCategory = "UNSUPPORTED_CATEGORY"
	CodeWebinarNotFound     = "WEBINAR_NOT_FOUND"
	CodeCourseNotFound      = "COURSE_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotEnrolled         = "NOT_ENROLLED"
	CodeUnavailable         = "DEPENDENCY_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

// Error is an error with a kind, a code and optional details for the client.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func Validation(message string, err ...error) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Err: errors.Join(err...)}
}

func NotFound(code, message string, err ...error) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message, Err: errors.Join(err...)}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

func Unavailable(message string, err ...error) *Error {
	return &Error{Kind: KindUnavailable, Code: CodeUnavailable, Message: message, Err: errors.Join(err...)}
}

func Internal(message string, err ...error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, Err: errors.Join(err...)}
}

// UnsupportedCategory is returned for a category keyword outside the registry.
func UnsupportedCategory(value string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeUnsupportedCategory,
		Message: fmt.Sprintf("unsupported webinar category: %s", value),
		Details: map[string]any{"category": value},
	}
}

// UserNotFound names the identifier that matched no user.
func UserNotFound(identifier string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("user not found by identifier: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NotEnrolled reports participants missing from the course enrollment.
// identifiers are the caller-supplied strings, sorted for stable output.
func NotEnrolled(courseID uuid.UUID, identifiers []string) *Error {
	ids := append([]string(nil), identifiers...)
	sort.Strings(ids)
	return &Error{
		Kind:    KindConflict,
		Code:    CodeNotEnrolled,
		Message: "some participants are not enrolled in the selected course",
		Details: map[string]any{
			"courseId":    courseID.String(),
			"notEnrolled": ids,
		},
	}
}
