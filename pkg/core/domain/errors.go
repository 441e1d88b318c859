package domain

import (
	"errors"
	"fmt"
)

// Code is the stable discriminant carried by every domain error.
type Code string

const (
	CodeInvalidRequest        Code = "INVALID_REQUEST"
	CodeInvalidURL            Code = "INVALID_URL"
	CodeInvalidEmail          Code = "INVALID_EMAIL"
	CodeInvalidLinkID         Code = "INVALID_LINK_ID"
	CodeInvalidUserID         Code = "INVALID_USER_ID"
	CodeInvalidName           Code = "INVALID_NAME"
	CodeLinkNotFound          Code = "LINK_NOT_FOUND"
	CodeUserNotFound          Code = "USER_NOT_FOUND"
	CodeDuplicateEmail        Code = "DUPLICATE_EMAIL"
	CodeLinkIDTaken           Code = "LINK_ID_TAKEN"
	CodeUserIDTaken           Code = "USER_ID_TAKEN"
	CodeInvalidCredentials    Code = "INVALID_CREDENTIALS"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeLinkExpired           Code = "LINK_EXPIRED"
	CodeIDGenerationExhausted Code = "ID_GENERATION_EXHAUSTED"
)

// Error is a classified failure. Two errors are equal under errors.Is when
// their codes match, so the package-level sentinels can be compared against
// errors carrying a more specific message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf builds a domain error with the given code.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf reports the code of the first domain error in err's chain.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

var (
	ErrInvalidURL            = &Error{Code: CodeInvalidURL, Message: "invalid url"}
	ErrInvalidEmail          = &Error{Code: CodeInvalidEmail, Message: "invalid email"}
	ErrInvalidLinkID         = &Error{Code: CodeInvalidLinkID, Message: "invalid link id"}
	ErrInvalidUserID         = &Error{Code: CodeInvalidUserID, Message: "invalid user id"}
	ErrInvalidName           = &Error{Code: CodeInvalidName, Message: "invalid name"}
	ErrLinkNotFound          = &Error{Code: CodeLinkNotFound, Message: "link not found"}
	ErrUserNotFound          = &Error{Code: CodeUserNotFound, Message: "user not found"}
	ErrDuplicateEmail        = &Error{Code: CodeDuplicateEmail, Message: "email already registered"}
	ErrLinkIDTaken           = &Error{Code: CodeLinkIDTaken, Message: "link id already in use"}
	ErrUserIDTaken           = &Error{Code: CodeUserIDTaken, Message: "user id already in use"}
	ErrInvalidCredentials    = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrUnauthorized          = &Error{Code: CodeUnauthorized, Message: "missing or invalid token"}
	ErrForbidden             = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrLinkExpired           = &Error{Code: CodeLinkExpired, Message: "link expired"}
	ErrIDGenerationExhausted = &Error{Code: CodeIDGenerationExhausted, Message: "could not allocate a free link id"}
)
