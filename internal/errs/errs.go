// Package errs defines the error kinds shared by the ingestion pipeline,
// the item store and the operations built on top of them.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to branch on it
// (HTTP status mapping, batch reporting).
type Code string

const (
	CodeFetch        Code = "FETCH_ERROR"
	CodeNotFound     Code = "NOT_FOUND"
	CodeFormat       Code = "FORMAT_ERROR"
	CodeEncode       Code = "ENCODE_ERROR"
	CodeIO           Code = "IO_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeRateLimited  Code = "RATE_LIMIT_EXCEEDED"
)

// Error is a classified error. Op names the failing operation and Path the
// source, URL or file it was working on.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + fmt.Sprintf("%q", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by code, so errors.Is(err, &Error{Code: c})
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Op == "" && t.Path == ""
}

func newError(code Code, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// Fetch reports a remote source that could not be retrieved.
func Fetch(op, url string, err error) error { return newError(CodeFetch, op, url, err) }

// NotFound reports a missing local file or record.
func NotFound(op, path string, err error) error { return newError(CodeNotFound, op, path, err) }

// Format reports an undetectable format. Detection never surfaces it to
// callers; it exists for logging.
func Format(op, path string, err error) error { return newError(CodeFormat, op, path, err) }

// Encode reports a failed image transformation.
func Encode(op, path string, err error) error { return newError(CodeEncode, op, path, err) }

// IO reports a filesystem failure.
func IO(op, path string, err error) error { return newError(CodeIO, op, path, err) }

// Invalid reports bad caller input.
func Invalid(op, detail string) error {
	return newError(CodeInvalidInput, op, "", errors.New(detail))
}

// RateLimited reports an exhausted upstream API quota.
func RateLimited(op string, err error) error { return newError(CodeRateLimited, op, "", err) }

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsEncode reports whether err carries CodeEncode.
func IsEncode(err error) bool { return CodeOf(err) == CodeEncode }
