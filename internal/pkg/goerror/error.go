// Package goerror carries the error taxonomy shared by usecases and the HTTP layer.
// A usecase returns an *Error; the router turns its Code into a status and its
// Msg into the response message. The wrapped cause never reaches the client.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels returned by the storage adapters.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Type classifies an error by who is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	}
	return "ERROR_TYPE_UNKNOWN"
}

// fallback is the message used when an error carries neither a cause nor a message.
func (t Type) fallback() string {
	switch t {
	case TypeServer:
		return "Internal error"
	case TypeBusiness:
		return "Request rejected"
	case TypeValidation:
		return "Validation violation"
	}
	return "Unknown error"
}

// Code is the stable identifier mapped to an HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeBadRequest is a well-formed request that the current state does not allow.
	CodeBadRequest
	// CodeSessionExpired means the reset session grant is missing or already used.
	CodeSessionExpired
	// CodeBadGateway means mail or the broker failed.
	CodeBadGateway
)

// StatusSessionExpired is the non-standard "Login Time-out" status.
const StatusSessionExpired = 440

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeBadRequest:     {"ERROR_CODE_BAD_REQUEST", http.StatusBadRequest},
	CodeSessionExpired: {"ERROR_CODE_SESSION_EXPIRED", StatusSessionExpired},
	CodeBadGateway:     {"ERROR_CODE_BAD_GATEWAY", http.StatusBadGateway},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Status returns the HTTP status for c. Unknown codes map to 500.
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Error is the structured error returned by usecases.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}
	return e.errType.fallback()
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }
func (e *Error) Type() Type { return e.errType }
func (e *Error) Code() Code { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) StatusCode() int { return e.code.Status() }

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewUpstream reports a failing dependency with a message the caller may see.
func NewUpstream(err error, msg string) error {
	return &Error{err: err, msg: msg, errType: TypeServer, code: CodeBadGateway}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput wraps a validator error, or builds a field error from
// key/value pairs. An odd number of pairs is a programming error and is
// reported as an invalid body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded. The first msg, if any, replaces the default.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.code
	}
	return CodeInternal
}
