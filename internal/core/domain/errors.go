// Package domain defines the value types shared by the RESP client packages.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError is a client error with a structured code.
//
// The code prefix selects the error Kind:
//
//	RC-CONF-*  configuration (bad arguments, misuse); never retried
//	RC-CONN-*  connection (dial, I/O, lost socket); retry-worthy
//	RC-PROT-*  protocol (malformed or unexpected reply); fatal to the call
//	RC-SERV-*  server reply ("-" prefix); the connection stays usable
type DomainError struct {
	Code    string // Error code (e.g., "RC-CONN-5030")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind returns the error kind encoded in the code.
func (e *DomainError) Kind() Kind {
	switch {
	case strings.HasPrefix(e.Code, "RC-CONF-"):
		return KindConfiguration
	case strings.HasPrefix(e.Code, "RC-CONN-"):
		return KindConnection
	case strings.HasPrefix(e.Code, "RC-PROT-"):
		return KindProtocol
	case strings.HasPrefix(e.Code, "RC-SERV-"):
		return KindServer
	default:
		return KindUnknown
	}
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Kind classifies an error for recovery decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindConnection
	KindProtocol
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind()
	}
	return KindUnknown
}

// IsRetryable reports whether a fresh attempt on a new connection may succeed.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConnection
}

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrInvalidArgument indicates a facade argument failed validation.
	ErrInvalidArgument = NewDomainError("RC-CONF-4000", "invalid argument")

	// ErrPipelineUnsupported indicates a reply shape that cannot be deferred.
	ErrPipelineUnsupported = NewDomainError("RC-CONF-4001", "operation not supported while pipelining")

	// ErrPipelineActive indicates a second pipeline was requested on one client.
	ErrPipelineActive = NewDomainError("RC-CONF-4002", "pipeline already active")

	// ErrClientClosed indicates use of a disposed client.
	ErrClientClosed = NewDomainError("RC-CONF-4003", "client closed")
)

// ============================================================================
// Connection Errors (CONN)
// ============================================================================

var (
	// ErrConnectFailed indicates the TCP connect (or its AUTH/SELECT handshake) failed.
	ErrConnectFailed = NewDomainError("RC-CONN-5030", "connect failed")

	// ErrConnectionLost indicates a read or write on an established socket failed.
	ErrConnectionLost = NewDomainError("RC-CONN-5031", "connection lost")

	// ErrPoolExhausted indicates no pooled client became free in time.
	ErrPoolExhausted = NewDomainError("RC-CONN-5032", "client pool exhausted")
)

// ============================================================================
// Protocol Errors (PROT)
// ============================================================================

var (
	// ErrProtocol indicates a malformed frame (bad length, missing CRLF).
	ErrProtocol = NewDomainError("RC-PROT-5020", "protocol error")

	// ErrUnexpectedReply indicates a well-formed reply of the wrong shape.
	ErrUnexpectedReply = NewDomainError("RC-PROT-5021", "unexpected reply")
)

// ============================================================================
// Server Errors (SERV)
// ============================================================================

// ErrServerReply matches every error reply sent by the server.
var ErrServerReply = NewDomainError("RC-SERV-4220", "server error")

// NewServerError builds the error for a "-" reply line (without the prefix).
// A leading "ERR " is dropped; any other prefix is part of the message.
func NewServerError(line string) *DomainError {
	msg := line
	if strings.HasPrefix(msg, "ERR ") {
		msg = msg[len("ERR "):]
	}
	return NewDomainError(ErrServerReply.Code, msg)
}

// ServerMessage returns the server's message when err is a server reply.
func ServerMessage(err error) (string, bool) {
	var de *DomainError
	if errors.As(err, &de) && de.Code == ErrServerReply.Code {
		return de.Message, true
	}
	return "", false
}

// InvalidArgument returns ErrInvalidArgument naming the offending argument.
func InvalidArgument(name, reason string) *DomainError {
	return ErrInvalidArgument.WithDetailsf("%s %s", name, reason)
}
