package types

import (
	"fmt"
	"runtime/debug"
)

// ErrorKind tags the error taxonomy returned to clients.
type ErrorKind string

const (
	ErrUnknownAction    ErrorKind = "UnknownAction"
	ErrMalformedRequest ErrorKind = "MalformedRequest"
	ErrOperationError   ErrorKind = "OperationError"
	ErrPredicateError   ErrorKind = "PredicateError"
	ErrTransportError   ErrorKind = "TransportError"
)

// ServerError is the structured error object returned to clients on any
// handler failure. It plays the same role as a captured-traceback exception
// re-raised on the client: kind, message, and an optional server-side stack.
type ServerError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Stack   string    `json:"stack,omitempty"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewServerError captures the current stack alongside the error kind and
// message, so a handler failure can be carried back through a channel to a
// blocked caller without losing where it happened.
func NewServerError(kind ErrorKind, format string, args ...interface{}) *ServerError {
	return &ServerError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Stack:   string(debug.Stack()),
	}
}
