// Package ir provides error handling for type resolution.
package ir

import (
	"errors"
	"fmt"

	"github.com/zurustar/mya/pkg/compiler/ast"
)

// ErrorKind classifies compile errors.
type ErrorKind string

const (
	// Type conflicts
	ErrVariableTypes ErrorKind = "VARIABLE_TYPES"
	ErrArgumentTypes ErrorKind = "ARGUMENT_TYPES"
	ErrBranchTypes   ErrorKind = "BRANCH_TYPES"

	// Missing information
	ErrNotEnoughInformation ErrorKind = "NOT_ENOUGH_INFORMATION"
	ErrUnresolved           ErrorKind = "UNRESOLVED"

	// Definitions and call targets
	ErrDuplicateMethod ErrorKind = "DUPLICATE_METHOD"
	ErrUnknownMethod   ErrorKind = "UNKNOWN_METHOD"
	ErrUnknownNode     ErrorKind = "UNKNOWN_NODE"
	ErrArity           ErrorKind = "ARITY"
)

// TypeError is a terminal compile error. Once one is returned, compilation
// has failed. Error returns Message unchanged; the messages are stable and
// callers match on them.
type TypeError struct {
	Kind    ErrorKind
	Message string
	Pos     ast.Position // zero if unknown
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return e.Message
}

// NewTypeError creates a TypeError with a formatted message.
func NewTypeError(kind ErrorKind, format string, args ...any) *TypeError {
	return &TypeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// PendingError means a type cannot be resolved yet. The tables a
// dependency reads from only grow during the walk, so a later query may
// succeed. A PendingError that survives the end of compilation is turned
// into a TypeError by Finalize.
type PendingError struct {
	Kind   ErrorKind
	Reason string
}

// Error implements the error interface.
func (e *PendingError) Error() string {
	return e.Reason
}

func pending(kind ErrorKind, format string, args ...any) *PendingError {
	return &PendingError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// IsPending reports whether err only means "not resolvable yet".
func IsPending(err error) bool {
	var p *PendingError
	return errors.As(err, &p)
}

// Finalize converts a pending error into the terminal TypeError it becomes
// once no more information can arrive. Other errors pass through.
func Finalize(err error) error {
	var p *PendingError
	if errors.As(err, &p) {
		return &TypeError{Kind: p.Kind, Message: p.Reason}
	}
	return err
}

// AsTypeError unwraps err into a *TypeError.
func AsTypeError(err error) (*TypeError, bool) {
	var te *TypeError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// at fills in a position on terminal errors that have none yet.
func at(err error, pos ast.Position) error {
	if te, ok := AsTypeError(err); ok && !te.Pos.IsValid() {
		te.Pos = pos
	}
	return err
}
