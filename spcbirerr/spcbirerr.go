// Package spcbirerr defines the three-member error taxonomy the original
// SPConfig.h/SPLogger.h's SP_*_MSG enums carry through every fallible
// C call (SP_CONFIG_INVALID_ARGUMENT, SP_CONFIG_EMPTY, out-of-memory),
// collapsed to the causes that still matter to a Go caller: a bad argument,
// an empty input the operation can't proceed without, and a resource
// exhaustion a caller may want to retry.
//
// Core domain packages (descriptor, bpq, kdarray, kdtree, search) tag their
// validation failures with a Cause via New, so callers can dispatch on
// `errors.Is` without string-matching a message. Boundary/IO packages
// (config, featurecache, catalog, dedup) return plain
// github.com/pkg/errors errors instead: those failures are already
// unambiguous from the wrapped OS/parse error they carry, and there is no
// caller that needs to branch on them programmatically.
package spcbirerr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Cause classifies why a core-domain operation failed.
type Cause error

var (
	// InvalidArgument means a parameter violated a documented precondition
	// (wrong dimension, non-positive capacity, out-of-range index).
	InvalidArgument Cause = stderrors.New("invalid argument")
	// Empty means the operation requires at least one element but received
	// none (an empty descriptor set, an empty BPQ).
	Empty Cause = stderrors.New("empty input")
	// OutOfMemory means an allocation-equivalent resource could not be
	// obtained (e.g. a features file could not be created).
	OutOfMemory Cause = stderrors.New("allocation failure")
)

// New builds an error tagged with cause, formatted like errors.Errorf, that
// still satisfies errors.Is(err, cause).
func New(cause Cause, format string, args ...interface{}) error {
	return &causeError{cause: cause, err: errors.Errorf(format, args...)}
}

// Wrap tags an existing error with cause while preserving its message and
// stack via pkg/errors.WithMessage semantics.
func Wrap(cause Cause, err error, message string) error {
	if err == nil {
		return nil
	}
	return &causeError{cause: cause, err: errors.WithMessage(err, message)}
}

type causeError struct {
	cause Cause
	err   error
}

func (e *causeError) Error() string { return e.err.Error() }
func (e *causeError) Unwrap() error { return e.err }
func (e *causeError) Is(target error) bool {
	return target == e.cause
}
