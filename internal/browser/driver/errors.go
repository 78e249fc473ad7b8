// internal/browser/driver/errors.go
package driver

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies driver failures. Wait and retry policies are expressed
// entirely in terms of these kinds.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindNotFound
	KindNotVisible
	KindStaleReference
	KindIntercepted
	KindTimeoutExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNotVisible:
		return "not_visible"
	case KindStaleReference:
		return "stale_reference"
	case KindIntercepted:
		return "intercepted"
	case KindTimeoutExceeded:
		return "timeout_exceeded"
	default:
		return "unexpected"
	}
}

// Sentinel errors, one per kind, for errors.Is checks.
var (
	ErrNotFound    = errors.New("element not found")
	ErrNotVisible  = errors.New("element not visible")
	ErrStale       = errors.New("element is stale or detached from the document")
	ErrIntercepted = errors.New("action intercepted by another element")
	ErrTimeout     = errors.New("timeout exceeded")
	ErrUnexpected  = errors.New("unexpected driver error")
)

func sentinel(k ErrorKind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindNotVisible:
		return ErrNotVisible
	case KindStaleReference:
		return ErrStale
	case KindIntercepted:
		return ErrIntercepted
	case KindTimeoutExceeded:
		return ErrTimeout
	default:
		return ErrUnexpected
	}
}

// Error is the typed failure returned by drivers.
type Error struct {
	Kind    ErrorKind
	Op      string
	Locator string
	Err     error
}

// NewError builds an *Error. A nil cause is replaced by the kind's sentinel.
func NewError(kind ErrorKind, op string, cause error) *Error {
	if cause == nil {
		cause = sentinel(kind)
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

// WithLocator annotates the error with the locator that produced it.
func (e *Error) WithLocator(loc Locator) *Error {
	e.Locator = loc.String()
	return e
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Locator != "" {
		msg += " [" + e.Locator + "]"
	}
	if e.Err != nil && !errors.Is(e.Err, sentinel(e.Kind)) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so errors.Is(err, ErrStale)
// holds for any stale-reference *Error regardless of its cause.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

// KindOf classifies err. Context deadlines count as timeouts; anything that is
// not a driver *Error is unexpected.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnexpected
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return KindTimeoutExceeded
	}
	for _, k := range []ErrorKind{KindNotFound, KindNotVisible, KindStaleReference, KindIntercepted} {
		if errors.Is(err, sentinel(k)) {
			return k
		}
	}
	return KindUnexpected
}

// IsKind reports whether err classifies as one of kinds.
func IsKind(err error, kinds ...ErrorKind) bool {
	if err == nil {
		return false
	}
	k := KindOf(err)
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// Errorf builds an *Error of the given kind with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return NewError(kind, op, fmt.Errorf(format, args...))
}
