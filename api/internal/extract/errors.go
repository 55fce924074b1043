package extract

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an extraction failure.
type Kind string

const (
	KindTimeout         Kind = "timeout"
	KindInvalidDocument Kind = "invalid_document"
	KindUnavailable     Kind = "collaborator_unavailable"
	KindMalformedOutput Kind = "malformed_output"
)

// Sentinels matched by errors.Is against *Error.
var (
	ErrTimeout         = errors.New("extraction timed out")
	ErrInvalidDocument = errors.New("invalid document")
	ErrUnavailable     = errors.New("extraction collaborator unavailable")
	ErrMalformedOutput = errors.New("malformed extraction output")
)

// Error is a classified extraction failure.
type Error struct {
	Kind Kind
	Op   string // collaborator name, e.g. "gemini"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrInvalidDocument:
		return e.Kind == KindInvalidDocument
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrMalformedOutput:
		return e.Kind == KindMalformedOutput
	}
	return false
}

func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Classify turns any collaborator error into an *Error. Classified errors
// pass through unchanged; deadline expiry becomes KindTimeout, everything
// else KindUnavailable.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, op, err)
	}
	return NewError(KindUnavailable, op, err)
}

// KindOf reports the kind of a classified error anywhere in the chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
