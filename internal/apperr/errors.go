package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidTransition
	KindConflict
	KindInsufficientStock
	KindAlreadyResolved
	KindUnauthorized
	KindInvalid
)

var kindNames = map[Kind]string{
	KindUnknown:           "UNKNOWN",
	KindNotFound:          "NOT_FOUND",
	KindInvalidTransition: "INVALID_TRANSITION",
	KindConflict:          "CONFLICT",
	KindInsufficientStock: "INSUFFICIENT_STOCK",
	KindAlreadyResolved:   "ALREADY_RESOLVED",
	KindUnauthorized:      "UNAUTHORIZED",
	KindInvalid:           "INVALID_ARGUMENT",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Error is a classified failure of a core operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so sentinel comparisons work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// GRPCStatus lets status.FromError classify core errors at the transport edge.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(grpcCode(e.Kind), e.Error())
}

func grpcCode(k Kind) codes.Code {
	switch k {
	case KindNotFound:
		return codes.NotFound
	case KindInvalidTransition, KindInsufficientStock, KindAlreadyResolved:
		return codes.FailedPrecondition
	case KindConflict:
		return codes.Aborted
	case KindUnauthorized:
		return codes.PermissionDenied
	case KindInvalid:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrAlreadyResolved   = &Error{Kind: KindAlreadyResolved}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInvalid           = &Error{Kind: KindInvalid}
)

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NotFound(op, format string, args ...interface{}) *Error {
	return Newf(KindNotFound, op, format, args...)
}

func InvalidTransition(op, format string, args ...interface{}) *Error {
	return Newf(KindInvalidTransition, op, format, args...)
}

func Conflict(op, format string, args ...interface{}) *Error {
	return Newf(KindConflict, op, format, args...)
}

func InsufficientStock(op, format string, args ...interface{}) *Error {
	return Newf(KindInsufficientStock, op, format, args...)
}

func AlreadyResolved(op, format string, args ...interface{}) *Error {
	return Newf(KindAlreadyResolved, op, format, args...)
}

func Unauthorized(op, format string, args ...interface{}) *Error {
	return Newf(KindUnauthorized, op, format, args...)
}

func Invalid(op, format string, args ...interface{}) *Error {
	return Newf(KindInvalid, op, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the caller may retry after re-reading current state.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}
