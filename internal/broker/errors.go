package broker

import (
	"errors"

	"mb-basketd/internal/types"
)

// Error is a classified submission failure. Transient failures are
// retry-safe, permanent ones are not.
type Error struct {
	Kind    types.ErrorKind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func Transient(msg string) *Error {
	return &Error{Kind: types.ErrorKindTransient, Message: msg}
}

func Permanent(msg string) *Error {
	return &Error{Kind: types.ErrorKindPermanent, Message: msg}
}

// KindOf classifies an arbitrary submission error. Unclassified errors,
// including context and network-level failures, count as transient; the retry
// ceiling bounds the damage of a wrong guess.
func KindOf(err error) types.ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return types.ErrorKindTransient
}

// IsRetryable reports whether a failed attempt may be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == types.ErrorKindTransient
}
