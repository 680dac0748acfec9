// Package walleterr defines the shared error-kind taxonomy used across
// the module, so callers can distinguish failure categories with
// walleterr.Is (or errors.As to an *Error) instead of string matching.
package walleterr

import "fmt"

// Kind classifies a failure into one of this module's failure categories.
type Kind string

const (
	InvalidEncoding    Kind = "invalid_encoding"
	InvalidChecksum    Kind = "invalid_checksum"
	InvalidKey         Kind = "invalid_key"
	InvalidScript      Kind = "invalid_script"
	UnknownAddressType Kind = "unknown_address_type"
	InsufficientFunds  Kind = "insufficient_funds"
	SignerRefused      Kind = "signer_refused"
	NotAuthorized      Kind = "not_authorized"
	InvalidTransaction Kind = "invalid_transaction"
	Duplicate          Kind = "duplicate"
	BadField           Kind = "bad_field"
	Unsupported        Kind = "unsupported"
)

// Error wraps an underlying cause with a Kind so the caller can branch on
// failure category while still getting a normal wrapped error chain.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error for the given operation and kind.
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err carries the given Kind, looking through wrapped
// errors the way errors.Is does for sentinel values.
func Is(err error, kind Kind) bool {
	for err != nil {
		if we, ok := err.(*Error); ok {
			if we.Kind == kind {
				return true
			}
			err = we.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
