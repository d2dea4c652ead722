package pricing

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by cache adapters when no entry exists for a key.
var ErrCacheMiss = errors.New("pricing cache miss")

// ErrInvalidTrace marks a trace that failed structural validation after a
// successful factor chain. This is an internal-consistency failure, never a
// bad-input condition, and must not be retried without investigation.
var ErrInvalidTrace = errors.New("invalid pricing trace")

// UnknownCodeError reports a request code with no catalog entry. The
// computation fails fast; nothing is defaulted.
type UnknownCodeError struct {
	Kind string // material, machine, finish, currency, region, tolerance band
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %s code: %q", e.Kind, e.Code)
}

// FactorError wraps a factor failure with the factor's code and the hash of
// the context at the failure point, mirroring the terminal trace entry.
type FactorError struct {
	Factor    string
	InputHash string
	Err       error
}

func (e *FactorError) Error() string {
	return fmt.Sprintf("factor %s failed: %v", e.Factor, e.Err)
}

func (e *FactorError) Unwrap() error {
	return e.Err
}
