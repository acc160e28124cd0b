package storage

import (
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

var (
	// ErrNotFound indicates the task does not exist in the owner's partition.
	ErrNotFound = errors.New("task not found")
	// ErrConflict indicates the entity changed underneath the caller.
	ErrConflict = errors.New("conflicting write")
)

// TransientError marks failures the caller may retry, typically network
// timeouts or throttling. The engine itself never retries; it surfaces
// these so the client can offer a retry.
type TransientError interface {
	error
	Transient()
}

type transientError struct{ err error }

func (t transientError) Error() string { return t.err.Error() }
func (t transientError) Unwrap() error { return t.err }
func (t transientError) Transient()    {}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te TransientError
	return errors.As(err, &te)
}

// mapError translates Azure table responses into the store's taxonomy.
// Anything that is not a definite client error is treated as transient.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return transientError{err: err}
	}
	switch respErr.StatusCode {
	case 404:
		return ErrNotFound
	case 409, 412:
		return ErrConflict
	case 408, 429, 500, 502, 503, 504:
		return transientError{err: err}
	default:
		return err
	}
}
