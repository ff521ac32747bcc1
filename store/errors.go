package store

import "errors"

var (
	// ErrStop ends a ForEach iteration early without reporting an error.
	ErrStop = errors.New("store: stop iteration")

	// ErrReadOnly indicates a write was attempted in a View transaction.
	ErrReadOnly = errors.New("store: transaction is read-only")

	// ErrInvalidKey indicates an empty or malformed key.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)
