package address

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("address: required parameter is nil")

	// ErrInvalidLength indicates the input is not 20 bytes.
	ErrInvalidLength = errors.New("address: invalid length")

	// ErrInvalidHex indicates a malformed 0x-prefixed hex address.
	ErrInvalidHex = errors.New("address: invalid hex")

	// ErrInvalidBase58 indicates a malformed Base58Check address.
	ErrInvalidBase58 = errors.New("address: invalid base58 address")
)
