// Package address defines the 20-byte identities used across the platform.
//
// Participant addresses are HASH160(compressed pubkey), the same hash that
// backs a P2PKH address. Organization and project wallets have no key pair;
// their addresses are derived from the creator address and a nonce:
//
//	Derive(creator, nonce) = Keccak256(creator || uint64be(nonce))[12:]
package address

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
	"golang.org/x/crypto/sha3"
)

// Size is the byte length of an Address.
const Size = 20

// Address identifies a wallet: a participant, an organization or a project.
type Address [Size]byte

// Zero is the unset address.
var Zero Address

// FromPublicKey returns HASH160 of the compressed public key.
func FromPublicKey(pub *ec.PublicKey) (Address, error) {
	if pub == nil {
		return Zero, fmt.Errorf("%w: public key", ErrNilParam)
	}
	return FromBytes(bsvhash.Hash160(pub.Compressed()))
}

// FromBytes copies a 20-byte slice into an Address.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return Zero, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidLength, Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Derive computes the address of an entity created by creator with the given
// nonce. The result is stable, so replaying the same creation sequence yields
// the same organization and project addresses.
func Derive(creator Address, nonce uint64) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(creator[:])
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	h.Write(n[:])
	sum := h.Sum(nil)

	var a Address
	copy(a[:], sum[len(sum)-Size:])
	return a
}

// Parse accepts either the 0x-prefixed hex form or a Base58Check P2PKH
// address string.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return Zero, fmt.Errorf("%w: %w", ErrInvalidHex, err)
		}
		return FromBytes(b)
	}
	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalidBase58, err)
	}
	return FromBytes([]byte(addr.PublicKeyHash))
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant fixtures.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the 0x-prefixed lowercase hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Base58 returns the P2PKH Base58Check form of the address.
func (a Address) Base58(mainnet bool) (string, error) {
	addr, err := script.NewAddressFromPublicKeyHash(a[:], mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidBase58, err)
	}
	return addr.AddressString, nil
}

// IsZero reports whether a is the unset address.
func (a Address) IsZero() bool {
	return a == Zero
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, a[:])
	return b
}
