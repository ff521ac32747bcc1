package revshare

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

const stakeSize = 40 // amount(32) + index(8)

// Stake is an investor's position in a project: the amount invested and the
// investor's position in payout order.
type Stake struct {
	Amount *uint256.Int
	Index  uint64
}

// SerializeStake encodes a Stake to binary format.
func SerializeStake(s *Stake) []byte {
	buf := make([]byte, stakeSize)
	putAmount(buf[0:32], s.Amount)
	binary.BigEndian.PutUint64(buf[32:40], s.Index)
	return buf
}

// DeserializeStake decodes binary data into a Stake.
func DeserializeStake(data []byte) (*Stake, error) {
	if len(data) != stakeSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidStakeData, stakeSize, len(data))
	}
	return &Stake{
		Amount: new(uint256.Int).SetBytes32(data[0:32]),
		Index:  binary.BigEndian.Uint64(data[32:40]),
	}, nil
}

// putAmount writes v as 32 big-endian bytes; nil writes zero.
func putAmount(dst []byte, v *uint256.Int) {
	if v == nil {
		return
	}
	b := v.Bytes32()
	copy(dst, b[:])
}
