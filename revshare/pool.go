package revshare

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// number(8) + revenue(32) + total_stake(32) + investors(8) + cursor(8) +
// paid(32) + last_payee(20) + flags(1)
const roundSize = 141

const (
	flagActive   = 1 << 0
	flagHasPayee = 1 << 1
)

// SerializeRound encodes a Round to binary format.
func SerializeRound(r *Round) []byte {
	buf := make([]byte, roundSize)
	binary.BigEndian.PutUint64(buf[0:8], r.Number)
	putAmount(buf[8:40], r.Revenue)
	putAmount(buf[40:72], r.TotalStake)
	binary.BigEndian.PutUint64(buf[72:80], r.Investors)
	binary.BigEndian.PutUint64(buf[80:88], r.Cursor)
	putAmount(buf[88:120], r.Paid)
	copy(buf[120:140], r.LastPayee[:])
	var flags byte
	if r.Active {
		flags |= flagActive
	}
	if r.HasPayee {
		flags |= flagHasPayee
	}
	buf[140] = flags
	return buf
}

// DeserializeRound decodes binary data into a Round.
func DeserializeRound(data []byte) (*Round, error) {
	if len(data) != roundSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRoundData, roundSize, len(data))
	}
	if data[140]&^(flagActive|flagHasPayee) != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrInvalidRoundData, data[140])
	}
	r := &Round{
		Number:     binary.BigEndian.Uint64(data[0:8]),
		Revenue:    new(uint256.Int).SetBytes32(data[8:40]),
		TotalStake: new(uint256.Int).SetBytes32(data[40:72]),
		Investors:  binary.BigEndian.Uint64(data[72:80]),
		Cursor:     binary.BigEndian.Uint64(data[80:88]),
		Paid:       new(uint256.Int).SetBytes32(data[88:120]),
		Active:     data[140]&flagActive != 0,
		HasPayee:   data[140]&flagHasPayee != 0,
	}
	copy(r.LastPayee[:], data[120:140])
	return r, nil
}
