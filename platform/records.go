package platform

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
)

var (
	bucketMeta          = []byte("meta")
	bucketWallets       = []byte("wallets")
	bucketBalances      = []byte("balances")
	bucketAllowances    = []byte("allowances")
	bucketOrganizations = []byte("organizations")
	bucketOrgIndex      = []byte("organization_index")
	bucketMembers       = []byte("members")
	bucketProjects      = []byte("projects")
	bucketStakes        = []byte("stakes")
	bucketInvestors     = []byte("investors")
	bucketRounds        = []byte("rounds")
	bucketEvents        = []byte("events")
)

var (
	metaOwner    = []byte("owner")
	metaIssuer   = []byte("issuer")
	metaSupply   = []byte("supply")
	metaNonce    = []byte("nonce")
	metaOrgCount = []byte("organizations")
	metaEventSeq = []byte("event_seq")
)

// WalletKind tells participant wallets from entity wallets.
type WalletKind uint8

const (
	WalletParticipant WalletKind = iota
	WalletOrganization
	WalletProject
)

func (k WalletKind) String() string {
	switch k {
	case WalletParticipant:
		return "participant"
	case WalletOrganization:
		return "organization"
	case WalletProject:
		return "project"
	default:
		return fmt.Sprintf("WalletKind(%d)", uint8(k))
	}
}

// State is the funding state of a project.
type State uint8

const (
	StateOpen State = iota
	StateFunded
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFunded:
		return "funded"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// amount is the stored form of a token quantity: 32 big-endian bytes.
type amount [32]byte

func toAmount(v *uint256.Int) amount {
	if v == nil {
		return amount{}
	}
	return v.Bytes32()
}

func (a amount) Int() *uint256.Int {
	return new(uint256.Int).SetBytes32(a[:])
}

type walletRecord struct {
	Active bool
	Kind   WalletKind
}

type organizationRecord struct {
	Name     string
	Admin    address.Address
	Verified bool
	Projects []address.Address
	Created  int64
}

type projectRecord struct {
	Organization  address.Address
	Admin         address.Address
	MinPerUser    amount
	MaxPerUser    amount
	InvestmentCap amount
	EndTime       int64 // unix nanoseconds, 0 = no deadline
	TotalInvested amount
	State         State
	CancelEnabled bool
	Investors     uint64 // positions handed out in payout order
	Residual      amount // retained payout dust, not withdrawable
	Rounds        uint64
	Created       int64
}

// expiredAt reports whether the funding deadline has passed at now.
func (p *projectRecord) expiredAt(now time.Time) bool {
	return p.EndTime != 0 && now.UnixNano() >= p.EndTime
}

type eventRecord struct {
	ID           [16]byte
	Kind         EventKind
	Time         int64
	Subject      address.Address
	Wallet       address.Address
	Counterparty address.Address
	Amount       amount
	Round        uint64
}

// pairKey concatenates two addresses, used for allowances, members and
// stakes.
func pairKey(a, b address.Address) []byte {
	k := make([]byte, 0, 2*address.Size)
	k = append(k, a[:]...)
	return append(k, b[:]...)
}

// indexKey is addr || uint64be(i), used for ordered investor positions.
func indexKey(a address.Address, i uint64) []byte {
	k := make([]byte, address.Size+8)
	copy(k, a[:])
	binary.BigEndian.PutUint64(k[address.Size:], i)
	return k
}

func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
