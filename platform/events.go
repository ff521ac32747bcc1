package platform

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/coopfund/libcoop-go/address"
	"github.com/coopfund/libcoop-go/store"
)

// EventKind names an occurrence recorded by a committed operation.
type EventKind string

const (
	EventWalletAdded                EventKind = "wallet-added"
	EventWalletDeactivated          EventKind = "wallet-deactivated"
	EventOrganizationAdded          EventKind = "organization-added"
	EventOrganizationApproved       EventKind = "organization-approved"
	EventMemberAdded                EventKind = "member-added"
	EventProjectAdded               EventKind = "project-added"
	EventTokensMinted               EventKind = "tokens-minted"
	EventTokensTransferred          EventKind = "tokens-transferred"
	EventTokensBurned               EventKind = "tokens-burned"
	EventAllowanceChanged           EventKind = "allowance-changed"
	EventInvestmentMade             EventKind = "investment-made"
	EventInvestmentCancelled        EventKind = "investment-cancelled"
	EventOwnershipTransferred       EventKind = "ownership-transferred"
	EventFundsWithdrawn             EventKind = "funds-withdrawn"
	EventOrganizationFundsWithdrawn EventKind = "organization-funds-withdrawn"
	EventInvestmentWithdrawn        EventKind = "investment-withdrawn"
	EventRevenuePayoutStarted       EventKind = "revenue-payout-started"
	EventRevenueSharePaid           EventKind = "revenue-share-paid"
	EventRevenueDustAssigned        EventKind = "revenue-dust-assigned"
	EventRevenuePayoutCompleted     EventKind = "revenue-payout-completed"
)

// Event is one entry of the platform's append-only event log.
//
// Subject is the entity acted on (wallet, organization or project), Wallet
// the participant that acted or received, Counterparty the other side of a
// two-party movement.
type Event struct {
	Seq          uint64
	ID           uuid.UUID
	Kind         EventKind
	Time         time.Time
	Subject      address.Address
	Wallet       address.Address
	Counterparty address.Address
	Amount       *uint256.Int
	Round        uint64
}

// EventSink receives events after the operation that produced them commits.
type EventSink interface {
	HandleEvent(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// HandleEvent calls f(e).
func (f EventSinkFunc) HandleEvent(e Event) { f(e) }

func (r *eventRecord) event(seq uint64) Event {
	return Event{
		Seq:          seq,
		ID:           uuid.UUID(r.ID),
		Kind:         r.Kind,
		Time:         time.Unix(0, r.Time).UTC(),
		Subject:      r.Subject,
		Wallet:       r.Wallet,
		Counterparty: r.Counterparty,
		Amount:       r.Amount.Int(),
		Round:        r.Round,
	}
}

// emit appends an event to the log inside the current transaction.
func (t *txn) emit(e Event) error {
	seq := t.counter(metaEventSeq) + 1
	if err := t.setCounter(metaEventSeq, seq); err != nil {
		return err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("platform: event id: %w", err)
	}
	rec := eventRecord{
		ID:           id,
		Kind:         e.Kind,
		Time:         t.now.UnixNano(),
		Subject:      e.Subject,
		Wallet:       e.Wallet,
		Counterparty: e.Counterparty,
		Amount:       toAmount(e.Amount),
		Round:        e.Round,
	}
	if err := t.putGob(bucketEvents, seqKey(seq), &rec); err != nil {
		return err
	}
	t.events = append(t.events, rec.event(seq))
	return nil
}

// Events returns up to limit logged events with sequence numbers greater
// than after, in order. A zero limit returns all of them.
func (p *Platform) Events(after uint64, limit int) ([]Event, error) {
	if after == math.MaxUint64 {
		return nil, nil
	}
	var out []Event
	err := p.store.View(func(tx store.Tx) error {
		return tx.ForEach(bucketEvents, nil, seqKey(after+1), func(k, v []byte) error {
			var rec eventRecord
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("platform: decode event: %w", err)
			}
			out = append(out, rec.event(decodeSeq(k)))
			if limit > 0 && len(out) >= limit {
				return store.ErrStop
			}
			return nil
		})
	})
	return out, err
}

// dispatch hands committed events to the sinks in log order.
func (p *Platform) dispatch(events []Event) {
	for _, e := range events {
		if ce := p.log.Check(zapDebug, "event"); ce != nil {
			ce.Write(eventFields(e)...)
		}
		for _, s := range p.sinks {
			s.HandleEvent(e)
		}
	}
}
