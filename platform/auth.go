package platform

import (
	"fmt"

	"github.com/coopfund/libcoop-go/address"
)

// capability is a privileged identity together with the reason returned
// when a caller does not hold it.
type capability struct {
	holder address.Address
	denied *Error
}

func (t *txn) ownerCap() capability {
	return capability{holder: t.p.owner, denied: ErrNotOwner}
}

func (t *txn) issuerCap() capability {
	return capability{holder: t.p.issuer, denied: ErrNotIssuer}
}

func adminCap(admin address.Address) capability {
	return capability{holder: admin, denied: ErrNotAdmin}
}

// authorize passes when caller holds any of caps. With a single capability
// the failure carries its reason; with several it is denied.
func authorize(caller address.Address, denied *Error, caps ...capability) error {
	for _, c := range caps {
		if !c.holder.IsZero() && caller == c.holder {
			return nil
		}
	}
	if len(caps) == 1 {
		denied = caps[0].denied
	}
	return fmt.Errorf("%w: %s", denied, caller)
}

// requireCap is authorize for a single capability.
func requireCap(caller address.Address, c capability) error {
	return authorize(caller, c.denied, c)
}
