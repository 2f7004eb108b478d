// Package ticket defines the portable ticket artifact that binds a depot
// manifest to its decryption key, together with its line-oriented codec,
// the multi-depot bundle format and on-disk helpers.
//
// A single ticket is five newline-terminated records:
//
//	appId       decimal
//	depotId     decimal
//	manifestId  decimal
//	depotKey    lowercase hex
//	payload     standard base64 of the raw manifest bytes (may be empty)
package ticket

import (
	"fmt"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
)

// Identity addresses one manifest of one depot of one application.
type Identity struct {
	AppID      uint32
	DepotID    uint32
	ManifestID uint64
}

func (id Identity) String() string {
	return fmt.Sprintf("%d_%d_%d", id.AppID, id.DepotID, id.ManifestID)
}

// Ticket is immutable once written: a new key or manifest id means a new ticket.
type Ticket struct {
	AppID      uint32
	DepotID    uint32
	ManifestID uint64
	DepotKey   []byte
	Manifest   []byte
}

func (t *Ticket) Identity() Identity {
	return Identity{AppID: t.AppID, DepotID: t.DepotID, ManifestID: t.ManifestID}
}

// Validate checks the fields that must be well-formed before the payload
// can be interpreted.
func (t *Ticket) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil ticket", common.ErrMalformedTicket)
	}
	if n := len(t.DepotKey); n < common.MinDepotKeySize || n > common.MaxDepotKeySize {
		return fmt.Errorf("%w: depot key is %d bytes, want %d..%d",
			common.ErrMalformedTicket, n, common.MinDepotKeySize, common.MaxDepotKeySize)
	}
	return nil
}
