package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/depotkeeper/internal/client/client"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// TicketBuilder binds a depot key and a raw manifest fetched from a live
// session into a ticket. Persisting the ticket is left to the caller.
type TicketBuilder struct {
	session client.Session
	dir     client.Directory
	logger  logging.Logger
}

func NewTicketBuilder(session client.Session, dir client.Directory, logger logging.Logger) *TicketBuilder {
	return &TicketBuilder{session: session, dir: dir, logger: logger}
}

// Build fetches the key and manifest for id. A zero requestCode is sent as
// is; gateways that require a real code answer with common.ErrRequestDenied.
func (b *TicketBuilder) Build(ctx context.Context, id ticket.Identity, requestCode uint64) (*ticket.Ticket, error) {
	if !b.session.IsLoggedOn() {
		return nil, fmt.Errorf("build ticket %s: %w", id, common.ErrUnauthenticated)
	}

	key, err := b.dir.DepotKey(ctx, id.AppID, id.DepotID)
	if err != nil {
		return nil, fmt.Errorf("depot key for %d: %w", id.DepotID, err)
	}

	raw, err := b.dir.ManifestBytes(ctx, id.DepotID, id.ManifestID, requestCode)
	if err != nil {
		return nil, fmt.Errorf("manifest %d of depot %d: %w", id.ManifestID, id.DepotID, err)
	}

	t := &ticket.Ticket{
		AppID:      id.AppID,
		DepotID:    id.DepotID,
		ManifestID: id.ManifestID,
		DepotKey:   key,
		Manifest:   raw,
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("depot %d: %w", id.DepotID, err)
	}

	b.logger.Info(ctx, "ticket built", "app_id", id.AppID, "depot_id", id.DepotID,
		"manifest_id", id.ManifestID, "payload_bytes", len(raw))
	return t, nil
}

// Make obtains a manifest request code first and then builds the ticket.
func (b *TicketBuilder) Make(ctx context.Context, id ticket.Identity) (*ticket.Ticket, error) {
	if !b.session.IsLoggedOn() {
		return nil, fmt.Errorf("make ticket %s: %w", id, common.ErrUnauthenticated)
	}

	code, err := b.dir.ManifestRequestCode(ctx, id.AppID, id.DepotID, id.ManifestID)
	if err != nil {
		return nil, fmt.Errorf("request code for %s: %w", id, err)
	}
	return b.Build(ctx, id, code)
}
