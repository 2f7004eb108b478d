package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// TicketLoader restores manifests and depot keys from tickets without any
// network call.
type TicketLoader struct {
	cache  *manifest.Cache
	keys   *manifest.KeyStore
	logger logging.Logger
}

func NewTicketLoader(cache *manifest.Cache, keys *manifest.KeyStore, logger logging.Logger) *TicketLoader {
	return &TicketLoader{cache: cache, keys: keys, logger: logger}
}

// Load registers the ticket's manifest and key. Loading the same ticket
// again replaces the cached entries with identical ones.
func (l *TicketLoader) Load(ctx context.Context, t *ticket.Ticket) (*manifest.Manifest, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	m, err := l.cache.Put(t.Identity(), t.Manifest)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t.Identity(), err)
	}
	l.keys.Set(t.DepotID, t.DepotKey)

	l.logger.Info(ctx, "ticket loaded", "app_id", t.AppID, "depot_id", t.DepotID,
		"manifest_id", t.ManifestID, "files", len(m.Files()))
	return m, nil
}

// LoadFile reads a ticket file and loads it.
func (l *TicketLoader) LoadFile(ctx context.Context, path string) (*ticket.Ticket, *manifest.Manifest, error) {
	t, err := ticket.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := l.Load(ctx, t)
	if err != nil {
		return nil, nil, err
	}
	return t, m, nil
}

// Resolve returns the cached manifest for id with plaintext file names,
// together with its depot key.
func (l *TicketLoader) Resolve(ctx context.Context, id ticket.Identity) (*manifest.Manifest, []byte, error) {
	key, err := l.keys.Get(id.DepotID)
	if err != nil {
		return nil, nil, err
	}
	if err := l.cache.DecryptFileNames(id, key); err != nil {
		return nil, nil, err
	}
	m, err := l.cache.Get(id)
	if err != nil {
		return nil, nil, err
	}
	return m, key, nil
}

// Loaded lists the identities currently held in the cache.
func (l *TicketLoader) Loaded() []ticket.Identity {
	return l.cache.Identities()
}
