package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/tickets"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// TicketStore writes tickets into the tickets directory and keeps the local
// index in step with it.
type TicketStore struct {
	dir    string
	index  tickets.Repository
	meta   metadata.Repository
	logger logging.Logger
	now    func() time.Time
}

func NewTicketStore(dir string, index tickets.Repository, meta metadata.Repository, logger logging.Logger) *TicketStore {
	return &TicketStore{dir: dir, index: index, meta: meta, logger: logger, now: time.Now}
}

func (s *TicketStore) Dir() string { return s.dir }

// Save writes t and records it in the index.
func (s *TicketStore) Save(ctx context.Context, t *ticket.Ticket) (string, error) {
	path, err := ticket.WriteFile(s.dir, t)
	if err != nil {
		return "", fmt.Errorf("%w: write ticket: %v", common.ErrIO, err)
	}
	if err := s.index.Upsert(ctx, tickets.Record{Path: path, Identity: t.Identity(), CreatedAt: s.now()}); err != nil {
		return "", err
	}
	s.logger.Info(ctx, "ticket saved", "path", path)
	return path, nil
}

// SaveBundle writes the multi-depot artifact of an app.
func (s *TicketStore) SaveBundle(ctx context.Context, b *ticket.Bundle) (string, error) {
	path, err := ticket.WriteBundleFile(s.dir, b)
	if err != nil {
		return "", fmt.Errorf("%w: write bundle: %v", common.ErrIO, err)
	}
	s.logger.Info(ctx, "bundle saved", "path", path, "depots", len(b.Depots))
	return path, nil
}

// Find scans the tickets directory, indexes every readable ticket and
// returns all ticket paths found. Unreadable files are logged and skipped.
func (s *TicketStore) Find(ctx context.Context) ([]string, error) {
	paths, err := ticket.Find(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", common.ErrIO, s.dir, err)
	}
	for _, p := range paths {
		t, err := ticket.ReadFile(p)
		if err != nil {
			s.logger.Warn(ctx, "unreadable ticket", "path", p, "error", err)
			continue
		}
		rec := tickets.Record{Path: p, Identity: t.Identity(), CreatedAt: s.now()}
		if fi, err := os.Stat(p); err == nil {
			rec.CreatedAt = fi.ModTime()
		}
		if err := s.index.Upsert(ctx, rec); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// Locate returns the path of the ticket for id, preferring the index and
// falling back to the conventional file name.
func (s *TicketStore) Locate(ctx context.Context, id ticket.Identity) (string, error) {
	rec, err := s.index.GetByIdentity(ctx, id)
	switch {
	case err == nil:
		if _, statErr := os.Stat(rec.Path); statErr == nil {
			return rec.Path, nil
		}
		_ = s.index.DeleteByPath(ctx, rec.Path)
	case !errors.Is(err, common.ErrNotFound):
		return "", err
	}

	path := filepath.Join(s.dir, ticket.FileName(id))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("ticket %s: %w", id, common.ErrNotFound)
		}
		return "", fmt.Errorf("%w: %v", common.ErrIO, err)
	}
	return path, nil
}

func (s *TicketStore) List(ctx context.Context) ([]tickets.Record, error) {
	return s.index.List(ctx)
}

// Remember records path as the most recently loaded ticket.
func (s *TicketStore) Remember(ctx context.Context, path string) error {
	return s.meta.SetString(ctx, metadata.KeyLastTicket, path)
}

// Last returns the most recently loaded ticket, or "" if none was recorded.
// A remembered file that no longer exists is forgotten.
func (s *TicketStore) Last(ctx context.Context) (string, error) {
	path, err := s.meta.GetString(ctx, metadata.KeyLastTicket)
	if err != nil || path == "" {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %v", common.ErrIO, err)
		}
		if err := s.meta.Delete(ctx, metadata.KeyLastTicket); err != nil {
			return "", err
		}
		return "", nil
	}
	return path, nil
}
